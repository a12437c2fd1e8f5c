package api

import (
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"google.golang.org/api/drive/v3"
)

// ClassifyMimeType maps a Drive MIME type to the mirror's item kind
func ClassifyMimeType(mimeType string) types.ItemKind {
	switch {
	case mimeType == utils.MimeTypeFolder:
		return types.KindContainer
	case mimeType == utils.MimeTypeDocument:
		return types.KindRichDocument
	case utils.IsWorkspaceMimeType(mimeType):
		return types.KindUnsupported
	default:
		return types.KindLeaf
	}
}

func convertRemoteItem(f *drive.File) types.RemoteItem {
	return types.RemoteItem{
		ID:           f.Id,
		Name:         f.Name,
		Kind:         ClassifyMimeType(f.MimeType),
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		ResourceKey:  f.ResourceKey,
	}
}

func convertMetadata(f *drive.File) types.RemoteItemMetadata {
	return types.RemoteItemMetadata{
		ID:             f.Id,
		Name:           f.Name,
		CreatedTime:    f.CreatedTime,
		WebContentLink: f.WebContentLink,
	}
}
