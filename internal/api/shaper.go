package api

import (
	"github.com/dl-alexandre/gdmirror/internal/types"
	"google.golang.org/api/drive/v3"
)

// RequestShaper applies the parameters every mirror request needs: shared
// drive support and resource keys for link-shared items.
type RequestShaper struct {
	client *Client
}

// NewRequestShaper creates a shaper bound to a client
func NewRequestShaper(client *Client) *RequestShaper {
	return &RequestShaper{client: client}
}

func (s *RequestShaper) resourceKeyHeader(reqCtx *types.RequestContext) string {
	ids := make([]string, 0, len(reqCtx.InvolvedFileIDs)+len(reqCtx.InvolvedParentIDs))
	ids = append(ids, reqCtx.InvolvedFileIDs...)
	ids = append(ids, reqCtx.InvolvedParentIDs...)
	return s.client.ResourceKeys().BuildHeader(ids)
}

// ShapeFilesList shapes a files.list call
func (s *RequestShaper) ShapeFilesList(call *drive.FilesListCall, reqCtx *types.RequestContext) *drive.FilesListCall {
	call = call.SupportsAllDrives(true).IncludeItemsFromAllDrives(true)
	if header := s.resourceKeyHeader(reqCtx); header != "" {
		call.Header().Set(ResourceKeyHeader, header)
	}
	return call
}

// ShapeFilesGet shapes a files.get call
func (s *RequestShaper) ShapeFilesGet(call *drive.FilesGetCall, reqCtx *types.RequestContext) *drive.FilesGetCall {
	call = call.SupportsAllDrives(true)
	if header := s.resourceKeyHeader(reqCtx); header != "" {
		call.Header().Set(ResourceKeyHeader, header)
	}
	return call
}

// ShapeFilesExport shapes a files.export call
func (s *RequestShaper) ShapeFilesExport(call *drive.FilesExportCall, reqCtx *types.RequestContext) *drive.FilesExportCall {
	if header := s.resourceKeyHeader(reqCtx); header != "" {
		call.Header().Set(ResourceKeyHeader, header)
	}
	return call
}
