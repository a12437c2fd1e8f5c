package mirror

import (
	"context"

	"github.com/dl-alexandre/gdmirror/internal/types"
)

// Remote is the view of the remote tree the engine works against.
// *api.Client satisfies it.
type Remote interface {
	ListChildren(ctx context.Context, containerID string) ([]types.RemoteItem, error)
	FetchMetadata(ctx context.Context, itemID string) (types.RemoteItemMetadata, error)
	FetchBytes(ctx context.Context, itemID string) ([]byte, error)
	ExportDocument(ctx context.Context, itemID, mimeType string) ([]byte, error)
}
