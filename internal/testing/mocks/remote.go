package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"google.golang.org/api/googleapi"
)

// Remote is an in-memory remote tree with call counters. The *Func hooks
// override the default behavior when set.
type Remote struct {
	mu       sync.RWMutex
	children map[string][]types.RemoteItem
	content  map[string][]byte
	metadata map[string]types.RemoteItemMetadata

	ListChildrenFunc   func(ctx context.Context, containerID string) ([]types.RemoteItem, error)
	FetchMetadataFunc  func(ctx context.Context, itemID string) (types.RemoteItemMetadata, error)
	FetchBytesFunc     func(ctx context.Context, itemID string) ([]byte, error)
	ExportDocumentFunc func(ctx context.Context, itemID, mimeType string) ([]byte, error)

	// Delay is added to every call, to make overlap observable
	Delay time.Duration

	ListCalls     atomic.Int64
	MetadataCalls atomic.Int64
	BytesCalls    atomic.Int64
	ExportCalls   atomic.Int64

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

// NewRemote creates an empty remote tree
func NewRemote() *Remote {
	return &Remote{
		children: make(map[string][]types.RemoteItem),
		content:  make(map[string][]byte),
		metadata: make(map[string]types.RemoteItemMetadata),
	}
}

// AddFolder adds a folder under parentID
func (r *Remote) AddFolder(parentID, id, name string) *Remote {
	return r.add(parentID, types.RemoteItem{ID: id, Name: name, Kind: types.KindContainer, MimeType: utils.MimeTypeFolder}, nil)
}

// AddFile adds a regular file under parentID
func (r *Remote) AddFile(parentID, id, name string, content []byte) *Remote {
	return r.add(parentID, types.RemoteItem{ID: id, Name: name, Kind: types.KindLeaf, MimeType: "application/octet-stream"}, content)
}

// AddDocument adds a native document whose export returns content
func (r *Remote) AddDocument(parentID, id, name string, content []byte) *Remote {
	return r.add(parentID, types.RemoteItem{ID: id, Name: name, Kind: types.KindRichDocument, MimeType: utils.MimeTypeDocument}, content)
}

// AddItem adds an arbitrary listing entry
func (r *Remote) AddItem(parentID string, item types.RemoteItem, content []byte) *Remote {
	return r.add(parentID, item, content)
}

func (r *Remote) add(parentID string, item types.RemoteItem, content []byte) *Remote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.children[parentID] = append(r.children[parentID], item)
	if content != nil {
		r.content[item.ID] = content
	}
	if _, ok := r.metadata[item.ID]; !ok {
		r.metadata[item.ID] = types.RemoteItemMetadata{
			ID:             item.ID,
			Name:           item.Name,
			CreatedTime:    "2024-01-01T00:00:00Z",
			WebContentLink: "https://drive.google.com/uc?id=" + item.ID + "&export=download",
		}
	}
	return r
}

// MaxInFlight is the highest number of calls observed running at once
func (r *Remote) MaxInFlight() int64 {
	return r.maxInFlight.Load()
}

// ContentCalls counts downloads and exports together
func (r *Remote) ContentCalls() int64 {
	return r.BytesCalls.Load() + r.ExportCalls.Load()
}

// ResetCounters zeroes every call counter
func (r *Remote) ResetCounters() {
	r.ListCalls.Store(0)
	r.MetadataCalls.Store(0)
	r.BytesCalls.Store(0)
	r.ExportCalls.Store(0)
	r.maxInFlight.Store(0)
}

func (r *Remote) enter(ctx context.Context) (func(), error) {
	n := r.inFlight.Add(1)
	for {
		max := r.maxInFlight.Load()
		if n <= max || r.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}
	done := func() { r.inFlight.Add(-1) }
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			done()
			return nil, ctx.Err()
		}
	}
	return done, nil
}

func notFound(id string) error {
	return &googleapi.Error{Code: 404, Message: fmt.Sprintf("File not found: %s", id)}
}

func (r *Remote) ListChildren(ctx context.Context, containerID string) ([]types.RemoteItem, error) {
	r.ListCalls.Add(1)
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	if r.ListChildrenFunc != nil {
		return r.ListChildrenFunc(ctx, containerID)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.RemoteItem(nil), r.children[containerID]...), nil
}

func (r *Remote) FetchMetadata(ctx context.Context, itemID string) (types.RemoteItemMetadata, error) {
	r.MetadataCalls.Add(1)
	done, err := r.enter(ctx)
	if err != nil {
		return types.RemoteItemMetadata{}, err
	}
	defer done()
	if r.FetchMetadataFunc != nil {
		return r.FetchMetadataFunc(ctx, itemID)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	md, ok := r.metadata[itemID]
	if !ok {
		return types.RemoteItemMetadata{}, notFound(itemID)
	}
	return md, nil
}

func (r *Remote) FetchBytes(ctx context.Context, itemID string) ([]byte, error) {
	r.BytesCalls.Add(1)
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	if r.FetchBytesFunc != nil {
		return r.FetchBytesFunc(ctx, itemID)
	}
	return r.lookupContent(itemID)
}

func (r *Remote) ExportDocument(ctx context.Context, itemID, mimeType string) ([]byte, error) {
	r.ExportCalls.Add(1)
	done, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	if r.ExportDocumentFunc != nil {
		return r.ExportDocumentFunc(ctx, itemID, mimeType)
	}
	return r.lookupContent(itemID)
}

func (r *Remote) lookupContent(itemID string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.content[itemID]
	if !ok {
		return nil, notFound(itemID)
	}
	return append([]byte(nil), data...), nil
}
