// Package mirror copies a remote folder tree into a local directory.
//
// Each run walks the tree from a root folder, fanning out over every child.
// Folders become local directories; files and exported documents are
// written under identity-derived names. A file already present locally is
// never fetched again, which makes runs idempotent and lets an interrupted
// run resume by simply running again.
package mirror

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dl-alexandre/gdmirror/internal/logging"
	"github.com/dl-alexandre/gdmirror/internal/naming"
	"github.com/dl-alexandre/gdmirror/internal/registry"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Options configures an Engine
type Options struct {
	// Destination is the local directory the root folder maps to
	Destination string
	// IncludeDocuments exports native documents; when false they are skipped
	IncludeDocuments bool
	// ExportMimeType is the encoding documents are exported to
	ExportMimeType string
	// Transform is applied to exported document bytes; nil means identity
	Transform Transform
	// Concurrency bounds simultaneous remote operations; 0 is unbounded
	Concurrency int
	// Exclude lists patterns of remote paths to leave out
	Exclude []string
}

// Result summarizes a completed run
type Result struct {
	RootID      string               `json:"rootId"`
	Destination string               `json:"destination"`
	Records     []types.SyncedRecord `json:"records"`
	Downloaded  int                  `json:"downloaded"`
	Cached      int                  `json:"cached"`
	Migrated    int                  `json:"migrated"`
	Skipped     int                  `json:"skipped"`
	Duration    time.Duration        `json:"duration"`
}

// Engine mirrors a remote tree. An Engine runs one mirror at a time.
type Engine struct {
	remote  Remote
	sink    registry.Sink
	fs      afero.Fs
	opts    Options
	logger  logging.Logger
	exclude *Matcher
	sem     *semaphore.Weighted

	// serializes cache lookup and migration so two items sharing a legacy
	// name cannot both claim the same file
	migrateMu sync.Mutex

	downloaded atomic.Int64
	cached     atomic.Int64
	migrated   atomic.Int64
	skipped    atomic.Int64
}

// Option customizes an Engine
type Option func(*Engine)

// WithFs replaces the local filesystem (the OS filesystem by default)
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) { e.fs = fs }
}

// WithLogger sets the engine logger
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine validates opts and creates an engine
func NewEngine(remote Remote, sink registry.Sink, opts Options, options ...Option) (*Engine, error) {
	if remote == nil {
		return nil, fmt.Errorf("mirror: remote is required")
	}
	if opts.Destination == "" {
		return nil, utils.NewConfigError("destination directory is required", nil)
	}
	if opts.Concurrency < 0 {
		return nil, utils.NewConfigError(fmt.Sprintf("concurrency must not be negative, got %d", opts.Concurrency), nil)
	}
	if opts.ExportMimeType == "" {
		opts.ExportMimeType = utils.DefaultExportMimeType
	}
	if opts.IncludeDocuments {
		if _, err := naming.ExtensionFor(opts.ExportMimeType); err != nil {
			return nil, err
		}
	}
	if opts.Transform == nil {
		opts.Transform = IdentityTransform
	}
	if sink == nil {
		sink = registry.NewCollector()
	}

	e := &Engine{
		remote:  remote,
		sink:    sink,
		fs:      afero.NewOsFs(),
		opts:    opts,
		logger:  logging.NewNoOpLogger(),
		exclude: NewMatcher(opts.Exclude),
	}
	if opts.Concurrency > 0 {
		e.sem = semaphore.NewWeighted(int64(opts.Concurrency))
	}
	for _, o := range options {
		o(e)
	}
	return e, nil
}

// Run mirrors the tree under rootID into the destination directory
func (e *Engine) Run(ctx context.Context, rootID string) (*Result, error) {
	start := time.Now()
	e.reset()

	e.logger.Info("Mirror run starting",
		logging.F("rootId", rootID),
		logging.F("destination", e.opts.Destination),
		logging.F("concurrency", e.opts.Concurrency),
		logging.F("includeDocuments", e.opts.IncludeDocuments),
	)

	if err := e.fs.MkdirAll(e.opts.Destination, 0755); err != nil {
		return nil, utils.NewIOError("create destination", e.opts.Destination, err)
	}

	var items []types.RemoteItem
	err := e.remoteOp(ctx, func(ctx context.Context) error {
		var err error
		items, err = e.remote.ListChildren(ctx, rootID)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, utils.WrapAppError(utils.NewCLIError(utils.ErrCodeConfigInvalid,
			fmt.Sprintf("Root folder %s is not reachable: %s", rootID, err)).
			WithContext("rootId", rootID).
			WithContext("suggestedAction", "check the folder ID and that it is shared with the service account").
			Build(), err)
	}

	records, err := e.Sync(ctx, items, e.opts.Destination)
	if err != nil {
		e.logger.Error("Mirror run failed",
			logging.F("rootId", rootID),
			logging.F("error", err.Error()),
			logging.F("downloaded", e.downloaded.Load()),
			logging.F("cached", e.cached.Load()),
		)
		return nil, err
	}

	result := &Result{
		RootID:      rootID,
		Destination: e.opts.Destination,
		Records:     records,
		Downloaded:  int(e.downloaded.Load()),
		Cached:      int(e.cached.Load()),
		Migrated:    int(e.migrated.Load()),
		Skipped:     int(e.skipped.Load()),
		Duration:    time.Since(start),
	}

	e.logger.Info("Mirror run completed",
		logging.F("rootId", rootID),
		logging.F("records", len(records)),
		logging.F("downloaded", result.Downloaded),
		logging.F("cached", result.Cached),
		logging.F("migrated", result.Migrated),
		logging.F("skipped", result.Skipped),
		logging.F("duration_ms", result.Duration.Milliseconds()),
	)
	return result, nil
}

// Sync mirrors items into dir, recursing into folders. Records come back in
// listing order, with a folder's records in place of the folder. The first
// failure cancels all outstanding work and is returned. Each call registers
// every reachable item once, so calling Sync again re-registers the tree.
func (e *Engine) Sync(ctx context.Context, items []types.RemoteItem, dir string) ([]types.SyncedRecord, error) {
	return e.syncDir(ctx, newClaimSet(), items, dir, "")
}

func (e *Engine) syncDir(ctx context.Context, claims *claimSet, items []types.RemoteItem, dir, rel string) ([]types.SyncedRecord, error) {
	selected := e.selectItems(items, rel)
	slots := make([][]types.SyncedRecord, len(selected))

	g, gctx := errgroup.WithContext(ctx)

	for i, item := range selected {
		itemRel := path.Join(rel, item.Name)

		if item.IsContainer() {
			childDir := filepath.Join(dir, naming.SanitizeName(item.Name))
			if err := e.fs.MkdirAll(childDir, 0755); err != nil {
				ioErr := utils.NewIOError("create directory", childDir, err)
				g.Go(func() error { return ioErr })
				break
			}
			g.Go(func() error {
				records, err := e.syncContainer(gctx, claims, item, childDir, itemRel)
				slots[i] = records
				return err
			})
			continue
		}

		g.Go(func() error {
			record, err := e.syncLeaf(gctx, claims, item, dir, itemRel)
			if record != nil {
				slots[i] = []types.SyncedRecord{*record}
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.SyncedRecord
	for _, s := range slots {
		out = append(out, s...)
	}
	return out, nil
}

func (e *Engine) syncContainer(ctx context.Context, claims *claimSet, item types.RemoteItem, dir, rel string) ([]types.SyncedRecord, error) {
	var children []types.RemoteItem
	err := e.remoteOp(ctx, func(ctx context.Context) error {
		var err error
		children, err = e.remote.ListChildren(ctx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Listed folder",
		logging.F("folderId", item.ID),
		logging.F("path", rel),
		logging.F("children", len(children)),
	)
	return e.syncDir(ctx, claims, children, dir, rel)
}

// selectItems drops what this run does not mirror
func (e *Engine) selectItems(items []types.RemoteItem, rel string) []types.RemoteItem {
	selected := make([]types.RemoteItem, 0, len(items))
	for _, item := range items {
		itemRel := path.Join(rel, item.Name)
		switch {
		case item.Kind == types.KindUnsupported:
			e.logger.Debug("Skipping unsupported item",
				logging.F("itemId", item.ID),
				logging.F("path", itemRel),
				logging.F("mimeType", item.MimeType),
			)
		case item.Kind == types.KindRichDocument && !e.opts.IncludeDocuments:
			e.logger.Debug("Skipping document", logging.F("itemId", item.ID), logging.F("path", itemRel))
		case e.exclude.IsExcluded(itemRel, item.IsContainer()):
			e.logger.Debug("Skipping excluded item", logging.F("itemId", item.ID), logging.F("path", itemRel))
		default:
			selected = append(selected, item)
			continue
		}
		e.skipped.Add(1)
	}
	return selected
}

// syncLeaf runs the per-file protocol: metadata, cache decision, then
// download or export when needed, then registration.
func (e *Engine) syncLeaf(ctx context.Context, claims *claimSet, item types.RemoteItem, dir, rel string) (*types.SyncedRecord, error) {
	if first, ok := claims.claim(item.ID, rel); !ok {
		e.logger.Debug("Item already mirrored through another folder",
			logging.F("itemId", item.ID),
			logging.F("path", rel),
			logging.F("firstPath", first),
		)
		return nil, nil
	}

	target, err := naming.Target(dir, item, e.opts.ExportMimeType)
	if err != nil {
		return nil, err
	}

	var md types.RemoteItemMetadata
	err = e.remoteOp(ctx, func(ctx context.Context) error {
		var err error
		md, err = e.remote.FetchMetadata(ctx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	outcome, err := e.materialize(ctx, item, target)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := types.SyncedRecord{
		LocalPath:      target.CurrentPath(),
		Filename:       target.CurrentFilename,
		Name:           md.Name,
		RemoteID:       item.ID,
		CreatedTime:    md.CreatedTime,
		WebContentLink: md.WebContentLink,
		ContentDigest:  MetadataDigest(md),
		Outcome:        outcome,
	}
	if err := e.sink.Register(ctx, record); err != nil {
		return nil, err
	}

	switch outcome {
	case types.OutcomeDownloaded:
		e.downloaded.Add(1)
	case types.OutcomeCached:
		e.cached.Add(1)
	case types.OutcomeMigrated:
		e.migrated.Add(1)
	}

	e.logger.Debug("Synced item",
		logging.F("itemId", item.ID),
		logging.F("path", rel),
		logging.F("outcome", string(outcome)),
		logging.F("localPath", record.LocalPath),
	)
	return &record, nil
}

// materialize makes sure the leaf exists at its current path
func (e *Engine) materialize(ctx context.Context, item types.RemoteItem, target types.SyncTarget) (types.SyncOutcome, error) {
	e.migrateMu.Lock()
	state, err := LookupCache(e.fs, target)
	if err == nil && state == CacheMigrate {
		err = e.fs.Rename(target.LegacyPath(), target.CurrentPath())
		if err != nil {
			err = utils.NewIOError("rename", target.LegacyPath(), err)
		}
	}
	e.migrateMu.Unlock()
	if err != nil {
		return "", err
	}

	switch state {
	case CacheHit:
		return types.OutcomeCached, nil
	case CacheMigrate:
		e.logger.Info("Migrated legacy file",
			logging.F("itemId", item.ID),
			logging.F("from", target.LegacyPath()),
			logging.F("to", target.CurrentPath()),
		)
		return types.OutcomeMigrated, nil
	}

	data, err := e.fetchContent(ctx, item)
	if err != nil {
		return "", err
	}
	if err := writeFile(e.fs, target.CurrentPath(), data); err != nil {
		return "", err
	}
	return types.OutcomeDownloaded, nil
}

func (e *Engine) fetchContent(ctx context.Context, item types.RemoteItem) ([]byte, error) {
	var data []byte
	err := e.remoteOp(ctx, func(ctx context.Context) error {
		var err error
		if item.Kind == types.KindRichDocument {
			data, err = e.remote.ExportDocument(ctx, item.ID, e.opts.ExportMimeType)
		} else {
			data, err = e.remote.FetchBytes(ctx, item.ID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if item.Kind != types.KindRichDocument {
		return data, nil
	}

	out, err := e.opts.Transform(ctx, data)
	if err != nil {
		return nil, utils.WrapAppError(utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("Transform failed for %s: %s", item.ID, err)).
			WithContext("itemId", item.ID).
			Build(), err)
	}
	return out, nil
}

// remoteOp runs fn while holding a concurrency slot, if the engine is bounded
func (e *Engine) remoteOp(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer e.sem.Release(1)
	}
	return fn(ctx)
}

// claimSet tracks which items one Sync call has already taken on
type claimSet struct {
	mu    sync.Mutex
	paths map[string]string
}

func newClaimSet() *claimSet {
	return &claimSet{paths: make(map[string]string)}
}

// claim records that id is being mirrored at rel. It reports false and the
// first path when another branch already claimed the same item.
func (c *claimSet) claim(id, rel string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if first, ok := c.paths[id]; ok {
		return first, false
	}
	c.paths[id] = rel
	return rel, true
}

func (e *Engine) reset() {
	e.downloaded.Store(0)
	e.cached.Store(0)
	e.migrated.Store(0)
	e.skipped.Store(0)
}
