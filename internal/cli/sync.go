package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dl-alexandre/gdmirror/internal/config"
	"github.com/dl-alexandre/gdmirror/internal/logging"
	"github.com/dl-alexandre/gdmirror/internal/mirror"
	"github.com/dl-alexandre/gdmirror/internal/registry"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [root-folder-id]",
	Short: "Mirror a Drive folder tree to local disk",
	Long: `Mirror every file below the root folder into the destination directory.

Files already present locally are not downloaded again, and files written
under their display name by older versions are renamed in place. Each
synced file produces one record, written to the output and to the
configured manifest and index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

type syncOverrides struct {
	destination string
	concurrency int
	noDocuments bool
	exportMime  string
	transform   string
	exclude     []string
	retryPolicy string
	manifest    string
	index       string
}

var syncFlags syncOverrides

func init() {
	syncCmd.Flags().StringVarP(&syncFlags.destination, "dest", "d", "", "Local destination directory")
	syncCmd.Flags().IntVar(&syncFlags.concurrency, "concurrency", -1, "Maximum simultaneous Drive requests (0 = unbounded)")
	syncCmd.Flags().BoolVar(&syncFlags.noDocuments, "no-documents", false, "Skip Google Docs instead of exporting them")
	syncCmd.Flags().StringVar(&syncFlags.exportMime, "export", "", "Export format for Google Docs (MIME type or html, pdf, docx, ...)")
	syncCmd.Flags().StringVar(&syncFlags.transform, "transform", "", "Transform applied to exported documents (identity, normalize-newlines)")
	syncCmd.Flags().StringSliceVar(&syncFlags.exclude, "exclude", nil, "Remote path patterns to skip (repeatable)")
	syncCmd.Flags().StringVar(&syncFlags.retryPolicy, "retry-policy", "", "Wait policy for rate-limited requests (fixed, exponential)")
	syncCmd.Flags().StringVar(&syncFlags.manifest, "manifest", "", "Append records to this JSON Lines file")
	syncCmd.Flags().StringVar(&syncFlags.index, "index", "", "Upsert records into this SQLite database")
	rootCmd.AddCommand(syncCmd)
}

// apply overlays flags that were set onto cfg
func (o syncOverrides) apply(cmd *cobra.Command, cfg *config.Config, args []string) {
	if len(args) == 1 {
		cfg.RootFolderID = args[0]
	}
	if o.destination != "" {
		cfg.Destination = o.destination
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = o.concurrency
	}
	if o.noDocuments {
		cfg.Documents.Include = false
	}
	if o.exportMime != "" {
		cfg.Documents.ExportMimeType = o.exportMime
	}
	if o.transform != "" {
		cfg.Documents.Transform = o.transform
	}
	if len(o.exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, o.exclude...)
	}
	if o.retryPolicy != "" {
		cfg.Retry.Policy = o.retryPolicy
	}
	if o.manifest != "" {
		cfg.Registry.Manifest = o.manifest
	}
	if o.index != "" {
		cfg.Registry.Index = o.index
	}
}

// SyncReport is the result of the sync command
type SyncReport struct {
	RunID string `json:"runId"`
	*mirror.Result
}

func (r *SyncReport) AsTableRenderer() types.TableRenderer {
	return types.SyncedRecordList(r.Records).AsTableRenderer()
}

func runSync(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return out.WriteError("sync", err)
	}
	out = outputFor(cfg, out)
	syncFlags.apply(cmd, cfg, args)
	if err := cfg.Validate(); err != nil {
		return out.WriteError("sync", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runID := uuid.New().String()
	out.SetTraceID(runID)
	runLogger := logger.WithTraceID(runID)
	ctx = logging.ContextWithTraceID(ctx, runID)

	client, err := newAPIClient(ctx, cfg, out)
	if err != nil {
		return out.WriteError("sync", err)
	}

	sinks, err := openSinks(ctx, cfg, runID)
	if err != nil {
		return out.WriteError("sync", err)
	}
	defer func() {
		if cerr := sinks.Close(); cerr != nil {
			runLogger.Warn("Failed to close registration sinks", logging.F("error", cerr.Error()))
		}
	}()

	transform, err := mirror.LookupTransform(cfg.Documents.Transform)
	if err != nil {
		return out.WriteError("sync", utils.NewConfigError("invalid transform", err))
	}

	engine, err := mirror.NewEngine(client, sinks, mirror.Options{
		Destination:      cfg.Destination,
		IncludeDocuments: cfg.Documents.Include,
		ExportMimeType:   cfg.ExportMimeType(),
		Transform:        transform,
		Concurrency:      cfg.Concurrency,
		Exclude:          cfg.Exclude,
	}, mirror.WithFs(afero.NewOsFs()), mirror.WithLogger(runLogger))
	if err != nil {
		return out.WriteError("sync", err)
	}

	if err := sinks.startRun(ctx, cfg); err != nil {
		return out.WriteError("sync", err)
	}

	result, runErr := engine.Run(ctx, cfg.RootFolderID)
	if err := sinks.finishRun(result, runErr); err != nil {
		runLogger.Warn("Failed to record run in index", logging.F("error", err.Error()))
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || utils.ErrorCode(runErr) == utils.ErrCodeCancelled {
			out.Log("Mirror interrupted.")
		}
		out.Log("Files already written to %s are kept; run the same command again to resume.", cfg.Destination)
		return out.WriteError("sync", runErr)
	}

	out.Log("Synced %d files (%d downloaded, %d cached, %d migrated, %d skipped) in %s",
		len(result.Records), result.Downloaded, result.Cached, result.Migrated, result.Skipped,
		result.Duration.Round(time.Millisecond))
	return out.WriteSuccess("sync", &SyncReport{RunID: runID, Result: result})
}

// runSinks fans records out to the configured manifest and index and keeps
// the index's run bookkeeping
type runSinks struct {
	*registry.Multi
	manifest *registry.Manifest
	index    *registry.Index
	run      registry.Run
}

func openSinks(ctx context.Context, cfg *config.Config, runID string) (*runSinks, error) {
	s := &runSinks{run: registry.Run{ID: runID}}

	var sinks []registry.Sink
	if cfg.Registry.Manifest != "" {
		manifest, err := registry.OpenManifest(afero.NewOsFs(), cfg.Registry.Manifest)
		if err != nil {
			return nil, utils.NewIOError("open manifest", cfg.Registry.Manifest, err)
		}
		s.manifest = manifest
		sinks = append(sinks, manifest)
	}
	if cfg.Registry.Index != "" {
		index, err := registry.OpenIndex(cfg.Registry.Index)
		if err != nil {
			if s.manifest != nil {
				_ = s.manifest.Close()
			}
			return nil, utils.NewIOError("open index", cfg.Registry.Index, err)
		}
		s.index = index
		sinks = append(sinks, index.RunSink(runID))
	}

	s.Multi = registry.NewMulti(sinks...)
	return s, nil
}

func (s *runSinks) startRun(ctx context.Context, cfg *config.Config) error {
	if s.index == nil {
		return nil
	}
	s.run.RootID = cfg.RootFolderID
	s.run.Destination = cfg.Destination
	s.run.StartedAt = time.Now()
	if err := s.index.StartRun(ctx, s.run); err != nil {
		return utils.NewIOError("record run", cfg.Registry.Index, err)
	}
	return nil
}

// finishRun uses a fresh context so an interrupted run is still recorded
func (s *runSinks) finishRun(result *mirror.Result, runErr error) error {
	if s.index == nil {
		return nil
	}
	s.run.Status = registry.RunStatusCompleted
	if result != nil {
		s.run.Downloaded = result.Downloaded
		s.run.Cached = result.Cached
		s.run.Migrated = result.Migrated
	}
	if runErr != nil {
		s.run.Status = registry.RunStatusFailed
		s.run.Error = runErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.index.FinishRun(ctx, s.run)
}

func (s *runSinks) Close() error {
	var errs []error
	if s.manifest != nil {
		errs = append(errs, s.manifest.Close())
	}
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	return errors.Join(errs...)
}
