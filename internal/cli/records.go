package cli

import (
	"github.com/dl-alexandre/gdmirror/internal/registry"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Show records stored in the SQLite index",
	Long:  "List the records upserted into the index by earlier sync runs",
	Args:  cobra.NoArgs,
	RunE:  runRecords,
}

var recordsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent sync runs",
	Long:  "List the most recent sync runs recorded in the index",
	Args:  cobra.NoArgs,
	RunE:  runRecordsRuns,
}

var (
	recordsIndex string
	recordsRunID string
	recordsLimit int
)

func init() {
	recordsCmd.PersistentFlags().StringVar(&recordsIndex, "index", "", "SQLite index path (defaults to registry.index in config)")
	recordsCmd.Flags().StringVar(&recordsRunID, "run", "", "Only records last written by this run")
	recordsRunsCmd.Flags().IntVar(&recordsLimit, "limit", 20, "Maximum number of runs to show")
	recordsCmd.AddCommand(recordsRunsCmd)
	rootCmd.AddCommand(recordsCmd)
}

func openRecordsIndex(out *OutputWriter) (*registry.Index, *OutputWriter, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, out, err
	}
	out = outputFor(cfg, out)

	path := recordsIndex
	if path == "" {
		path = cfg.Registry.Index
	}
	if path == "" {
		return nil, out, utils.NewConfigError("no index configured; set registry.index or pass --index", nil)
	}
	index, err := registry.OpenIndex(path)
	if err != nil {
		return nil, out, utils.NewIOError("open index", path, err)
	}
	return index, out, nil
}

func runRecords(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	index, out, err := openRecordsIndex(out)
	if err != nil {
		return out.WriteError("records", err)
	}
	defer index.Close()

	records, err := index.ListRecords(cmd.Context(), recordsRunID)
	if err != nil {
		return out.WriteError("records", err)
	}
	return out.WriteSuccess("records", types.SyncedRecordList(records))
}

func runRecordsRuns(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	index, out, err := openRecordsIndex(out)
	if err != nil {
		return out.WriteError("records.runs", err)
	}
	defer index.Close()

	runs, err := index.ListRuns(cmd.Context(), recordsLimit)
	if err != nil {
		return out.WriteError("records.runs", err)
	}
	return out.WriteSuccess("records.runs", registry.RunList(runs))
}
