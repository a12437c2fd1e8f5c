package cli

import (
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [folder-id]",
	Short: "List the children of a Drive folder",
	Long: `List every child of a folder as the mirror sees it, following all pages.
Without an argument the configured root folder is listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return out.WriteError("ls", err)
	}
	out = outputFor(cfg, out)
	if err := cfg.ValidateAccess(); err != nil {
		return out.WriteError("ls", err)
	}

	folderID := cfg.RootFolderID
	if len(args) == 1 {
		folderID = args[0]
	}
	if folderID == "" {
		return out.WriteError("ls", invalidArgument("folder ID is required (argument or root_folder_id in config)"))
	}

	client, err := newAPIClient(cmd.Context(), cfg, out)
	if err != nil {
		return out.WriteError("ls", err)
	}

	list, err := client.ListFolder(cmd.Context(), folderID)
	if err != nil {
		return out.WriteError("ls", err)
	}
	out.Verbose("%d items in %d pages", len(list.Items), list.Pages)
	return out.WriteSuccess("ls", list)
}
