package cli

import (
	"fmt"

	"github.com/dl-alexandre/gdmirror/internal/config"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  "Commands for inspecting and creating gdmirror configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective configuration after file, environment and defaults are merged",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long:  "Check that the configuration has everything a sync run needs",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long:  "Write the default configuration to --config or the default config path",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var (
	configInitRoot  string
	configInitDest  string
	configInitForce bool
)

func init() {
	configInitCmd.Flags().StringVar(&configInitRoot, "root", "", "Root folder ID to mirror")
	configInitCmd.Flags().StringVar(&configInitDest, "dest", "", "Local destination directory")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return out.WriteError("config.show", err)
	}

	// private_key is never printed (json:"-")
	return out.WriteSuccess("config.show", cfg)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return out.WriteError("config.validate", err)
	}
	if err := cfg.Validate(); err != nil {
		return out.WriteError("config.validate", err)
	}

	out.Log("Configuration is valid")
	return out.WriteSuccess("config.validate", map[string]interface{}{
		"valid":          true,
		"rootFolderId":   cfg.RootFolderID,
		"destination":    cfg.Destination,
		"exportMimeType": cfg.ExportMimeType(),
	})
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	path := flags.Config
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return out.WriteError("config.init", utils.NewConfigError("failed to locate config file", err))
		}
	}

	path, err := initConfigFile(path, configInitRoot, configInitDest, configInitForce)
	if err != nil {
		return out.WriteError("config.init", err)
	}

	out.Log("Configuration written to %s", path)
	return out.WriteSuccess("config.init", map[string]interface{}{
		"path": path,
	})
}

func initConfigFile(path, root, dest string, force bool) (string, error) {
	if !force && fileExists(path) {
		return "", invalidArgument(fmt.Sprintf("%s already exists; pass --force to overwrite", path))
	}

	cfg := config.DefaultConfig()
	cfg.RootFolderID = root
	cfg.Destination = dest
	if err := cfg.Save(path); err != nil {
		return "", utils.NewIOError("write config", path, err)
	}
	return path, nil
}
