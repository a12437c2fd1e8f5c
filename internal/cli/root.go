package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dl-alexandre/gdmirror/internal/api"
	"github.com/dl-alexandre/gdmirror/internal/auth"
	"github.com/dl-alexandre/gdmirror/internal/config"
	"github.com/dl-alexandre/gdmirror/internal/logging"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/dl-alexandre/gdmirror/pkg/version"
	"github.com/spf13/cobra"
)

var (
	globalFlags types.GlobalFlags
	logger      logging.Logger = logging.NewNoOpLogger()
)

var rootCmd = &cobra.Command{
	Use:   "gdmirror",
	Short: "Mirror a Google Drive folder tree to local disk",
	Long: `gdmirror copies every file below a Google Drive folder into a local
directory and records each synced file.

Runs are idempotent: files already on disk are reused, so an interrupted
run is resumed by running it again.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateGlobalFlags(); err != nil {
			return err
		}

		logConfig := newLogConfig(globalFlags)

		var err error
		logger, err = logging.NewLogger(logConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "Print the version, commit and build information of gdmirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := GetGlobalFlags()
		out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
		if flags.OutputFormat == types.OutputFormatTable {
			out.Print("%s", version.Get().String())
			return nil
		}
		return out.WriteSuccess("version", version.Get())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.Config, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar((*string)(&globalFlags.OutputFormat), "output", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Debug, "debug", false, "Log every Drive request and response")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "Output in JSON format (alias for --output json)")

	rootCmd.AddCommand(versionCmd)
}

func validateGlobalFlags() error {
	// Handle --json flag as alias for --output json
	if globalFlags.JSON {
		globalFlags.OutputFormat = types.OutputFormatJSON
	}

	if globalFlags.OutputFormat != types.OutputFormatJSON && globalFlags.OutputFormat != types.OutputFormatTable {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
			fmt.Sprintf("invalid output format: %s", globalFlags.OutputFormat)).Build())
	}
	return nil
}

// Execute runs the root command and exits with the code of the failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(utils.GetExitCode(utils.ErrorCode(err)))
	}
}

// newLogConfig derives logger settings from the global flags. JSON output
// keeps stderr quiet unless verbose or debug logging was asked for.
func newLogConfig(flags types.GlobalFlags) logging.LogConfig {
	config := logging.DefaultLogConfig()
	config.OutputFile = flags.LogFile
	config.EnableConsole = !flags.Quiet
	if flags.Verbose || flags.Debug {
		config.Level = logging.DEBUG
	}
	if flags.OutputFormat == types.OutputFormatJSON && !flags.Verbose && !flags.Debug {
		config.EnableConsole = false
	}
	return config
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() types.GlobalFlags {
	return globalFlags
}

// GetLogger returns the global logger
func GetLogger() logging.Logger {
	return logger
}

func getConfigDir() string {
	dir, err := config.GetConfigDir()
	if err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gdmirror")
}

// loadConfig reads the config file named by --config (or the default one)
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.Config)
}

// newAPIClient authenticates with the configured credentials and returns a
// retrying Drive client
func newAPIClient(ctx context.Context, cfg *config.Config, out *OutputWriter) (*api.Client, error) {
	mgr := auth.NewManager(getConfigDir())
	if warning := mgr.GetStorageWarning(); warning != "" && cfg.Credentials.KeyringProfile != "" {
		out.Verbose("%s", warning)
	}

	key, err := mgr.ResolveKey(cfg.Credentials)
	if err != nil {
		return nil, err
	}
	creds, err := mgr.Credentials(ctx, key)
	if err != nil {
		return nil, err
	}
	svc, err := mgr.GetDriveService(ctx, creds, logger, globalFlags.Debug)
	if err != nil {
		return nil, err
	}

	backoff := api.Backoff{
		Policy:    cfg.Retry.Policy,
		BaseDelay: cfg.GetRetryDelay(),
		MaxDelay:  cfg.GetMaxRetryDelay(),
	}
	return api.NewClient(svc, backoff, logger), nil
}

// outputFor returns a writer in the config's output format unless the
// format was chosen on the command line
func outputFor(cfg *config.Config, current *OutputWriter) *OutputWriter {
	flags := GetGlobalFlags()
	if cfg == nil || cfg.Output == "" || flags.JSON || rootCmd.PersistentFlags().Changed("output") {
		return current
	}
	out := NewOutputWriter(cfg.Output, flags.Quiet, flags.Verbose)
	out.SetWriters(current.stdout, current.stderr)
	return out
}

func invalidArgument(message string) error {
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument, message).Build())
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
