package cli

import (
	"fmt"
	"os"

	"github.com/dl-alexandre/gdmirror/internal/auth"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Service account key management",
	Long:  "Store service account keys in the system keyring and check credentials",
}

var authImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store a service account key",
	Long: `Store a service account key under a profile name. The key is read from a
JSON key file, or from an email plus a private key taken from an environment
variable. Reference the profile with credentials.keyring_profile.`,
	Args: cobra.NoArgs,
	RunE: runAuthImport,
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete a stored service account key",
	Long:  "Delete the service account key stored under a profile name",
	Args:  cobra.NoArgs,
	RunE:  runAuthRemove,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the configured credentials",
	Long:  "Resolve the configured credentials and request an access token",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var (
	authKeyFile       string
	authClientEmail   string
	authPrivateKeyEnv string
)

func init() {
	authCmd.PersistentFlags().StringVar(&globalFlags.Profile, "profile", "default", "Key profile name")
	authImportCmd.Flags().StringVar(&authKeyFile, "key-file", "", "Path to a service account JSON key")
	authImportCmd.Flags().StringVar(&authClientEmail, "client-email", "", "Service account email for an inline key")
	authImportCmd.Flags().StringVar(&authPrivateKeyEnv, "private-key-env", "GDMIRROR_PRIVATE_KEY", "Environment variable holding the inline private key")

	authCmd.AddCommand(authImportCmd)
	authCmd.AddCommand(authRemoveCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthImport(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	key, err := importedKey()
	if err != nil {
		return out.WriteError("auth.import", err)
	}

	mgr := auth.NewManager(getConfigDir())
	if warning := mgr.GetStorageWarning(); warning != "" {
		out.Log("%s", warning)
	}
	if err := mgr.ImportKey(flags.Profile, key); err != nil {
		return out.WriteError("auth.import", err)
	}

	out.Log("Key for %s stored in profile: %s", key.ClientEmail, flags.Profile)
	return out.WriteSuccess("auth.import", map[string]interface{}{
		"profile":        flags.Profile,
		"clientEmail":    key.ClientEmail,
		"storageBackend": mgr.GetStorageBackend(),
	})
}

func importedKey() (*auth.ServiceAccountKey, error) {
	switch {
	case authKeyFile != "" && authClientEmail != "":
		return nil, invalidArgument("--key-file and --client-email are mutually exclusive")
	case authKeyFile != "":
		key, err := auth.LoadKeyFile(authKeyFile)
		if err != nil {
			return nil, invalidArgument(err.Error())
		}
		return key, nil
	case authClientEmail != "":
		privateKey := os.Getenv(authPrivateKeyEnv)
		if privateKey == "" {
			return nil, invalidArgument(fmt.Sprintf("environment variable %s is empty", authPrivateKeyEnv))
		}
		return auth.NewInlineKey(authClientEmail, privateKey), nil
	default:
		return nil, invalidArgument("one of --key-file or --client-email is required")
	}
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	mgr := auth.NewManager(getConfigDir())
	if err := mgr.RemoveKey(flags.Profile); err != nil {
		return out.WriteError("auth.remove", err)
	}

	out.Log("Key removed for profile: %s", flags.Profile)
	return out.WriteSuccess("auth.remove", map[string]interface{}{
		"profile": flags.Profile,
		"status":  "removed",
	})
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return out.WriteError("auth.status", err)
	}
	out = outputFor(cfg, out)

	mgr := auth.NewManager(getConfigDir())
	key, err := mgr.ResolveKey(cfg.Credentials)
	if err != nil {
		return out.WriteError("auth.status", err)
	}
	creds, err := mgr.Credentials(cmd.Context(), key)
	if err != nil {
		return out.WriteError("auth.status", err)
	}

	status := map[string]interface{}{
		"clientEmail":    key.ClientEmail,
		"authenticated":  true,
		"storageBackend": mgr.GetStorageBackend(),
	}
	token, err := creds.TokenSource.Token()
	if err != nil {
		status["authenticated"] = false
		status["error"] = err.Error()
	} else {
		status["expiry"] = token.Expiry.Format("2006-01-02T15:04:05Z07:00")
	}
	return out.WriteSuccess("auth.status", status)
}
