package cli

import (
	"sort"

	"github.com/dl-alexandre/gdmirror/internal/mirror"
	"github.com/dl-alexandre/gdmirror/internal/naming"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/dl-alexandre/gdmirror/pkg/version"
	"github.com/spf13/cobra"
)

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Display supported export formats, transforms and retry policies",
	Long:  "List the values accepted by the documents and retry settings",
	Args:  cobra.NoArgs,
	RunE:  runAbout,
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}

func runAbout(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	return out.WriteSuccess("about", capabilities())
}

func capabilities() map[string]interface{} {
	formats := make([]string, 0, len(utils.FormatMappings))
	for name := range utils.FormatMappings {
		formats = append(formats, name)
	}
	sort.Strings(formats)

	return map[string]interface{}{
		"version":         version.Get(),
		"exportMimeTypes": naming.SupportedExportTypes(),
		"exportFormats":   formats,
		"transforms":      mirror.TransformNames(),
		"retryPolicies":   []string{utils.RetryPolicyFixed, utils.RetryPolicyExponential},
		"scopes":          []string{utils.ScopeReadonly},
		"outputFormats":   []string{"json", "table"},
	}
}
