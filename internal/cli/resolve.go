package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dl-alexandre/gdmirror/internal/api"
	"github.com/dl-alexandre/gdmirror/internal/config"
	"github.com/dl-alexandre/gdmirror/internal/mirror"
	"github.com/dl-alexandre/gdmirror/internal/naming"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <item-id>",
	Short: "Show the local filenames of a Drive item",
	Long: `Print the current (hashed) and legacy filenames an item is mirrored to.

With --name the item is resolved offline; otherwise its name and type are
fetched from Drive. With --dir the local cache state is reported too.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var (
	resolveName     string
	resolveMimeType string
	resolveDir      string
	resolveExport   string
)

func init() {
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "Item display name (skips the Drive lookup)")
	resolveCmd.Flags().StringVar(&resolveMimeType, "mime-type", "", "Item MIME type when --name is given")
	resolveCmd.Flags().StringVar(&resolveDir, "dir", "", "Local directory to check for existing copies")
	resolveCmd.Flags().StringVar(&resolveExport, "export", "", "Export format for Google Docs (defaults to the configured one)")
	rootCmd.AddCommand(resolveCmd)
}

// Resolution is the result of the resolve command
type Resolution struct {
	Item        types.RemoteItem  `json:"item"`
	Current     string            `json:"current"`
	Legacy      string            `json:"legacy"`
	Target      *types.SyncTarget `json:"target,omitempty"`
	CacheState  string            `json:"cacheState,omitempty"`
	CurrentPath string            `json:"currentPath,omitempty"`
	LegacyPath  string            `json:"legacyPath,omitempty"`
}

func (r *Resolution) AsTableRenderer() types.TableRenderer {
	return r
}

func (r *Resolution) Headers() []string {
	return []string{"Field", "Value"}
}

func (r *Resolution) Rows() [][]string {
	rows := [][]string{
		{"ID", r.Item.ID},
		{"Name", r.Item.Name},
		{"Kind", string(r.Item.Kind)},
		{"Current", r.Current},
		{"Legacy", r.Legacy},
	}
	if r.Target != nil {
		rows = append(rows,
			[]string{"Current Path", r.CurrentPath},
			[]string{"Legacy Path", r.LegacyPath},
			[]string{"Cache", r.CacheState},
		)
	}
	return rows
}

func (r *Resolution) EmptyMessage() string {
	return ""
}

func runResolve(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return out.WriteError("resolve", err)
	}
	out = outputFor(cfg, out)

	item := types.RemoteItem{
		ID:       args[0],
		Name:     resolveName,
		MimeType: resolveMimeType,
		Kind:     api.ClassifyMimeType(resolveMimeType),
	}
	if resolveName == "" {
		if err := cfg.ValidateAccess(); err != nil {
			return out.WriteError("resolve", err)
		}
		client, err := newAPIClient(cmd.Context(), cfg, out)
		if err != nil {
			return out.WriteError("resolve", err)
		}
		item, err = client.GetItem(cmd.Context(), args[0])
		if err != nil {
			return out.WriteError("resolve", err)
		}
	}

	res, err := resolveItem(afero.NewOsFs(), cfg, item, resolveExport, resolveDir)
	if err != nil {
		return out.WriteError("resolve", err)
	}
	return out.WriteSuccess("resolve", res)
}

func resolveItem(fs afero.Fs, cfg *config.Config, item types.RemoteItem, export, dir string) (*Resolution, error) {
	if export == "" {
		export = cfg.ExportMimeType()
	}
	exportMime := utils.ResolveExportMimeType(export)

	if item.IsContainer() || item.Kind == types.KindUnsupported {
		return nil, invalidArgument(fmt.Sprintf("item %s is a %s and is not mirrored as a file", item.ID, item.Kind))
	}

	names, err := naming.Resolve(item, exportMime)
	if err != nil {
		return nil, err
	}
	res := &Resolution{Item: item, Current: names.Current, Legacy: names.Legacy}
	if dir == "" {
		return res, nil
	}

	target, err := naming.Target(filepath.Clean(dir), item, exportMime)
	if err != nil {
		return nil, err
	}
	state, err := mirror.LookupCache(fs, target)
	if err != nil {
		return nil, err
	}
	res.Target = &target
	res.CurrentPath = target.CurrentPath()
	res.LegacyPath = target.LegacyPath()
	res.CacheState = state.String()
	return res, nil
}
