// Package naming derives the local filenames a remote item is stored under.
//
// Every item has two candidate names. The current name is derived from the
// item's identity and cannot collide between distinct items. The legacy name
// is what earlier releases wrote (the display name) and is only consulted so
// existing mirrors can be migrated in place.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
)

// Names holds the two candidate filenames of one item
type Names struct {
	Current string `json:"current"`
	Legacy  string `json:"legacy"`
}

var exportExtensions = map[string]string{
	"text/html":       ".html",
	"application/zip": ".zip",
	"text/plain":      ".txt",
	"application/rtf": ".rtf",
	"application/vnd.oasis.opendocument.text": ".odt",
	"application/pdf":                         ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/epub+zip": ".epub",
}

// ExtensionFor returns the file extension for an export encoding
func ExtensionFor(mimeType string) (string, error) {
	ext, ok := exportExtensions[mimeType]
	if !ok {
		return "", utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidMimeType,
			fmt.Sprintf("Unsupported export MIME type: %s", mimeType)).
			WithContext("supported", SupportedExportTypes()).
			Build())
	}
	return ext, nil
}

// SupportedExportTypes lists the encodings documents can be exported to
func SupportedExportTypes() []string {
	out := make([]string, 0, len(exportExtensions))
	for mime := range exportExtensions {
		out = append(out, mime)
	}
	sort.Strings(out)
	return out
}

// IdentityHash is the hex SHA-256 of an item ID
func IdentityHash(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

// Resolve computes the current and legacy filenames for item. exportMime is
// only consulted for rich documents.
func Resolve(item types.RemoteItem, exportMime string) (Names, error) {
	name := SanitizeName(item.Name)

	if item.Kind == types.KindRichDocument {
		ext, err := ExtensionFor(exportMime)
		if err != nil {
			return Names{}, err
		}
		return Names{
			Current: IdentityHash(item.ID) + ext,
			Legacy:  name + ext,
		}, nil
	}

	return Names{
		Current: IdentityHash(item.ID) + filepath.Ext(name),
		Legacy:  name,
	}, nil
}

// Target places the resolved names of item inside dir
func Target(dir string, item types.RemoteItem, exportMime string) (types.SyncTarget, error) {
	names, err := Resolve(item, exportMime)
	if err != nil {
		return types.SyncTarget{}, err
	}
	return types.SyncTarget{
		Dir:             dir,
		CurrentFilename: names.Current,
		LegacyFilename:  names.Legacy,
	}, nil
}

// SanitizeName makes a display name safe to use as a single path element
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)

	switch strings.TrimSpace(name) {
	case "", ".", "..":
		return "_" + name
	}
	return name
}
