package mirror

import (
	"os"
	"path/filepath"

	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/spf13/afero"
)

// CacheState is the local state of one leaf before it is synced
type CacheState int

const (
	// CacheMiss means no local copy exists
	CacheMiss CacheState = iota
	// CacheHit means the file exists under its current name
	CacheHit
	// CacheMigrate means the file exists only under its legacy name
	CacheMigrate
)

func (s CacheState) String() string {
	switch s {
	case CacheHit:
		return "hit"
	case CacheMigrate:
		return "migrate"
	default:
		return "miss"
	}
}

// LookupCache inspects the filesystem for an existing copy of target.
// Presence is the only signal; contents are never compared.
func LookupCache(fs afero.Fs, target types.SyncTarget) (CacheState, error) {
	if ok, err := exists(fs, target.CurrentPath()); err != nil || ok {
		if err != nil {
			return CacheMiss, utils.NewIOError("stat", target.CurrentPath(), err)
		}
		return CacheHit, nil
	}
	if target.LegacyFilename == target.CurrentFilename {
		return CacheMiss, nil
	}
	info, err := fs.Stat(target.LegacyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return CacheMiss, nil
		}
		return CacheMiss, utils.NewIOError("stat", target.LegacyPath(), err)
	}
	if info.IsDir() {
		return CacheMiss, nil
	}
	return CacheMigrate, nil
}

func exists(fs afero.Fs, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// writeFile writes data next to path and renames it into place, so an
// interrupted write never leaves a file that later runs would treat as cached.
func writeFile(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(fs, dir, ".gdmirror-*.part")
	if err != nil {
		return utils.NewIOError("create temp file", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return utils.NewIOError("write", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return utils.NewIOError("close", tmpName, err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return utils.NewIOError("rename", path, err)
	}
	return nil
}
