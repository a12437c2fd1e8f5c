package registry

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/spf13/afero"
)

// Manifest appends records to a JSON Lines file
type Manifest struct {
	mu   sync.Mutex
	path string
	file afero.File
	enc  *json.Encoder
}

// OpenManifest opens path for appending, creating it and its parent directory
func OpenManifest(fs afero.Fs, path string) (*Manifest, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, utils.NewIOError("create manifest directory", filepath.Dir(path), err)
	}
	file, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, utils.NewIOError("open manifest", path, err)
	}
	return &Manifest{path: path, file: file, enc: json.NewEncoder(file)}, nil
}

func (m *Manifest) Register(ctx context.Context, record types.SyncedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return utils.NewIOError("write manifest", m.path, os.ErrClosed)
	}
	if err := m.enc.Encode(record); err != nil {
		return utils.NewIOError("write manifest", m.path, err)
	}
	return nil
}

// Close flushes and closes the manifest file
func (m *Manifest) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// ReadManifest loads every record from a manifest file
func ReadManifest(fs afero.Fs, path string) ([]types.SyncedRecord, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, utils.NewIOError("open manifest", path, err)
	}
	defer file.Close()

	var records []types.SyncedRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec types.SyncedRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, utils.NewIOError("parse manifest", path, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.NewIOError("read manifest", path, err)
	}
	return records, nil
}
