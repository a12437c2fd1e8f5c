package registry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Index stores records and run summaries in a SQLite database. Records are
// keyed by remote ID, so re-running a mirror updates rows in place.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (and migrates) the database at path
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	instance := &Index{db: db}
	if err := instance.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return instance, nil
}

func (x *Index) Close() error {
	if x == nil || x.db == nil {
		return nil
	}
	return x.db.Close()
}

func (x *Index) Migrate(ctx context.Context) error {
	_, err := x.db.ExecContext(ctx, schemaSQL)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS mirror_runs (
	id TEXT PRIMARY KEY,
	root_id TEXT NOT NULL,
	destination TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER,
	downloaded INTEGER NOT NULL DEFAULT 0,
	cached INTEGER NOT NULL DEFAULT 0,
	migrated INTEGER NOT NULL DEFAULT 0,
	error TEXT
);

CREATE TABLE IF NOT EXISTS synced_records (
	remote_id TEXT PRIMARY KEY,
	local_path TEXT NOT NULL,
	filename TEXT NOT NULL,
	name TEXT NOT NULL,
	created_time TEXT,
	web_content_link TEXT,
	content_digest TEXT NOT NULL,
	outcome TEXT NOT NULL,
	run_id TEXT,
	registered_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_run ON synced_records(run_id);
CREATE INDEX IF NOT EXISTS idx_records_digest ON synced_records(content_digest);
`
