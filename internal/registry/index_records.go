package registry

import (
	"context"
	"database/sql"
	"time"

	"github.com/dl-alexandre/gdmirror/internal/types"
)

// RunSink returns a Sink that writes into the index, tagging rows with runID
func (x *Index) RunSink(runID string) Sink {
	return SinkFunc(func(ctx context.Context, record types.SyncedRecord) error {
		return x.UpsertRecord(ctx, runID, record)
	})
}

func (x *Index) UpsertRecord(ctx context.Context, runID string, record types.SyncedRecord) error {
	_, err := x.db.ExecContext(ctx, `
		INSERT INTO synced_records (
			remote_id, local_path, filename, name, created_time, web_content_link, content_digest, outcome, run_id, registered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			local_path=excluded.local_path,
			filename=excluded.filename,
			name=excluded.name,
			created_time=excluded.created_time,
			web_content_link=excluded.web_content_link,
			content_digest=excluded.content_digest,
			outcome=excluded.outcome,
			run_id=excluded.run_id,
			registered_at=excluded.registered_at
	`, record.RemoteID, record.LocalPath, record.Filename, record.Name, record.CreatedTime, record.WebContentLink,
		record.ContentDigest, string(record.Outcome), runID, time.Now().Unix())
	return err
}

func (x *Index) GetRecord(ctx context.Context, remoteID string) (*types.SyncedRecord, error) {
	row := x.db.QueryRowContext(ctx, `
		SELECT remote_id, local_path, filename, name, created_time, web_content_link, content_digest, outcome
		FROM synced_records WHERE remote_id = ?
	`, remoteID)
	record, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRecords returns records ordered by local path. An empty runID lists all.
func (x *Index) ListRecords(ctx context.Context, runID string) (records []types.SyncedRecord, err error) {
	query := `
		SELECT remote_id, local_path, filename, name, created_time, web_content_link, content_digest, outcome
		FROM synced_records`
	var args []interface{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY local_path`

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanRecord(scanner interface {
	Scan(dest ...interface{}) error
}) (types.SyncedRecord, error) {
	var record types.SyncedRecord
	var createdTime, link sql.NullString
	var outcome string
	err := scanner.Scan(&record.RemoteID, &record.LocalPath, &record.Filename, &record.Name, &createdTime, &link,
		&record.ContentDigest, &outcome)
	if err != nil {
		return types.SyncedRecord{}, err
	}
	record.CreatedTime = createdTime.String
	record.WebContentLink = link.String
	record.Outcome = types.SyncOutcome(outcome)
	return record, nil
}
