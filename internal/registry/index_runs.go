package registry

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/dl-alexandre/gdmirror/internal/types"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run summarizes one mirror invocation
type Run struct {
	ID          string    `json:"id"`
	RootID      string    `json:"rootId"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt,omitempty"`
	Downloaded  int       `json:"downloaded"`
	Cached      int       `json:"cached"`
	Migrated    int       `json:"migrated"`
	Error       string    `json:"error,omitempty"`
}

func (x *Index) StartRun(ctx context.Context, run Run) error {
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := x.db.ExecContext(ctx, `
		INSERT INTO mirror_runs (id, root_id, destination, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.RootID, run.Destination, run.Status, run.StartedAt.UnixNano())
	return err
}

func (x *Index) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	_, err := x.db.ExecContext(ctx, `
		UPDATE mirror_runs
		SET status = ?, finished_at = ?, downloaded = ?, cached = ?, migrated = ?, error = ?
		WHERE id = ?
	`, run.Status, run.FinishedAt.UnixNano(), run.Downloaded, run.Cached, run.Migrated, run.Error, run.ID)
	return err
}

// ListRuns returns the most recent runs first
func (x *Index) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := x.db.QueryContext(ctx, `
		SELECT id, root_id, destination, status, started_at, finished_at, downloaded, cached, migrated, error
		FROM mirror_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started int64
		var finished sql.NullInt64
		var errText sql.NullString
		if err := rows.Scan(&run.ID, &run.RootID, &run.Destination, &run.Status, &started, &finished,
			&run.Downloaded, &run.Cached, &run.Migrated, &errText); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(0, started)
		if finished.Valid {
			run.FinishedAt = time.Unix(0, finished.Int64)
		}
		run.Error = errText.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// RunList renders runs for table output
type RunList []Run

func (l RunList) AsTableRenderer() types.TableRenderer {
	return &runTable{runs: l}
}

type runTable struct {
	runs []Run
}

func (t *runTable) Headers() []string {
	return []string{"Run", "Root", "Status", "Started", "Downloaded", "Cached", "Migrated"}
}

func (t *runTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.runs))
	for _, r := range t.runs {
		rows = append(rows, []string{
			r.ID, r.RootID, r.Status, r.StartedAt.Format(time.RFC3339),
			strconv.Itoa(r.Downloaded), strconv.Itoa(r.Cached), strconv.Itoa(r.Migrated),
		})
	}
	return rows
}

func (t *runTable) EmptyMessage() string {
	return "No runs recorded"
}
