package types

import "path/filepath"

// SyncOutcome describes how a leaf reached its local path
type SyncOutcome string

const (
	OutcomeDownloaded SyncOutcome = "downloaded"
	OutcomeCached     SyncOutcome = "cached"
	OutcomeMigrated   SyncOutcome = "migrated"
)

// SyncTarget is the resolved local destination of one leaf. It is derived
// from the item and configuration on every run and never stored.
type SyncTarget struct {
	Dir             string `json:"dir"`
	CurrentFilename string `json:"currentFilename"`
	LegacyFilename  string `json:"legacyFilename"`
}

// CurrentPath is where the leaf lives under the current naming scheme
func (t SyncTarget) CurrentPath() string {
	return filepath.Join(t.Dir, t.CurrentFilename)
}

// LegacyPath is where an earlier run would have written the leaf
func (t SyncTarget) LegacyPath() string {
	return filepath.Join(t.Dir, t.LegacyFilename)
}

// SyncedRecord is handed to the registration sink once per synced leaf
type SyncedRecord struct {
	LocalPath      string      `json:"localPath"`
	Filename       string      `json:"filename"`
	Name           string      `json:"name"`
	RemoteID       string      `json:"remoteId"`
	CreatedTime    string      `json:"createdTime,omitempty"`
	WebContentLink string      `json:"webContentLink,omitempty"`
	ContentDigest  string      `json:"contentDigest"`
	Outcome        SyncOutcome `json:"outcome"`
}

// SyncedRecordList renders records for table output
type SyncedRecordList []SyncedRecord

func (l SyncedRecordList) AsTableRenderer() TableRenderer {
	return &recordTable{records: l}
}

type recordTable struct {
	records []SyncedRecord
}

func (t *recordTable) Headers() []string {
	return []string{"Remote ID", "Name", "Outcome", "Local Path"}
}

func (t *recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.records))
	for _, r := range t.records {
		rows = append(rows, []string{r.RemoteID, r.Name, string(r.Outcome), r.LocalPath})
	}
	return rows
}

func (t *recordTable) EmptyMessage() string {
	return "No records"
}
