package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/spf13/afero"
)

func sampleRecord(id string) types.SyncedRecord {
	return types.SyncedRecord{
		LocalPath:      "/mirror/" + id + ".txt",
		Filename:       id + ".txt",
		Name:           "File " + id,
		RemoteID:       id,
		CreatedTime:    "2024-01-01T00:00:00Z",
		WebContentLink: "https://drive.google.com/uc?id=" + id,
		ContentDigest:  "digest-" + id,
		Outcome:        types.OutcomeDownloaded,
	}
}

func TestCollector_ConcurrentRegister(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Register(context.Background(), sampleRecord(fmt.Sprintf("id-%d", i)))
		}(i)
	}
	wg.Wait()

	if c.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", c.Len())
	}
	records := c.Records()
	records[0].Name = "mutated"
	if c.Records()[0].Name == "mutated" {
		t.Error("Records() should return a copy")
	}
}

func TestMulti_ForwardsAndStopsOnError(t *testing.T) {
	first := NewCollector()
	second := NewCollector()
	boom := errors.New("boom")
	failing := SinkFunc(func(ctx context.Context, r types.SyncedRecord) error { return boom })

	m := NewMulti(first, nil, second)
	if err := m.Register(context.Background(), sampleRecord("a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if first.Len() != 1 || second.Len() != 1 {
		t.Errorf("expected both sinks to receive the record")
	}

	m = NewMulti(first, failing, second)
	if err := m.Register(context.Background(), sampleRecord("b")); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if second.Len() != 1 {
		t.Errorf("sink after failure should not receive the record")
	}
}

func TestManifest_AppendAndRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/state/manifest.jsonl"

	m, err := OpenManifest(fs, path)
	if err != nil {
		t.Fatalf("OpenManifest: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if err := m.Register(context.Background(), sampleRecord(id)); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening appends rather than truncates
	m, err = OpenManifest(fs, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = m.Register(context.Background(), sampleRecord("c"))
	_ = m.Close()

	records, err := ReadManifest(fs, path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[2] != sampleRecord("c") {
		t.Errorf("round trip mismatch: %+v", records[2])
	}

	if err := m.Register(context.Background(), sampleRecord("d")); err == nil {
		t.Error("Register after Close should fail")
	}
}

func TestIndex_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "state", "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer idx.Close()

	sink := idx.RunSink("run-1")
	for _, id := range []string{"b", "a"} {
		if err := sink.Register(ctx, sampleRecord(id)); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	updated := sampleRecord("a")
	updated.Outcome = types.OutcomeCached
	if err := idx.RunSink("run-2").Register(ctx, updated); err != nil {
		t.Fatalf("Register: %v", err)
	}

	all, err := idx.ListRecords(ctx, "")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("records = %d, want 2 (upsert by remote id)", len(all))
	}
	if all[0].RemoteID != "a" || all[0].Outcome != types.OutcomeCached {
		t.Errorf("unexpected first record: %+v", all[0])
	}

	run1, err := idx.ListRecords(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListRecords(run-1): %v", err)
	}
	if len(run1) != 1 || run1[0].RemoteID != "b" {
		t.Errorf("run-1 records = %+v", run1)
	}

	got, err := idx.GetRecord(ctx, "b")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if *got != sampleRecord("b") {
		t.Errorf("GetRecord = %+v", got)
	}
}

func TestIndex_Runs(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer idx.Close()

	run := Run{ID: "r1", RootID: "root", Destination: "/mirror"}
	if err := idx.StartRun(ctx, run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	run.Status = RunStatusCompleted
	run.Downloaded = 3
	run.Cached = 2
	if err := idx.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := idx.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d", len(runs))
	}
	if runs[0].Status != RunStatusCompleted || runs[0].Downloaded != 3 || runs[0].Cached != 2 {
		t.Errorf("unexpected run: %+v", runs[0])
	}
	if runs[0].FinishedAt.IsZero() {
		t.Error("FinishedAt not recorded")
	}

	rows := RunList(runs).AsTableRenderer().Rows()
	if len(rows) != 1 || rows[0][0] != "r1" {
		t.Errorf("table rows = %v", rows)
	}
}
