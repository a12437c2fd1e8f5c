package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
)

func newTestWriter(format types.OutputFormat) (*OutputWriter, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	w := NewOutputWriter(format, false, false)
	w.SetWriters(&stdout, &stderr)
	w.SetTraceID("trace-1")
	return w, &stdout, &stderr
}

func TestWriteSuccess_JSONEnvelope(t *testing.T) {
	w, stdout, _ := newTestWriter(types.OutputFormatJSON)

	records := types.SyncedRecordList{{RemoteID: "id-1", Name: "a.txt", Outcome: types.OutcomeDownloaded}}
	if err := w.WriteSuccess("sync", records); err != nil {
		t.Fatalf("WriteSuccess: %v", err)
	}

	var got types.CLIOutput
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout.String())
	}
	if got.Command != "sync" || got.TraceID != "trace-1" || got.SchemaVersion != utils.SchemaVersion {
		t.Errorf("envelope = %+v", got)
	}
	if len(got.Errors) != 0 {
		t.Errorf("errors = %v", got.Errors)
	}
}

func TestWriteSuccess_Table(t *testing.T) {
	tests := []struct {
		name     string
		data     interface{}
		contains []string
	}{
		{
			name:     "records",
			data:     types.SyncedRecordList{{RemoteID: "id-1", Name: "a.txt", Outcome: types.OutcomeCached, LocalPath: "/m/x.txt"}},
			contains: []string{"REMOTE ID", "id-1", "cached", "/m/x.txt"},
		},
		{
			name:     "empty records",
			data:     types.SyncedRecordList{},
			contains: []string{"No records"},
		},
		{
			name:     "listing",
			data:     &types.RemoteItemList{Items: []types.RemoteItem{{ID: "f1", Name: "Docs", Kind: types.KindContainer}}},
			contains: []string{"f1", "Docs", "container"},
		},
		{
			name:     "fallback",
			data:     map[string]string{"k": "v"},
			contains: []string{`"k": "v"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter(types.OutputFormatTable)
			if err := w.WriteSuccess("cmd", tt.data); err != nil {
				t.Fatalf("WriteSuccess: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("output missing %q:\n%s", want, stdout.String())
				}
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	appErr := utils.NewAppError(utils.NewCLIError(utils.ErrCodeConfigInvalid, "bad config").Build())

	t.Run("json", func(t *testing.T) {
		w, stdout, _ := newTestWriter(types.OutputFormatJSON)
		err := w.WriteError("sync", appErr)
		if err != appErr {
			t.Errorf("WriteError returned %v, want the original error", err)
		}
		var got types.CLIOutput
		if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.Errors) != 1 || got.Errors[0].Code != utils.ErrCodeConfigInvalid {
			t.Errorf("errors = %+v", got.Errors)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		w, stdout, _ := newTestWriter(types.OutputFormatJSON)
		_ = w.WriteError("sync", errors.New("boom"))
		if !strings.Contains(stdout.String(), utils.ErrCodeUnknown) {
			t.Errorf("output = %s", stdout.String())
		}
	})

	t.Run("table writes nothing", func(t *testing.T) {
		w, stdout, _ := newTestWriter(types.OutputFormatTable)
		if err := w.WriteError("sync", appErr); err != appErr {
			t.Errorf("WriteError returned %v", err)
		}
		if stdout.Len() != 0 {
			t.Errorf("stdout = %q", stdout.String())
		}
	})
}

func TestLogAndVerbose(t *testing.T) {
	var stdout, stderr bytes.Buffer
	w := NewOutputWriter(types.OutputFormatTable, true, true)
	w.SetWriters(&stdout, &stderr)

	w.Log("hidden %d", 1)
	w.Print("hidden")
	w.Verbose("shown %d", 2)

	if stdout.Len() != 0 {
		t.Errorf("quiet writer printed %q", stdout.String())
	}
	if got := stderr.String(); got != "[VERBOSE] shown 2\n" {
		t.Errorf("stderr = %q", got)
	}
}
