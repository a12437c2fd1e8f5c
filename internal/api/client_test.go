package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"google.golang.org/api/googleapi"
)

func testClient() *Client {
	return NewClient(nil, Backoff{Policy: utils.RetryPolicyFixed, BaseDelay: time.Millisecond}, nil)
}

func throttled() error {
	return &googleapi.Error{
		Code:   http.StatusForbidden,
		Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}},
	}
}

func TestExecuteWithRetry_RetriesUntilSuccess(t *testing.T) {
	client := testClient()
	calls := 0

	got, err := ExecuteWithRetry(context.Background(), client, NewRequestContext(types.RequestTypeGetByID), func() (string, error) {
		calls++
		if calls <= 5 {
			return "", throttled()
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if calls != 6 {
		t.Errorf("calls = %d, want 6", calls)
	}
}

func TestExecuteWithRetry_NonRateLimitFailsImmediately(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"not found", &googleapi.Error{Code: 404, Message: "File not found"}, utils.ErrCodeFileNotFound},
		{"server error", &googleapi.Error{Code: 500, Message: "backend"}, utils.ErrCodeNetworkError},
		{"permission", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "insufficientFilePermissions"}}}, utils.ErrCodePermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := ExecuteWithRetry(context.Background(), testClient(), NewRequestContext(types.RequestTypeGetByID), func() (int, error) {
				calls++
				return 0, tt.err
			})
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
			if code := utils.ErrorCode(err); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestExecuteWithRetry_CancelStopsWaiting(t *testing.T) {
	client := NewClient(nil, Backoff{Policy: utils.RetryPolicyFixed, BaseDelay: time.Hour, MaxDelay: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := ExecuteWithRetry(ctx, client, NewRequestContext(types.RequestTypeDownload), func() ([]byte, error) {
			calls++
			return nil, throttled()
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", err)
		}
		if code := utils.ErrorCode(err); code != utils.ErrCodeCancelled {
			t.Errorf("code = %q, want %q", code, utils.ErrCodeCancelled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not observe cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoff_Delay(t *testing.T) {
	fixed := Backoff{Policy: utils.RetryPolicyFixed, BaseDelay: 250 * time.Millisecond}
	for attempt := 0; attempt < 5; attempt++ {
		if d := fixed.Delay(attempt, nil); d != 250*time.Millisecond {
			t.Errorf("fixed attempt %d: got %v", attempt, d)
		}
	}

	exp := Backoff{Policy: utils.RetryPolicyExponential, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{0, 75 * time.Millisecond, 125 * time.Millisecond},
		{1, 150 * time.Millisecond, 250 * time.Millisecond},
		{2, 300 * time.Millisecond, 500 * time.Millisecond},
		{10, 750 * time.Millisecond, time.Second},
		{500, 750 * time.Millisecond, time.Second},
	}
	for _, tt := range tests {
		d := exp.Delay(tt.attempt, nil)
		if d < tt.min || d > tt.max {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", tt.attempt, d, tt.min, tt.max)
		}
	}
}

func TestBackoff_RetryAfter(t *testing.T) {
	b := Backoff{Policy: utils.RetryPolicyExponential, BaseDelay: 100 * time.Millisecond, MaxDelay: 10 * time.Second}

	err := &googleapi.Error{Code: 429, Header: http.Header{"Retry-After": []string{"3"}}}
	if d := b.Delay(0, err); d != 3*time.Second {
		t.Errorf("got %v, want 3s", d)
	}

	err = &googleapi.Error{Code: 429, Header: http.Header{"Retry-After": []string{"600"}}}
	if d := b.Delay(0, err); d != 10*time.Second {
		t.Errorf("got %v, want cap of 10s", d)
	}
}

func TestBackoff_Defaults(t *testing.T) {
	b := Backoff{}.normalized()
	if b.Policy != utils.RetryPolicyExponential {
		t.Errorf("policy = %q", b.Policy)
	}
	if b.BaseDelay != time.Second {
		t.Errorf("base = %v", b.BaseDelay)
	}
	if b.MaxDelay != time.Duration(utils.MaxRetryDelayMs)*time.Millisecond {
		t.Errorf("max = %v", b.MaxDelay)
	}
}

func TestResourceKeyManager(t *testing.T) {
	m := NewResourceKeyManager()
	m.UpdateFromAPIResponse("a", "")
	m.UpdateFromAPIResponse("b", "key-b")
	m.AddKey("c", "key-c")

	if _, ok := m.GetKey("a"); ok {
		t.Error("empty key should not be stored")
	}
	if got := m.BuildHeader([]string{"a", "b", "c"}); got != "b/key-b,c/key-c" {
		t.Errorf("header = %q", got)
	}
	if got := m.BuildHeader([]string{"a"}); got != "" {
		t.Errorf("header = %q, want empty", got)
	}
}

func TestClassifyMimeType(t *testing.T) {
	tests := []struct {
		mime string
		want types.ItemKind
	}{
		{utils.MimeTypeFolder, types.KindContainer},
		{utils.MimeTypeDocument, types.KindRichDocument},
		{utils.MimeTypeSpreadsheet, types.KindUnsupported},
		{utils.MimeTypeShortcut, types.KindUnsupported},
		{"application/pdf", types.KindLeaf},
		{"", types.KindLeaf},
	}
	for _, tt := range tests {
		if got := ClassifyMimeType(tt.mime); got != tt.want {
			t.Errorf("ClassifyMimeType(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
