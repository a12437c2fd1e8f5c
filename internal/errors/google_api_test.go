package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/dl-alexandre/gdmirror/internal/logging"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"google.golang.org/api/googleapi"
)

func testReqCtx() *types.RequestContext {
	return &types.RequestContext{
		RequestType:     types.RequestTypeDownload,
		TraceID:         "test-trace-id",
		InvolvedFileIDs: []string{"file1"},
	}
}

func apiError(code int, reasons ...string) *googleapi.Error {
	err := &googleapi.Error{Code: code, Message: fmt.Sprintf("status %d", code)}
	for _, r := range reasons {
		err.Errors = append(err.Errors, googleapi.ErrorItem{Reason: r})
	}
	return err
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"429", apiError(429), true},
		{"403 rate limit", apiError(403, "rateLimitExceeded"), true},
		{"403 user rate limit", apiError(403, "userRateLimitExceeded"), true},
		{"403 bare", apiError(403), true},
		{"403 permission", apiError(403, "insufficientFilePermissions"), false},
		{"403 daily quota", apiError(403, "dailyLimitExceeded"), false},
		{"404", apiError(404, "notFound"), false},
		{"500", apiError(500), false},
		{"403 media body rate limit", &googleapi.Error{Code: 403, Body: `{"error":{"errors":[{"reason":"userRateLimitExceeded"}]}}`}, true},
		{"403 media body permission", &googleapi.Error{Code: 403, Body: `{"error":{"errors":[{"reason":"cannotDownloadFile"}]}}`}, false},
		{"403 media body unparsable", &googleapi.Error{Code: 403, Body: "forbidden"}, true},
		{"wrapped 429", fmt.Errorf("list page: %w", apiError(429)), true},
		{"plain error", stderrors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimited(tt.err); got != tt.want {
				t.Fatalf("IsRateLimited() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyGoogleAPIError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"not found", apiError(404, "notFound"), utils.ErrCodeFileNotFound},
		{"unauthorized", apiError(401), utils.ErrCodeAuthExpired},
		{"permission", apiError(403, "insufficientFilePermissions"), utils.ErrCodePermissionDenied},
		{"rate limited", apiError(403, "userRateLimitExceeded"), utils.ErrCodeRateLimited},
		{"export too large", apiError(403, "exportSizeLimitExceeded"), utils.ErrCodeExportSizeLimit},
		{"daily quota", apiError(403, "dailyLimitExceeded"), utils.ErrCodeQuotaExceeded},
		{"server", apiError(503), utils.ErrCodeNetworkError},
		{"transport", stderrors.New("dial tcp: connection refused"), utils.ErrCodeNetworkError},
		{"cancelled", context.Canceled, utils.ErrCodeCancelled},
		{"deadline", context.DeadlineExceeded, utils.ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyGoogleAPIError("drive", tt.err, testReqCtx(), logging.NewNoOpLogger())
			if got := utils.ErrorCode(err); got != tt.wantCode {
				t.Fatalf("code = %q, want %q", got, tt.wantCode)
			}
			if !stderrors.Is(err, tt.err) {
				t.Error("original error lost from chain")
			}
		})
	}
}

func TestClassifyGoogleAPIError_Context(t *testing.T) {
	err := ClassifyGoogleAPIError("drive", apiError(404, "notFound"), testReqCtx(), logging.NewNoOpLogger())

	var appErr *utils.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.CLIError.HTTPStatus != 404 {
		t.Errorf("HTTPStatus = %d", appErr.CLIError.HTTPStatus)
	}
	if appErr.CLIError.DriveReason != "notFound" {
		t.Errorf("DriveReason = %q", appErr.CLIError.DriveReason)
	}
	if appErr.CLIError.Context["traceId"] != "test-trace-id" {
		t.Errorf("traceId = %v", appErr.CLIError.Context["traceId"])
	}
	if appErr.CLIError.Retryable {
		t.Error("404 must not be retryable")
	}
}
