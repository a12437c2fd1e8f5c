package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dl-alexandre/gdmirror/internal/logging"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"google.golang.org/api/googleapi"
)

var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":        true,
	"userRateLimitExceeded":    true,
	"sharingRateLimitExceeded": true,
}

// IsRateLimited reports whether err is the remote store asking us to slow down.
// A bare 403 without a reason is treated as throttling, as the Drive download
// endpoints return one under sustained load.
func IsRateLimited(err error) bool {
	var apiErr *googleapi.Error
	if !stderrors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		items := errorItems(apiErr)
		if len(items) == 0 {
			return true
		}
		for _, e := range items {
			if rateLimitReasons[e.Reason] {
				return true
			}
		}
	}
	return false
}

// errorItems returns the reasons attached to apiErr. Media downloads only
// carry the raw response body, so the reasons are parsed from it.
func errorItems(apiErr *googleapi.Error) []googleapi.ErrorItem {
	if len(apiErr.Errors) > 0 || apiErr.Body == "" {
		return apiErr.Errors
	}
	var body struct {
		Error struct {
			Message string                `json:"message"`
			Errors  []googleapi.ErrorItem `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(apiErr.Body), &body); err != nil {
		return nil
	}
	return body.Error.Errors
}

// ClassifyGoogleAPIError converts an error from the Drive client into an AppError
func ClassifyGoogleAPIError(service string, err error, reqCtx *types.RequestContext, logger logging.Logger) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		code := utils.ErrCodeCancelled
		if stderrors.Is(err, context.DeadlineExceeded) {
			code = utils.ErrCodeTimeout
		}
		return utils.WrapAppError(utils.NewCLIError(code, err.Error()).
			WithContext("traceId", reqCtx.TraceID).
			WithContext("service", service).
			Build(), err)
	}

	var apiErr *googleapi.Error
	if !stderrors.As(err, &apiErr) {
		logger.Error("Non-API error",
			logging.F("error", err.Error()),
			logging.F("traceId", reqCtx.TraceID),
		)
		return utils.WrapAppError(utils.NewCLIError(utils.ErrCodeNetworkError, err.Error()).
			WithContext("traceId", reqCtx.TraceID).
			WithContext("service", service).
			Build(), err)
	}

	var code string
	retryable := IsRateLimited(apiErr)
	items := errorItems(apiErr)

	switch apiErr.Code {
	case 400:
		code = utils.ErrCodeInvalidArgument
		for _, e := range items {
			if e.Reason == "badRequest" && reqCtx.RequestType == types.RequestTypeExport {
				code = utils.ErrCodeInvalidMimeType
			}
		}
	case 401:
		code = utils.ErrCodeAuthExpired
	case 403:
		code = utils.ErrCodePermissionDenied
		for _, e := range items {
			switch e.Reason {
			case "storageQuotaExceeded", "dailyLimitExceeded":
				code = utils.ErrCodeQuotaExceeded
			case "exportSizeLimitExceeded":
				code = utils.ErrCodeExportSizeLimit
			case "domainPolicy":
				code = utils.ErrCodePolicyViolation
			}
		}
		if retryable {
			code = utils.ErrCodeRateLimited
		}
	case 404:
		code = utils.ErrCodeFileNotFound
	case 429:
		code = utils.ErrCodeRateLimited
	case 500, 502, 503, 504:
		code = utils.ErrCodeNetworkError
	default:
		code = utils.ErrCodeUnknown
	}

	logger.Error("API error classified",
		logging.F("httpStatus", apiErr.Code),
		logging.F("errorCode", code),
		logging.F("retryable", retryable),
		logging.F("message", apiErr.Message),
		logging.F("traceId", reqCtx.TraceID),
		logging.F("service", service),
	)

	builder := utils.NewCLIError(code, apiErr.Message).
		WithHTTPStatus(apiErr.Code).
		WithRetryable(retryable).
		WithContext("traceId", reqCtx.TraceID).
		WithContext("requestType", string(reqCtx.RequestType)).
		WithContext("service", service)

	if len(reqCtx.InvolvedFileIDs) > 0 {
		builder.WithContext("fileIds", reqCtx.InvolvedFileIDs)
	}

	if len(items) > 0 {
		builder.WithDriveReason(items[0].Reason)
		switch items[0].Reason {
		case "dailyLimitExceeded":
			builder.WithContext("suggestedAction", "quota will reset in 24 hours; re-run to resume")
		case "exportSizeLimitExceeded":
			builder.WithContext("suggestedAction", "exclude the document or choose a smaller export format")
		case "fileNotDownloadable":
			builder.WithContext("suggestedAction", "native documents must be exported, not downloaded")
		case "domainPolicy":
			builder.WithContext("suggestedAction", "contact domain administrator")
		}
	}

	switch code {
	case utils.ErrCodeAuthExpired:
		builder.WithContext("suggestedAction", "check the service account key")
	case utils.ErrCodeFileNotFound:
		builder.WithContext("suggestedAction", "verify the folder is shared with the service account")
	}

	if apiErr.Code >= 500 && apiErr.Code <= 504 {
		builder.WithContext("serverError", true)
	}

	return utils.WrapAppError(builder.Build(), err)
}
