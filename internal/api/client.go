package api

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/dl-alexandre/gdmirror/internal/errors"
	"github.com/dl-alexandre/gdmirror/internal/logging"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// Client wraps the Drive API with rate-limit retry and request shaping
type Client struct {
	service        *drive.Service
	resourceKeyMgr *ResourceKeyManager
	backoff        Backoff
	logger         logging.Logger
}

// NewClient creates a new Drive API client
func NewClient(service *drive.Service, backoff Backoff, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Client{
		service:        service,
		resourceKeyMgr: NewResourceKeyManager(),
		backoff:        backoff.normalized(),
		logger:         logger,
	}
}

// NewRequestContext creates a new request context with trace ID
func NewRequestContext(requestType types.RequestType) *types.RequestContext {
	return &types.RequestContext{
		InvolvedFileIDs:   []string{},
		InvolvedParentIDs: []string{},
		RequestType:       requestType,
		TraceID:           uuid.New().String(),
	}
}

// Backoff decides how long to wait before repeating a throttled request
type Backoff struct {
	// Policy is utils.RetryPolicyFixed or utils.RetryPolicyExponential
	Policy    string
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultBackoff is exponential from one second, capped at MaxRetryDelayMs
func DefaultBackoff() Backoff {
	return Backoff{
		Policy:    utils.RetryPolicyExponential,
		BaseDelay: time.Duration(utils.DefaultRetryDelayMs) * time.Millisecond,
		MaxDelay:  time.Duration(utils.MaxRetryDelayMs) * time.Millisecond,
	}
}

func (b Backoff) normalized() Backoff {
	def := DefaultBackoff()
	if b.Policy == "" {
		b.Policy = def.Policy
	}
	if b.BaseDelay <= 0 {
		b.BaseDelay = def.BaseDelay
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = def.MaxDelay
	}
	if b.MaxDelay < b.BaseDelay {
		b.MaxDelay = b.BaseDelay
	}
	return b
}

// Delay returns the wait before retry number attempt (0-based)
func (b Backoff) Delay(attempt int, err error) time.Duration {
	b = b.normalized()
	if b.Policy == utils.RetryPolicyFixed {
		return b.BaseDelay
	}

	if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Header != nil {
		if retryAfter := apiErr.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay := time.Duration(seconds) * time.Second
				if delay > b.MaxDelay {
					return b.MaxDelay
				}
				return delay
			}
		}
	}

	// Exponential backoff: base * 2^attempt
	delay := b.MaxDelay
	if attempt < 32 {
		scaled := float64(b.BaseDelay) * math.Pow(2, float64(attempt))
		if scaled < float64(b.MaxDelay) {
			delay = time.Duration(scaled)
		}
	}

	// Add jitter (±25% of delay)
	if jitterRange := delay / 4; jitterRange > 0 {
		delay += time.Duration(rand.Int63n(int64(jitterRange*2))) - jitterRange
	}
	if delay > b.MaxDelay {
		delay = b.MaxDelay
	}
	if delay <= 0 {
		delay = b.BaseDelay
	}
	return delay
}

// ExecuteWithRetry runs fn until it succeeds or fails with something other
// than rate limiting. Throttled attempts are repeated without an attempt cap;
// only ctx cancellation ends the wait early, and that is returned as an error.
func ExecuteWithRetry[T any](ctx context.Context, client *Client, reqCtx *types.RequestContext, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	logger := client.logger.WithTraceID(reqCtx.TraceID)
	logger.Debug("API operation starting",
		logging.F("requestType", reqCtx.RequestType),
		logging.F("fileIds", reqCtx.InvolvedFileIDs),
		logging.F("parentIds", reqCtx.InvolvedParentIDs),
	)

	start := time.Now()

	for attempt := 0; ; attempt++ {
		result, lastErr = fn()
		if lastErr == nil {
			logger.Debug("API operation completed",
				logging.F("duration_ms", time.Since(start).Milliseconds()),
				logging.F("attempts", attempt+1),
			)
			return result, nil
		}

		if !errors.IsRateLimited(lastErr) {
			logger.Debug("API operation failed",
				logging.F("duration_ms", time.Since(start).Milliseconds()),
				logging.F("error", lastErr.Error()),
				logging.F("attempts", attempt+1),
			)
			return result, classifyError(lastErr, reqCtx, client.logger)
		}

		delay := client.backoff.Delay(attempt, lastErr)
		logger.Warn("Rate limited, waiting before retry",
			logging.F("attempt", attempt+1),
			logging.F("delay_ms", delay.Milliseconds()),
			logging.F("requestType", reqCtx.RequestType),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, classifyError(ctx.Err(), reqCtx, client.logger)
		case <-timer.C:
		}
	}
}

// classifyError converts API errors to CLI errors
func classifyError(err error, reqCtx *types.RequestContext, logger logging.Logger) error {
	return errors.ClassifyGoogleAPIError("drive", err, reqCtx, logger)
}

// ResourceKeys returns the resource key manager
func (c *Client) ResourceKeys() *ResourceKeyManager {
	return c.resourceKeyMgr
}
