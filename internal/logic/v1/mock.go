package v1

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/duynhne/sut-service/internal/core/domain"
	"github.com/duynhne/sut-service/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Mock response messages.
const (
	MessageDefault = "Mock API response"
	MessageDB      = "Database connection timeout"
	MessageAuth    = "Unauthorized access"
)

const (
	// largeDataUnit is the number of characters added per size step.
	largeDataUnit = 1000
	// MaxLargeData bounds largeData; larger requests fail with
	// ErrInvalidSize instead of allocating.
	MaxLargeData = 1<<29 - 24
)

// Sleeper suspends the calling goroutine. It is never interrupted:
// an injected delay always runs to completion.
type Sleeper func(time.Duration)

// ParseDescriptor reads delay, status, size and errorType from the
// query. Integers use the leading numeric prefix of the value; a missing,
// non-numeric or zero value selects the default (delay 0, status 200,
// size 1). Negative values are kept.
func ParseDescriptor(q url.Values) domain.MockDescriptor {
	d := domain.MockDescriptor{
		DelayMs:            intOr(q.Get("delay"), 0),
		StatusCode:         intOr(q.Get("status"), http.StatusOK),
		BodySizeMultiplier: intOr(q.Get("size"), 1),
	}
	switch domain.ErrorType(q.Get("errorType")) {
	case domain.ErrorTypeDB:
		d.ErrorType = domain.ErrorTypeDB
	case domain.ErrorTypeAuth:
		d.ErrorType = domain.ErrorTypeAuth
	}
	return d
}

// intOr parses the leading integer of s ("12ms" → 12, " -3" → -3,
// "1.9" → 1). It returns def when there is no integer prefix or the
// value is zero.
func intOr(s string, def int) int {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n == 0 {
		return def
	}
	return n
}

// MockService produces parameterised mock responses. It holds no state
// between calls.
type MockService struct {
	sleep Sleeper
	now   func() time.Time
}

// NewMockService creates a MockService. A nil sleep uses time.Sleep.
func NewMockService(sleep Sleeper) *MockService {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &MockService{sleep: sleep, now: time.Now}
}

// Respond waits for the requested delay and builds the payload for
// route. The status is passed through unvalidated except for values that
// cannot be sent as a final response (below 200 or above 999), which fail
// with ErrInvalidStatus after the delay has elapsed. A size whose
// largeData would exceed MaxLargeData fails the same way with
// ErrInvalidSize.
func (s *MockService) Respond(ctx context.Context, d domain.MockDescriptor, route string) (*domain.MockPayload, error) {
	_, span := middleware.StartSpan(ctx, "mock.respond", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("route", route),
		attribute.Int("mock.status", d.StatusCode),
		attribute.Int("mock.delay_ms", d.DelayMs),
		attribute.Int("mock.size", d.BodySizeMultiplier),
		attribute.String("mock.error_type", string(d.ErrorType)),
	))
	defer span.End()

	if d.DelayMs > 0 {
		delay := time.Duration(d.DelayMs) * time.Millisecond
		span.AddEvent("delay.start")
		s.sleep(delay)
		span.AddEvent("delay.end")
		injectedDelay.WithLabelValues("mock").Observe(delay.Seconds())
	}

	if d.StatusCode < 200 || d.StatusCode > 999 {
		err := fmt.Errorf("status %d: %w", d.StatusCode, ErrInvalidStatus)
		span.RecordError(err)
		return nil, err
	}
	if d.BodySizeMultiplier > MaxLargeData/largeDataUnit {
		err := fmt.Errorf("size %d exceeds %d characters: %w", d.BodySizeMultiplier, MaxLargeData, ErrInvalidSize)
		span.RecordError(err)
		return nil, err
	}

	payload := &domain.MockPayload{
		Success:   d.StatusCode < 400,
		Timestamp: s.now().UnixMilli(),
		Route:     route,
		Message:   MessageDefault,
	}

	switch d.ErrorType {
	case domain.ErrorTypeDB:
		payload.Message = MessageDB
	case domain.ErrorTypeAuth:
		payload.Message = MessageAuth
	}

	if d.BodySizeMultiplier > 1 {
		payload.LargeData = strings.Repeat("x", d.BodySizeMultiplier*largeDataUnit)
	}

	mockResponses.WithLabelValues(statusClass(d.StatusCode), string(d.ErrorType)).Inc()
	return payload, nil
}
