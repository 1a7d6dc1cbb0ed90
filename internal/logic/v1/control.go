package v1

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/duynhne/sut-service/internal/core/domain"
	"github.com/duynhne/sut-service/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Fixed control delays.
const (
	AvgDelay       = 500 * time.Millisecond
	FastDelay      = 200 * time.Millisecond
	OutlierDelay   = 5000 * time.Millisecond
	ThresholdDelay = 3500 * time.Millisecond

	// OutlierRate is the share of p99-outlier requests that take OutlierDelay.
	OutlierRate = 0.01
)

// SuccessPath is the target of the temporary redirect control.
const SuccessPath = "/api/control/error/success"

// ControlService serves the fixed-behaviour control endpoints.
type ControlService struct {
	sleep Sleeper
	draw  func() float64
}

// NewControlService creates a ControlService. A nil sleep uses
// time.Sleep and a nil draw uses math/rand/v2.Float64; every call gets
// an independent draw.
func NewControlService(sleep Sleeper, draw func() float64) *ControlService {
	if sleep == nil {
		sleep = time.Sleep
	}
	if draw == nil {
		draw = rand.Float64
	}
	return &ControlService{sleep: sleep, draw: draw}
}

// PickOutlierDelay maps a uniform draw in [0,1) to the bimodal delay.
func PickOutlierDelay(draw float64) time.Duration {
	if draw < OutlierRate {
		return OutlierDelay
	}
	return FastDelay
}

func (s *ControlService) wait(ctx context.Context, endpoint string, d time.Duration) {
	_, span := middleware.StartSpan(ctx, "control.delay", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("endpoint", endpoint),
		attribute.Int64("delay_ms", d.Milliseconds()),
	))
	defer span.End()

	s.sleep(d)
	injectedDelay.WithLabelValues(endpoint).Observe(d.Seconds())
}

// LatencyAvg waits a constant 500ms.
func (s *ControlService) LatencyAvg(ctx context.Context) domain.ControlResult {
	s.wait(ctx, "latency_avg", AvgDelay)
	return domain.ControlResult{
		StatusCode: http.StatusOK,
		Body:       map[string]string{"status": "OK", "latency": "500ms"},
	}
}

// P99Outlier waits 5000ms for about 1% of calls and 200ms otherwise.
func (s *ControlService) P99Outlier(ctx context.Context) domain.ControlResult {
	d := PickOutlierDelay(s.draw())
	s.wait(ctx, "latency_p99_outlier", d)
	return domain.ControlResult{
		StatusCode: http.StatusOK,
		Body:       map[string]string{"status": "OK", "delay": fmt.Sprintf("%dms", d.Milliseconds())},
	}
}

// Threshold waits a constant 3500ms so monitors flag the endpoint as slow.
func (s *ControlService) Threshold(ctx context.Context) domain.ControlResult {
	s.wait(ctx, "latency_threshold", ThresholdDelay)
	return domain.ControlResult{
		StatusCode: http.StatusOK,
		Body:       map[string]string{"status": "OK", "flag": "slow"},
	}
}

func (s *ControlService) Success() domain.ControlResult {
	return domain.ControlResult{
		StatusCode: http.StatusOK,
		Body:       map[string]string{"message": "Success (200 OK)"},
	}
}

// RedirectTemp sends the client to the success endpoint with a 307.
func (s *ControlService) RedirectTemp() domain.ControlResult {
	return domain.ControlResult{
		StatusCode: http.StatusTemporaryRedirect,
		Location:   SuccessPath,
	}
}

func (s *ControlService) ClientFail() domain.ControlResult {
	return domain.ControlResult{
		StatusCode: http.StatusUnauthorized,
		Body:       map[string]string{"error": "Unauthorized (401)"},
	}
}

func (s *ControlService) ServerFail() domain.ControlResult {
	return domain.ControlResult{
		StatusCode: http.StatusServiceUnavailable,
		Body:       map[string]string{"error": "Service Unavailable (503)"},
	}
}

func (s *ControlService) ZeroErrors() domain.ControlResult {
	return domain.ControlResult{
		StatusCode: http.StatusOK,
		Body:       map[string]string{"message": "Perfect run, zero errors targeted."},
	}
}
