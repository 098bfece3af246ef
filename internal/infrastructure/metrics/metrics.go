// Package metrics exposes Prometheus instrumentation for the chat service.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/ports"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	RequestCount     *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ProviderCalls    *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	Resolutions      *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestCount: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfoliochat_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "portfoliochat_http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
			},
			[]string{"method", "path"},
		),
		ProviderCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfoliochat_provider_calls_total",
				Help: "Completion provider calls by result",
			},
			[]string{"provider", "result"},
		),
		ProviderLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfoliochat_provider_latency_seconds",
				Help:    "Completion provider latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
			},
			[]string{"provider"},
		),
		Resolutions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfoliochat_resolutions_total",
				Help: "Finished chat resolutions by status and fallback use",
			},
			[]string{"status", "fallback"},
		),
		RateLimitedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "portfoliochat_rate_limited_total",
				Help: "Chat requests rejected by the rate limiter",
			},
		),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	m.RequestCount.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// InstrumentPrimary wraps p so every call is counted and timed.
func (m *Metrics) InstrumentPrimary(p ports.PrimaryProvider) ports.PrimaryProvider {
	return &primaryProvider{next: p, m: m}
}

// InstrumentFallback wraps f so every attempted call is counted and timed.
func (m *Metrics) InstrumentFallback(f ports.FallbackProvider) ports.FallbackProvider {
	return &fallbackProvider{next: f, m: m}
}

// InstrumentRecorder counts every finished resolution before handing it to
// next. next may be nil.
func (m *Metrics) InstrumentRecorder(next ports.OutcomeRecorder) ports.OutcomeRecorder {
	return &recorder{next: next, m: m}
}

type primaryProvider struct {
	next ports.PrimaryProvider
	m    *Metrics
}

func (p *primaryProvider) Name() string { return p.next.Name() }

func (p *primaryProvider) Complete(ctx context.Context, prompt entities.Prompt) entities.ProviderResult {
	start := time.Now()
	res := p.next.Complete(ctx, prompt)
	p.m.ProviderLatency.WithLabelValues(p.next.Name()).Observe(time.Since(start).Seconds())

	result := "answer"
	if !res.OK() {
		result = string(res.Kind)
	}
	p.m.ProviderCalls.WithLabelValues(p.next.Name(), result).Inc()
	return res
}

type fallbackProvider struct {
	next ports.FallbackProvider
	m    *Metrics
}

const fallbackName = "lmstudio"

func (f *fallbackProvider) Configured() bool { return f.next.Configured() }
func (f *fallbackProvider) Model() string    { return f.next.Model() }

func (f *fallbackProvider) Complete(ctx context.Context, prompt entities.Prompt) entities.FallbackResult {
	start := time.Now()
	res := f.next.Complete(ctx, prompt)
	if res.Outcome != entities.FallbackSkipped {
		f.m.ProviderLatency.WithLabelValues(fallbackName).Observe(time.Since(start).Seconds())
	}
	f.m.ProviderCalls.WithLabelValues(fallbackName, string(res.Outcome)).Inc()
	return res
}

type recorder struct {
	next ports.OutcomeRecorder
	m    *Metrics
}

func (r *recorder) Record(ctx context.Context, o entities.Outcome) error {
	r.m.Resolutions.WithLabelValues(strconv.Itoa(o.Status), strconv.FormatBool(o.UsedFallback)).Inc()
	if r.next == nil {
		return nil
	}
	return r.next.Record(ctx, o)
}
