package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

type stubPrimary struct{ res entities.ProviderResult }

func (s stubPrimary) Complete(context.Context, entities.Prompt) entities.ProviderResult { return s.res }
func (s stubPrimary) Name() string                                                    { return "huggingface" }

type stubFallback struct{ res entities.FallbackResult }

func (s stubFallback) Complete(context.Context, entities.Prompt) entities.FallbackResult { return s.res }
func (s stubFallback) Configured() bool                                                 { return true }
func (s stubFallback) Model() string                                                    { return "local-model" }

type stubRecorder struct {
	got []entities.Outcome
	err error
}

func (s *stubRecorder) Record(_ context.Context, o entities.Outcome) error {
	s.got = append(s.got, o)
	return s.err
}

func TestInstrumentPrimary(t *testing.T) {
	m := New(prometheus.NewRegistry())

	ok := m.InstrumentPrimary(stubPrimary{res: entities.AnswerResult("hi")})
	quota := m.InstrumentPrimary(stubPrimary{res: entities.FailureResult(entities.FailureQuotaExceeded, "402")})

	assert.Equal(t, "hi", ok.Complete(context.Background(), entities.Prompt{}).Answer)
	quota.Complete(context.Background(), entities.Prompt{})
	quota.Complete(context.Background(), entities.Prompt{})

	assert.Equal(t, "huggingface", ok.Name())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("huggingface", "answer")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("huggingface", "quota_exceeded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProviderLatency))
}

func TestInstrumentFallback(t *testing.T) {
	m := New(prometheus.NewRegistry())
	f := m.InstrumentFallback(stubFallback{res: entities.FallbackResult{Outcome: entities.FallbackUnreachable}})

	res := f.Complete(context.Background(), entities.Prompt{})

	assert.Equal(t, entities.FallbackUnreachable, res.Outcome)
	assert.True(t, f.Configured())
	assert.Equal(t, "local-model", f.Model())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("lmstudio", "unreachable")))
}

func TestInstrumentRecorder(t *testing.T) {
	m := New(prometheus.NewRegistry())
	next := &stubRecorder{err: errors.New("disk full")}
	rec := m.InstrumentRecorder(next)

	err := rec.Record(context.Background(), entities.Outcome{Status: 200, UsedFallback: true})

	assert.EqualError(t, err, "disk full")
	assert.Len(t, next.got, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("200", "true")))
}

func TestInstrumentRecorder_NilNext(t *testing.T) {
	m := New(prometheus.NewRegistry())

	assert.NoError(t, m.InstrumentRecorder(nil).Record(context.Background(), entities.Outcome{Status: 402}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("402", "false")))
}

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("POST", "/api/chat", 200, 150*time.Millisecond)
	m.ObserveRequest("POST", "/api/chat", 415, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("POST", "/api/chat", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestCount))
}
