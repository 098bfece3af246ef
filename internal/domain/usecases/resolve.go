// Package usecases - resolve.go sequences the providers and owns the
// failure-to-status mapping.
package usecases

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/ports"
)

// ResolverConfig holds the deployment toggles of the fallback policy.
// Neither field can be influenced by a request.
type ResolverConfig struct {
	// FallbackEnabled allows the fallback provider to be tried at all.
	FallbackEnabled bool
	// ForceQuotaExceeded treats every primary call as quota exhausted
	// without contacting the primary.
	ForceQuotaExceeded bool
}

// Resolver turns a question into exactly one answer or one user-safe error.
// A single Resolver serves all requests; it holds no per-request state.
type Resolver struct {
	profile  ports.ProfileSource
	primary  ports.PrimaryProvider
	fallback ports.FallbackProvider
	recorder ports.OutcomeRecorder
	cfg      ResolverConfig
	logger   *zap.Logger
}

// NewResolver creates a Resolver with injected dependencies.
// fallback and recorder may be nil.
func NewResolver(
	profile ports.ProfileSource,
	primary ports.PrimaryProvider,
	fallback ports.FallbackProvider,
	recorder ports.OutcomeRecorder,
	cfg ResolverConfig,
	logger *zap.Logger,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		profile:  profile,
		primary:  primary,
		fallback: fallback,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "resolver")),
	}
}

// trail collects what happened during one resolution for the ledger.
type trail struct {
	primary  entities.FailureKind
	fallback entities.FallbackOutcome
}

// ResolveRequest validates a raw chat request and resolves its question.
func (r *Resolver) ResolveRequest(ctx context.Context, contentType string, body io.Reader) (*entities.ResolvedAnswer, error) {
	start := time.Now()
	q, err := ValidateRequest(contentType, body)
	if err != nil {
		r.record(ctx, start, trail{}, nil, err)
		return nil, err
	}
	return r.resolveFrom(ctx, start, q)
}

// Resolve answers an already validated question.
func (r *Resolver) Resolve(ctx context.Context, q entities.Question) (*entities.ResolvedAnswer, error) {
	return r.resolveFrom(ctx, time.Now(), q)
}

func (r *Resolver) resolveFrom(ctx context.Context, start time.Time, q entities.Question) (*entities.ResolvedAnswer, error) {
	var t trail
	answer, err := r.resolve(ctx, q, &t)
	r.record(ctx, start, t, answer, err)
	return answer, err
}

func (r *Resolver) resolve(ctx context.Context, q entities.Question, t *trail) (*entities.ResolvedAnswer, error) {
	profile := r.profile.Profile()
	contact := profile.Contact

	knowledge, err := AssembleContext(profile)
	if err != nil {
		r.logger.Error("context assembly failed", zap.Error(err))
		return nil, &entities.ResolvedError{
			Status:  http.StatusInternalServerError,
			Kind:    entities.ErrContextAssembly,
			Message: GenericMessage(contact),
		}
	}
	prompt := entities.Prompt{Question: string(q), Context: knowledge}

	primary := r.callPrimary(ctx, prompt)
	if primary.OK() {
		return &entities.ResolvedAnswer{Answer: primary.Answer}, nil
	}
	t.primary = primary.Kind
	r.logger.Warn("primary provider failed",
		zap.String("provider", r.primary.Name()),
		zap.String("kind", string(primary.Kind)),
		zap.String("detail", primary.Detail),
	)

	fb := r.callFallback(ctx, prompt)
	t.fallback = fb.Outcome
	if fb.OK() {
		r.logger.Info("answered by fallback", zap.String("model", fb.Model))
		return &entities.ResolvedAnswer{
			Answer:        fb.Answer,
			UsedFallback:  true,
			FallbackModel: fb.Model,
		}, nil
	}
	if fb.Outcome != entities.FallbackSkipped {
		r.logger.Warn("fallback provider failed",
			zap.String("outcome", string(fb.Outcome)),
			zap.String("detail", fb.Detail),
		)
	}

	switch {
	case primary.Kind == entities.FailureQuotaExceeded:
		// Quota stays the classification whatever the fallback did.
		return nil, &entities.ResolvedError{
			Status:  http.StatusPaymentRequired,
			Kind:    entities.ErrQuotaExceeded,
			Message: QuotaMessage(contact),
		}
	case fb.Outcome == entities.FallbackUnreachable:
		return nil, &entities.ResolvedError{
			Status:  http.StatusServiceUnavailable,
			Kind:    entities.ErrProviderUnavailable,
			Message: UnavailableMessage(contact),
		}
	default:
		return nil, &entities.ResolvedError{
			Status:  http.StatusInternalServerError,
			Kind:    entities.ErrUnknown,
			Message: GenericMessage(contact),
		}
	}
}

func (r *Resolver) callPrimary(ctx context.Context, prompt entities.Prompt) entities.ProviderResult {
	if r.cfg.ForceQuotaExceeded {
		return entities.FailureResult(entities.FailureQuotaExceeded, "quota exceeded forced by configuration")
	}
	return r.primary.Complete(ctx, prompt)
}

// callFallback makes at most one fallback attempt, and only once the primary
// has returned.
func (r *Resolver) callFallback(ctx context.Context, prompt entities.Prompt) entities.FallbackResult {
	if !r.cfg.FallbackEnabled || r.fallback == nil || !r.fallback.Configured() {
		return entities.FallbackResult{Outcome: entities.FallbackSkipped}
	}
	res := r.fallback.Complete(ctx, prompt)
	if res.OK() && res.Model == "" {
		res.Model = r.fallback.Model()
	}
	return res
}

// FallbackReady reports whether a failed primary call would be retried on the
// fallback provider.
func (r *Resolver) FallbackReady() bool {
	return r.cfg.FallbackEnabled && r.fallback != nil && r.fallback.Configured()
}

func (r *Resolver) record(ctx context.Context, start time.Time, t trail, answer *entities.ResolvedAnswer, err error) {
	if r.recorder == nil {
		return
	}

	outcome := entities.Outcome{
		ID:              uuid.NewString(),
		RequestID:       RequestID(ctx),
		RequestedAt:     start.UTC(),
		Status:          http.StatusOK,
		PrimaryFailure:  t.primary,
		FallbackOutcome: t.fallback,
		Latency:         time.Since(start),
	}
	if answer != nil {
		outcome.UsedFallback = answer.UsedFallback
	}
	var resolved *entities.ResolvedError
	if errors.As(err, &resolved) {
		outcome.Status = resolved.Status
		outcome.ErrorKind = resolved.Kind
	}

	// The response must not depend on the ledger, so the request context's
	// cancellation is dropped here.
	if recErr := r.recorder.Record(context.WithoutCancel(ctx), outcome); recErr != nil {
		r.logger.Warn("recording outcome failed", zap.Error(recErr))
	}
}

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
