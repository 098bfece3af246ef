// Package http provides the HTTP server infrastructure.
// It is the outermost layer: it decodes nothing itself and hands raw chat
// requests to the resolver.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/ports"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/usecases"
	"github.com/0xcro3dile/portfolio-chat/internal/infrastructure/metrics"
)

// Options configures the server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
	// RateLimitRPS of zero disables per-client limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server is the HTTP server for the chat API.
type Server struct {
	resolver *usecases.Resolver
	profile  ports.ProfileSource
	outcomes ports.OutcomeReader
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	limiter  *clientLimiter
	opts     Options
	logger   *zap.Logger
}

// NewServer creates a new HTTP server. outcomes may be nil, in which case
// /api/outcomes is not served.
func NewServer(
	resolver *usecases.Resolver,
	profile ports.ProfileSource,
	outcomes ports.OutcomeReader,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 128 << 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		resolver: resolver,
		profile:  profile,
		outcomes: outcomes,
		metrics:  m,
		gatherer: gatherer,
		opts:     opts,
		logger:   logger.With(zap.String("component", "http")),
	}
	if opts.RateLimitRPS > 0 {
		s.limiter = newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}
	return s
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "/api/chat", apiHeaders(http.HandlerFunc(s.handleChat)))
	s.route(mux, "/api/health", apiHeaders(http.HandlerFunc(s.handleHealth)))
	if s.outcomes != nil {
		s.route(mux, "/api/outcomes", apiHeaders(http.HandlerFunc(s.handleOutcomes)))
	}
	if s.gatherer != nil {
		s.route(mux, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return s.requestID(s.recoverPanics(mux))
}

// route registers h under path with per-route logging and metrics.
func (s *Server) route(mux *http.ServeMux, path string, h http.Handler) {
	mux.Handle(path, s.observe(path, h))
}

// Start runs the HTTP server until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	s.logger.Info("portfolio chat server starting", zap.String("addr", s.opts.Addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", zap.Error(err))
		}
	}()

	if s.limiter != nil {
		go s.limiter.sweepEvery(ctx, time.Minute)
	}

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type chatResponse struct {
	Answer        string `json:"answer"`
	UsedLmStudio  bool   `json:"usedLmStudio,omitempty"`
	LmStudioModel string `json:"lmStudioModel,omitempty"`
}

// handleChat answers POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if s.limiter != nil && !s.limiter.allow(clientIP(r)) {
		if s.metrics != nil {
			s.metrics.RateLimitedTotal.Inc()
		}
		s.writeError(w, http.StatusTooManyRequests, "Too many questions at once. Please wait a moment and try again.")
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	answer, err := s.resolver.ResolveRequest(r.Context(), r.Header.Get("Content-Type"), body)
	if err != nil {
		var resolved *entities.ResolvedError
		if errors.As(err, &resolved) {
			s.writeError(w, resolved.Status, resolved.Message)
			return
		}
		s.logger.Error("unclassified resolution error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, usecases.GenericMessage(s.profile.Profile().Contact))
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{
		Answer:        answer.Answer,
		UsedLmStudio:  answer.UsedFallback,
		LmStudioModel: answer.FallbackModel,
	})
}

type healthResponse struct {
	Status             string `json:"status"`
	Profile            string `json:"profile"`
	ProfileLoadedAt    string `json:"profileLoadedAt,omitempty"`
	FallbackConfigured bool   `json:"fallbackConfigured"`
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	resp := healthResponse{
		Status:             "ok",
		Profile:            s.profile.Profile().Name,
		FallbackConfigured: s.resolver.FallbackReady(),
	}
	if lt, ok := s.profile.(interface{ LoadedAt() time.Time }); ok {
		resp.ProfileLoadedAt = lt.LoadedAt().UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

const (
	defaultRecentOutcomes = 20
	maxRecentOutcomes     = 100
)

type outcomeView struct {
	ID              string `json:"id"`
	RequestID       string `json:"requestId,omitempty"`
	RequestedAt     string `json:"requestedAt"`
	Status          int    `json:"status"`
	ErrorKind       string `json:"errorKind,omitempty"`
	PrimaryFailure  string `json:"primaryFailure,omitempty"`
	FallbackOutcome string `json:"fallbackOutcome,omitempty"`
	UsedFallback    bool   `json:"usedFallback"`
	LatencyMs       int64  `json:"latencyMs"`
}

type outcomesResponse struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"byStatus"`
	FallbackUsed int            `json:"fallbackUsed"`
	Recent       []outcomeView  `json:"recent"`
}

// handleOutcomes reports the ledger summary and the newest outcomes.
// ?recent=N picks how many rows, up to maxRecentOutcomes.
func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := defaultRecentOutcomes
	if raw := r.URL.Query().Get("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "recent must be a non-negative integer")
			return
		}
		limit = min(n, maxRecentOutcomes)
	}

	summary, err := s.outcomes.Summary(r.Context())
	if err != nil {
		s.logger.Error("reading outcome summary", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Outcomes are unavailable")
		return
	}
	resp := outcomesResponse{
		Total:        summary.Total,
		ByStatus:     make(map[string]int, len(summary.ByStatus)),
		FallbackUsed: summary.FallbackUsed,
		Recent:       []outcomeView{},
	}
	for status, n := range summary.ByStatus {
		resp.ByStatus[strconv.Itoa(status)] = n
	}

	if limit > 0 {
		recent, err := s.outcomes.Recent(r.Context(), limit)
		if err != nil {
			s.logger.Error("reading recent outcomes", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "Outcomes are unavailable")
			return
		}
		for _, o := range recent {
			resp.Recent = append(resp.Recent, outcomeView{
				ID:              o.ID,
				RequestID:       o.RequestID,
				RequestedAt:     o.RequestedAt.UTC().Format(time.RFC3339Nano),
				Status:          o.Status,
				ErrorKind:       string(o.ErrorKind),
				PrimaryFailure:  string(o.PrimaryFailure),
				FallbackOutcome: string(o.FallbackOutcome),
				UsedFallback:    o.UsedFallback,
				LatencyMs:       o.Latency.Milliseconds(),
			})
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	return false
}
