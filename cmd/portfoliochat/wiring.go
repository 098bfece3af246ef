package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/0xcro3dile/portfolio-chat/internal/adapters/llm"
	"github.com/0xcro3dile/portfolio-chat/internal/adapters/outcomes"
	"github.com/0xcro3dile/portfolio-chat/internal/adapters/profile"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/ports"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/usecases"
	"github.com/0xcro3dile/portfolio-chat/internal/infrastructure/config"
	"github.com/0xcro3dile/portfolio-chat/internal/infrastructure/metrics"
)

// app is everything the commands share.
type app struct {
	profiles *profile.Store
	// reload is nil when the built-in profile is served.
	reload   *usecases.ReloadUseCase
	ledger   ports.OutcomeStore
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	resolver *usecases.Resolver
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{
		profiles: profile.NewStore(profile.Default()),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	if cfg.Profile.Path != "" {
		a.reload = usecases.NewReloadUseCase(profile.NewYAMLLoader(), a.profiles, cfg.Profile.Path, logger)
		if _, err := a.reload.Reload(); err != nil {
			return nil, err
		}
		logger.Info("profile loaded", zap.String("path", cfg.Profile.Path))
	} else {
		logger.Info("serving built-in profile")
	}

	ledger, err := openLedger(cfg)
	if err != nil {
		return nil, err
	}
	a.ledger = ledger

	client := &http.Client{}
	primary := llm.NewHuggingFaceAdapter(llm.HuggingFaceConfig{
		APIKey:  cfg.HuggingFace.APIKey,
		Model:   cfg.HuggingFace.Model,
		URL:     cfg.HuggingFace.URL,
		Timeout: cfg.HuggingFace.Timeout,
	}, client, logger)
	fallback := llm.NewLMStudioAdapter(llm.LMStudioConfig{
		URL:     cfg.LMStudio.URL,
		Model:   cfg.LMStudio.Model,
		Timeout: cfg.LMStudio.Timeout,
	}, client, logger)

	a.resolver = usecases.NewResolver(
		a.profiles,
		a.metrics.InstrumentPrimary(primary),
		a.metrics.InstrumentFallback(fallback),
		a.metrics.InstrumentRecorder(a.ledger),
		usecases.ResolverConfig{
			FallbackEnabled:    cfg.LMStudio.Enabled,
			ForceQuotaExceeded: cfg.HuggingFace.ForceQuotaExceeded,
		},
		logger,
	)
	return a, nil
}

func openLedger(cfg *config.Config) (ports.OutcomeStore, error) {
	if cfg.Outcomes.DBPath == "" {
		return outcomes.NewInMemoryStore(0), nil
	}
	store, err := outcomes.NewSQLiteStore(cfg.Outcomes.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening outcome ledger: %w", err)
	}
	return store, nil
}

var errNoLedger = errors.New("outcomes.db_path is not set; a running server reports its in-memory outcomes at /api/outcomes")

func (a *app) Close() error {
	return a.ledger.Close()
}
