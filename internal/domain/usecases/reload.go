// Package usecases - reload.go keeps the served profile in step with its file.
package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/ports"
)

// ReloadUseCase loads a profile file and publishes it once it renders.
// A profile that fails to load or render never replaces the current one.
type ReloadUseCase struct {
	loader    ports.ProfileLoader
	publisher ports.ProfilePublisher
	path      string
	logger    *zap.Logger
}

// NewReloadUseCase creates a ReloadUseCase for the profile at path.
func NewReloadUseCase(loader ports.ProfileLoader, publisher ports.ProfilePublisher, path string, logger *zap.Logger) *ReloadUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReloadUseCase{
		loader:    loader,
		publisher: publisher,
		path:      path,
		logger:    logger.With(zap.String("component", "profile-reload"), zap.String("path", path)),
	}
}

// Reload reads the file and publishes the result.
func (uc *ReloadUseCase) Reload() (entities.Profile, error) {
	profile, err := uc.loader.Load(uc.path)
	if err != nil {
		return entities.Profile{}, fmt.Errorf("loading profile: %w", err)
	}
	if _, err := AssembleContext(profile); err != nil {
		return entities.Profile{}, fmt.Errorf("rendering profile: %w", err)
	}
	uc.publisher.Publish(profile)
	return profile, nil
}

// Run reloads on every create or modify event until ctx is done or events
// is closed. Failed reloads are logged and the previous profile stays live.
func (uc *ReloadUseCase) Run(ctx context.Context, events <-chan ports.FileEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Operation {
			case ports.FileCreated, ports.FileModified:
				profile, err := uc.Reload()
				if err != nil {
					uc.logger.Error("profile reload rejected", zap.Error(err))
					continue
				}
				uc.logger.Info("profile reloaded",
					zap.Int("experience", len(profile.Experience)),
					zap.Int("certifications", len(profile.Certifications)),
				)
			case ports.FileDeleted:
				uc.logger.Warn("profile file removed; keeping last loaded profile")
			}
		}
	}
}
