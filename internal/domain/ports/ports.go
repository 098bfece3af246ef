// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

// PrimaryProvider is the first-attempted hosted completion service.
// Implementations must classify every failure into the result and never
// return a raw error.
type PrimaryProvider interface {
	// Complete runs a single-turn completion for the prompt.
	Complete(ctx context.Context, prompt entities.Prompt) entities.ProviderResult

	// Name identifies the provider in logs and metrics.
	Name() string
}

// FallbackProvider is the optional secondary completion service.
// Complete is total: every failure collapses into a non-OK FallbackResult.
type FallbackProvider interface {
	Complete(ctx context.Context, prompt entities.Prompt) entities.FallbackResult

	// Configured reports whether an endpoint is set at all.
	Configured() bool

	// Model is the model identifier reported to clients on fallback answers.
	Model() string
}

// ProfileSource supplies the current knowledge-base snapshot.
// Reads are synchronous and never touch the network.
type ProfileSource interface {
	Profile() entities.Profile
}

// ProfileLoader reads a profile from its backing file.
type ProfileLoader interface {
	Load(path string) (entities.Profile, error)
}

// ProfilePublisher replaces the snapshot a ProfileSource serves.
type ProfilePublisher interface {
	Publish(profile entities.Profile)
}

// OutcomeRecorder receives one record per finished resolution.
type OutcomeRecorder interface {
	Record(ctx context.Context, outcome entities.Outcome) error
}

// OutcomeReader reports on recorded outcomes.
type OutcomeReader interface {
	// Summary aggregates every recorded outcome.
	Summary(ctx context.Context) (entities.OutcomeSummary, error)

	// Recent returns up to limit outcomes, newest first.
	Recent(ctx context.Context, limit int) ([]entities.Outcome, error)
}

// OutcomeStore is a ledger that both records and reports.
type OutcomeStore interface {
	OutcomeRecorder
	OutcomeReader

	Close() error
}

// FileWatcher monitors a single file for changes.
type FileWatcher interface {
	// Watch starts monitoring path and emits events for it.
	Watch(ctx context.Context, path string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
