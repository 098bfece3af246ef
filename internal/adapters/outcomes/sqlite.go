// Package outcomes provides the resolution ledger adapters.
// Rows carry status and provider classification only, never question or
// answer text.
package outcomes

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

// SQLiteStore implements ports.OutcomeStore with SQLite persistence.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the ledger at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/outcomes.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outcomes (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL DEFAULT '',
		requested_at_ns INTEGER NOT NULL,
		status INTEGER NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		primary_failure TEXT NOT NULL DEFAULT '',
		fallback_outcome TEXT NOT NULL DEFAULT '',
		used_fallback INTEGER NOT NULL DEFAULT 0,
		latency_ns INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_requested_at ON outcomes(requested_at_ns);
	CREATE INDEX IF NOT EXISTS idx_outcomes_request_id ON outcomes(request_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record implements ports.OutcomeRecorder.
func (s *SQLiteStore) Record(ctx context.Context, o entities.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes
			(id, request_id, requested_at_ns, status, error_kind, primary_failure, fallback_outcome, used_fallback, latency_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.ID,
		o.RequestID,
		o.RequestedAt.UnixNano(),
		o.Status,
		string(o.ErrorKind),
		string(o.PrimaryFailure),
		string(o.FallbackOutcome),
		o.UsedFallback,
		int64(o.Latency),
	)
	if err != nil {
		return fmt.Errorf("inserting outcome: %w", err)
	}
	return nil
}

// Summary aggregates every recorded outcome.
func (s *SQLiteStore) Summary(ctx context.Context) (entities.OutcomeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := entities.OutcomeSummary{ByStatus: make(map[int]int)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(used_fallback), 0)
		FROM outcomes
		GROUP BY status
	`)
	if err != nil {
		return summary, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, count, fallback int
		if err := rows.Scan(&status, &count, &fallback); err != nil {
			return summary, fmt.Errorf("scanning row: %w", err)
		}
		summary.ByStatus[status] = count
		summary.Total += count
		summary.FallbackUsed += fallback
	}
	return summary, rows.Err()
}

// Recent returns up to limit outcomes, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]entities.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, requested_at_ns, status, error_kind, primary_failure, fallback_outcome, used_fallback, latency_ns
		FROM outcomes
		ORDER BY requested_at_ns DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var out []entities.Outcome
	for rows.Next() {
		var (
			o                                 entities.Outcome
			requestedAt, latency              int64
			errorKind, primaryFail, fbOutcome string
		)
		if err := rows.Scan(&o.ID, &o.RequestID, &requestedAt, &o.Status, &errorKind, &primaryFail, &fbOutcome, &o.UsedFallback, &latency); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		o.RequestedAt = time.Unix(0, requestedAt).UTC()
		o.Latency = time.Duration(latency)
		o.ErrorKind = entities.ErrorKind(errorKind)
		o.PrimaryFailure = entities.FailureKind(primaryFail)
		o.FallbackOutcome = entities.FallbackOutcome(fbOutcome)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
