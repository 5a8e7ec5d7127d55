package recorder

import (
	"context"

	"github.com/ishaanzatey/incident-handler/pkg/logger"
)

// Recorder is the append-only audit log of pipeline runs. Two backends
// implement it: a durable Postgres store and a bounded in-memory buffer used
// when the database is unreachable at startup.
type Recorder interface {
	// LogEvent appends a coarse-grained lifecycle event of a run.
	LogEvent(ctx context.Context, executionID, eventType, incidentNumber, message string, metadata map[string]interface{}) error

	// LogOutcome appends the per-incident decision and result.
	LogOutcome(ctx context.Context, outcome Outcome) error

	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, limit int) ([]Event, error)

	// RecentOutcomes returns up to limit outcomes, newest first.
	RecentOutcomes(ctx context.Context, limit int) ([]Outcome, error)

	// Statistics aggregates outcomes for today and all time.
	Statistics(ctx context.Context) (*Statistics, error)

	// Mode reports the active backing store ("postgres" or "memory").
	Mode() string

	// Close releases backing-store resources.
	Close() error
}

// New builds a Recorder against the given Postgres DSN. When the database is
// unreachable (or no DSN is configured) it degrades to the in-memory backend
// with identical semantics: processing must never halt because the audit
// store is down, so no error propagates to the caller.
func New(ctx context.Context, dsn string) Recorder {
	if dsn == "" {
		logger.Warnf("No database configured, using in-memory audit storage (data will not persist)")
		return NewMemory(DefaultMemoryCapacity)
	}

	pg, err := NewPostgres(ctx, dsn)
	if err != nil {
		logger.Warnf("Database connection failed (%v), using in-memory audit storage (data will not persist)", err)
		return NewMemory(DefaultMemoryCapacity)
	}

	logger.Infof("Audit database connected")
	return pg
}
