package recorder

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the append-only audit tables. Indexes match the dashboard's
// read paths: events by run id and by time descending, outcomes by time
// descending.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS execution_logs (
		id SERIAL PRIMARY KEY,
		execution_id UUID NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		event_type VARCHAR(50) NOT NULL,
		incident_number VARCHAR(50),
		message TEXT,
		metadata JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS incident_processing_history (
		id SERIAL PRIMARY KEY,
		incident_number VARCHAR(50) NOT NULL,
		incident_sys_id VARCHAR(100),
		short_description TEXT,
		matched_rule_id INTEGER,
		action_taken VARCHAR(50),
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		status VARCHAR(20) NOT NULL,
		error_message TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_execution_logs_execution_id ON execution_logs(execution_id)`,
	`CREATE INDEX IF NOT EXISTS idx_execution_logs_timestamp ON execution_logs(timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_incident_history_processed_at ON incident_processing_history(processed_at DESC)`,
}

// Postgres is the durable Recorder backend.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the audit database, verifies connectivity, and
// ensures the audit tables exist.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	p := &Postgres{pool: pool}
	if err := p.ensureTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureTables(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) LogEvent(ctx context.Context, executionID, eventType, incidentNumber, message string, metadata map[string]interface{}) error {
	var metadataJSON interface{}
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		metadataJSON = string(data)
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO execution_logs (execution_id, event_type, incident_number, message, metadata)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)`,
		executionID, eventType, incidentNumber, message, metadataJSON)
	return err
}

func (p *Postgres) LogOutcome(ctx context.Context, outcome Outcome) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO incident_processing_history
		(incident_number, incident_sys_id, short_description, matched_rule_id, action_taken, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`,
		outcome.IncidentNumber, outcome.IncidentSysID, outcome.ShortDescription,
		outcome.MatchedRuleID, outcome.ActionTaken, outcome.Status, outcome.ErrorMessage)
	return err
}

func (p *Postgres) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, execution_id, timestamp, event_type,
		       COALESCE(incident_number, ''), COALESCE(message, ''), metadata
		FROM execution_logs
		ORDER BY timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var metadataJSON []byte
		if err := rows.Scan(&e.ID, &e.ExecutionID, &e.Timestamp, &e.EventType,
			&e.IncidentNumber, &e.Message, &metadataJSON); err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, err
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (p *Postgres) RecentOutcomes(ctx context.Context, limit int) ([]Outcome, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, incident_number, COALESCE(incident_sys_id, ''), COALESCE(short_description, ''),
		       matched_rule_id, COALESCE(action_taken, ''), processed_at, status, COALESCE(error_message, '')
		FROM incident_processing_history
		ORDER BY processed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outcomes := []Outcome{}
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.ID, &o.IncidentNumber, &o.IncidentSysID, &o.ShortDescription,
			&o.MatchedRuleID, &o.ActionTaken, &o.ProcessedAt, &o.Status, &o.ErrorMessage); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func (p *Postgres) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}

	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $1),
		       COUNT(*) FILTER (WHERE status = $2),
		       COUNT(*) FILTER (WHERE status = $3)
		FROM incident_processing_history
		WHERE DATE(processed_at) = CURRENT_DATE`,
		StatusSuccess, StatusFailed, StatusSkipped).
		Scan(&stats.Today.Total, &stats.Today.Success, &stats.Today.Failed, &stats.Today.Skipped)
	if err != nil {
		return nil, err
	}

	err = p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM incident_processing_history`).
		Scan(&stats.AllTime.Total)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (p *Postgres) Mode() string {
	return ModePostgres
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
