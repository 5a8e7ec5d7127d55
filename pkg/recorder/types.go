package recorder

import "time"

// Outcome statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Actions taken per incident
const (
	ActionResolved = "resolved"
	ActionSkipped  = "skipped"
)

// Storage modes reported by Mode()
const (
	ModePostgres = "postgres"
	ModeMemory   = "memory"
)

// Event is one coarse-grained lifecycle record of a pipeline run.
// Events are append-only; nothing in the system mutates or deletes them.
type Event struct {
	// ID is the storage-assigned row id (zero for in-memory records)
	ID int64 `json:"id,omitempty"`

	// ExecutionID identifies the pipeline run this event belongs to
	ExecutionID string `json:"execution_id"`

	// Timestamp is when the event was recorded
	Timestamp time.Time `json:"timestamp"`

	// EventType is the lifecycle event name (e.g., "execution_started")
	EventType string `json:"event_type"`

	// IncidentNumber is set for per-incident events (optional)
	IncidentNumber string `json:"incident_number,omitempty"`

	// Message is a human-readable note (optional)
	Message string `json:"message,omitempty"`

	// Metadata carries structured context (optional)
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Outcome is the per-incident decision and result of one pipeline run.
type Outcome struct {
	// ID is the storage-assigned row id (zero for in-memory records)
	ID int64 `json:"id,omitempty"`

	// IncidentNumber is the human-readable ticket code
	IncidentNumber string `json:"incident_number"`

	// IncidentSysID is the remote identity of the incident
	IncidentSysID string `json:"incident_sys_id"`

	// ShortDescription is the incident summary at processing time
	ShortDescription string `json:"short_description"`

	// MatchedRuleID is the id of the matched rule, nil when none matched
	MatchedRuleID *int `json:"matched_rule_id,omitempty"`

	// ActionTaken is "resolved" or "skipped"; a failed resolution attempt
	// still records "resolved" as the attempted action
	ActionTaken string `json:"action_taken"`

	// Status is "success", "failed", or "skipped"
	Status string `json:"status"`

	// ProcessedAt is when the incident was processed
	ProcessedAt time.Time `json:"processed_at"`

	// ErrorMessage carries the failure text for failed outcomes (optional)
	ErrorMessage string `json:"error_message,omitempty"`
}

// DailyStats partitions one day's outcomes by status.
type DailyStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// AllTimeStats aggregates outcomes across the full history.
type AllTimeStats struct {
	Total int `json:"total"`
}

// Statistics is the aggregate view served to the dashboard.
type Statistics struct {
	Today   DailyStats   `json:"today"`
	AllTime AllTimeStats `json:"all_time"`
}
