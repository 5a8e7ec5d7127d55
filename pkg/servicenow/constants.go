package servicenow

import "time"

// Table API configuration
const (
	// IncidentTablePath is the table API path for incidents
	IncidentTablePath = "/api/now/table/incident"

	// EligibleQueryTemplate selects unassigned incidents of one assignment
	// group that are not in a closed/resolved/cancelled state (3,4,6,7)
	EligibleQueryTemplate = "assignment_group=%s^assigned_toISEMPTY^stateNOT IN3,4,6,7"

	// EligibleFields is the field projection requested for eligible incidents
	EligibleFields = "sys_id,number,short_description,description,state"

	// EligibleLimit bounds one fetch to a single page of incidents
	EligibleLimit = 100
)

// Canonical resolution values
const (
	// StateResolved is the incident state code for "Resolved"
	StateResolved = "6"

	// CloseCodeSolved is the close code applied to auto-resolved incidents
	CloseCodeSolved = "Solved (Permanently)"
)

// HTTP configuration
const (
	// DefaultRequestTimeout is the per-request timeout against the table API
	DefaultRequestTimeout = 30 * time.Second
)

// Error messages
const (
	ErrMsgFetch   = "failed to fetch eligible incidents"
	ErrMsgResolve = "failed to apply resolution update"
	ErrMsgDecode  = "failed to decode incident response"
)
