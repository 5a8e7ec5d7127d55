package health

import "time"

// HealthResponse represents the health check response structure.
// It reports liveness plus the audit-store mode and the number of live
// dashboard subscribers, mirroring what operators need to judge whether
// the dashboard reflects durable or in-memory state.
type HealthResponse struct {
	// Status indicates the current server status (e.g., "healthy")
	Status string `json:"status"`

	// Timestamp is when the health check was performed
	Timestamp time.Time `json:"timestamp"`

	// Version is the server version information
	Version string `json:"version"`

	// Uptime is the server uptime duration
	Uptime string `json:"uptime"`

	// DatabaseMode is the active audit backing store ("postgres" or "memory")
	DatabaseMode string `json:"database_mode"`

	// ActiveConnections is the number of live stream subscribers
	ActiveConnections int `json:"active_connections"`
}
