package common

// ErrorResponse is the JSON body returned for any failed API request.
// Every endpoint, including the Fiber error handler, uses this shape so
// dashboard clients can branch on a single error contract.
type ErrorResponse struct {
	// Error is always true on this response type
	Error bool `json:"error"`

	// Message is the human-readable failure description
	Message string `json:"message"`
}
