package servicenow

// Incident represents a single incident as returned by the table API.
// It carries only the projected fields requested by the eligible query;
// all fields are read-only from this system's view.
type Incident struct {
	// SysID is the opaque remote identity of the incident
	SysID string `json:"sys_id"`

	// Number is the human-readable ticket code (e.g., "INC0012345")
	Number string `json:"number"`

	// ShortDescription is the incident's one-line summary
	ShortDescription string `json:"short_description"`

	// Description is the incident's free-text body
	Description string `json:"description"`

	// State is the enum-coded incident state
	State string `json:"state"`
}

// incidentListResponse is the envelope the table API wraps query results in.
type incidentListResponse struct {
	Result []Incident `json:"result"`
}

// ResolutionPayload is the canonical partial update applied to resolve an
// incident. Optional fields carry omitempty so an empty rule value is never
// sent to the remote store.
type ResolutionPayload struct {
	State          string `json:"state"`
	CloseCode      string `json:"close_code"`
	CloseNotes     string `json:"close_notes,omitempty"`
	WorkNotes      string `json:"work_notes,omitempty"`
	JiraReference  string `json:"u_jira_reference,omitempty"`
	ParentIncident string `json:"parent_incident,omitempty"`
	KBArticle      string `json:"u_kb_article,omitempty"`
}

// NewResolutionPayload builds the canonical resolution payload from rule
// fields. State and close code are fixed; everything else is optional.
func NewResolutionPayload(closeNotes, workNotes, jiraReference, parentIncident, kbArticle string) ResolutionPayload {
	return ResolutionPayload{
		State:          StateResolved,
		CloseCode:      CloseCodeSolved,
		CloseNotes:     closeNotes,
		WorkNotes:      workNotes,
		JiraReference:  jiraReference,
		ParentIncident: parentIncident,
		KBArticle:      kbArticle,
	}
}
