package rules

import "strings"

// ActionResolve is the only action type the pipeline acts on.
const ActionResolve = "RESOLVE"

// Rule is a keyword-based resolution rule from the incident_sop_rules table.
// Optional fields use the empty string for absence; empty fields are never
// forwarded to the remote store.
type Rule struct {
	// ID is the rule's primary key; the lowest matching id wins a tie
	ID int `json:"id"`

	// IsActive gates the rule; inactive rules never match
	IsActive bool `json:"is_active"`

	// ActionType must be RESOLVE for the rule to be eligible
	ActionType string `json:"action_type"`

	// ShortDescriptionKeyword must appear in the incident short description
	ShortDescriptionKeyword string `json:"short_description_keyword"`

	// DescriptionKeyword must appear in the incident description
	DescriptionKeyword string `json:"description_keyword"`

	// CloseNotes applied on resolution (optional)
	ClosureNote string `json:"closure_note,omitempty"`

	// Work notes applied on resolution (optional)
	WorkNotes string `json:"work_notes,omitempty"`

	// Cross-reference fields applied on resolution (optional)
	JiraReference  string `json:"jira_reference,omitempty"`
	ParentIncident string `json:"parent_incident,omitempty"`
	KBArticle      string `json:"kb_article,omitempty"`
}

// Matches reports whether this rule applies to an incident: both keywords
// must be contained case-insensitively in their respective fields, and the
// rule must be an active RESOLVE rule.
func (r *Rule) Matches(shortDescription, description string) bool {
	if !r.IsActive || r.ActionType != ActionResolve {
		return false
	}
	return strings.Contains(strings.ToLower(shortDescription), strings.ToLower(r.ShortDescriptionKeyword)) &&
		strings.Contains(strings.ToLower(description), strings.ToLower(r.DescriptionKeyword))
}

// RedactedRule is the broadcast view of a matched rule. Cross-reference
// fields (Jira, parent incident, KB article) are deliberately excluded from
// the live stream.
type RedactedRule struct {
	ID          int    `json:"id"`
	ClosureNote string `json:"closure_note,omitempty"`
	WorkNotes   string `json:"work_notes,omitempty"`
}

// Redacted returns the view of the rule safe for dashboard broadcast.
func (r *Rule) Redacted() RedactedRule {
	return RedactedRule{
		ID:          r.ID,
		ClosureNote: r.ClosureNote,
		WorkNotes:   r.WorkNotes,
	}
}
