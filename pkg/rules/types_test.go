package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRule_Matches(t *testing.T) {
	tests := []struct {
		name             string
		rule             Rule
		shortDescription string
		description      string
		expected         bool
	}{
		{
			name: "both keywords contained",
			rule: Rule{
				IsActive:                true,
				ActionType:              ActionResolve,
				ShortDescriptionKeyword: "disk",
				DescriptionKeyword:      "full",
			},
			shortDescription: "Disk space alert",
			description:      "/var is full",
			expected:         true,
		},
		{
			name: "case-insensitive containment",
			rule: Rule{
				IsActive:                true,
				ActionType:              ActionResolve,
				ShortDescriptionKeyword: "DISK",
				DescriptionKeyword:      "Full",
			},
			shortDescription: "disk space alert",
			description:      "/VAR IS FULL",
			expected:         true,
		},
		{
			name: "short description keyword missing",
			rule: Rule{
				IsActive:                true,
				ActionType:              ActionResolve,
				ShortDescriptionKeyword: "disk",
				DescriptionKeyword:      "full",
			},
			shortDescription: "CPU spike",
			description:      "/var is full",
			expected:         false,
		},
		{
			name: "description keyword missing",
			rule: Rule{
				IsActive:                true,
				ActionType:              ActionResolve,
				ShortDescriptionKeyword: "disk",
				DescriptionKeyword:      "full",
			},
			shortDescription: "Disk space alert",
			description:      "high load",
			expected:         false,
		},
		{
			name: "inactive rule never matches",
			rule: Rule{
				IsActive:                false,
				ActionType:              ActionResolve,
				ShortDescriptionKeyword: "disk",
				DescriptionKeyword:      "full",
			},
			shortDescription: "Disk space alert",
			description:      "/var is full",
			expected:         false,
		},
		{
			name: "non-RESOLVE action never matches",
			rule: Rule{
				IsActive:                true,
				ActionType:              "ESCALATE",
				ShortDescriptionKeyword: "disk",
				DescriptionKeyword:      "full",
			},
			shortDescription: "Disk space alert",
			description:      "/var is full",
			expected:         false,
		},
		{
			name: "empty keywords match everything",
			rule: Rule{
				IsActive:   true,
				ActionType: ActionResolve,
			},
			shortDescription: "anything",
			description:      "at all",
			expected:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.rule.Matches(tt.shortDescription, tt.description)
			assert.Equal(t, tt.expected, result, "Expected correct match result")
		})
	}
}

func TestRule_Redacted(t *testing.T) {
	rule := Rule{
		ID:                      7,
		IsActive:                true,
		ActionType:              ActionResolve,
		ShortDescriptionKeyword: "disk",
		DescriptionKeyword:      "full",
		ClosureNote:             "Cleared temp files",
		WorkNotes:               "Auto-resolved",
		JiraReference:           "OPS-42",
		ParentIncident:          "INC0000001",
		KBArticle:               "KB0000123",
	}

	redacted := rule.Redacted()

	assert.Equal(t, 7, redacted.ID, "Expected rule id to survive redaction")
	assert.Equal(t, "Cleared temp files", redacted.ClosureNote, "Expected closure note to survive redaction")
	assert.Equal(t, "Auto-resolved", redacted.WorkNotes, "Expected work notes to survive redaction")
}
