package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBacklogSuggestions(t *testing.T) {
	raw := "Here is my analysis.\n```json\n" +
		`{"suggestions": [{"id": 3, "clarified_description": "better", "acceptance_criteria": ["a", "b"], "estimate_hint": 5}]}` +
		"\n```"

	sugs := parseBacklogSuggestions(raw)
	require.Len(t, sugs, 1)
	assert.Equal(t, 3, sugs[0].ID)
	assert.Equal(t, "better", sugs[0].ClarifiedDescription)
	assert.Equal(t, []string{"a", "b"}, sugs[0].AcceptanceCriteria)
	assert.Equal(t, 5.0, sugs[0].EstimateHint)
}

func TestParseBacklogSuggestionsDegradesToEmpty(t *testing.T) {
	for name, raw := range map[string]string{
		"no fence":    "just prose",
		"broken json": "```json\n{nope\n```",
		"missing key": "```json\n{\"other\": 1}\n```",
		"empty input": "",
	} {
		t.Run(name, func(t *testing.T) {
			sugs := parseBacklogSuggestions(raw)
			assert.NotNil(t, sugs)
			assert.Empty(t, sugs)
		})
	}
}
