package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedCompletion = `## COMPLETED YESTERDAY
- Finished the payment webhook handler
- Reviewed the dashboard PR

## PLANNED TODAY
* Add 3D Secure flow
• Pair on search indexing

## BLOCKERS
- Waiting on design

## NOTES
- Velocity looks healthy

` + "```json" + `
{
  "action_items": [{"description": "Chase design assets", "assignee": "Alice", "priority": "high"}],
  "risk_indicators": ["single blocker unresolved for 2 days"],
  "sentiment": "Positive",
  "absent_members": ["Carol"]
}
` + "```"

func TestParseStandupCompletion(t *testing.T) {
	p := ParseStandupCompletion(wellFormedCompletion)

	assert.Equal(t, []string{"Finished the payment webhook handler", "Reviewed the dashboard PR"}, p.CompletedYesterday)
	assert.Equal(t, []string{"Add 3D Secure flow", "Pair on search indexing"}, p.PlannedToday)
	assert.Equal(t, []string{"Waiting on design"}, p.Blockers)

	require.Len(t, p.ActionItems, 1)
	assert.Equal(t, "Chase design assets", p.ActionItems[0].Description)
	assert.Equal(t, "Alice", p.ActionItems[0].Assignee)
	assert.Equal(t, []string{"single blocker unresolved for 2 days"}, p.RiskIndicators)
	assert.Equal(t, []string{"Carol"}, p.AbsentMembers)
	assert.Equal(t, "Positive", p.Sentiment)
	assert.Equal(t, 0.8, p.SentimentScore)
	assert.NotContains(t, p.SummaryText, "```")
}

func TestParseStandupCompletionIsTotal(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":            "",
		"prose only":       "The team had a quiet day with nothing remarkable.",
		"fence only":       "```json\n{\"sentiment\": \"negative\"}\n```",
		"unclosed fence":   "## BLOCKERS\n- stuck\n```json\n{\"sentiment\": \"negative\"",
		"garbage in fence": "summary text\n```json\nnot json at all\n```",
	} {
		t.Run(name, func(t *testing.T) {
			p := ParseStandupCompletion(raw)
			assert.NotNil(t, p.CompletedYesterday)
			assert.NotNil(t, p.PlannedToday)
			assert.NotNil(t, p.Blockers)
			assert.NotNil(t, p.ActionItems)
			assert.NotNil(t, p.RiskIndicators)
			assert.NotNil(t, p.AbsentMembers)
			assert.NotEmpty(t, p.Sentiment)
		})
	}
}

func TestParseStandupCompletionMalformedJSONKeepsNarrative(t *testing.T) {
	raw := "## COMPLETED YESTERDAY\n- shipped the importer\n\n```json\n{broken\n```"
	p := ParseStandupCompletion(raw)

	assert.Equal(t, []string{"shipped the importer"}, p.CompletedYesterday)
	assert.Empty(t, p.ActionItems)
	assert.Empty(t, p.RiskIndicators)
	assert.Equal(t, "neutral", p.Sentiment)
	assert.Equal(t, 0.5, p.SentimentScore)
}

func TestParseStandupCompletionFirstFenceWins(t *testing.T) {
	raw := "```json\n{\"sentiment\": \"positive\"}\n```\ntrailing chatter\n```json\n{\"sentiment\": \"negative\"}\n```"
	p := ParseStandupCompletion(raw)

	assert.Equal(t, "positive", p.Sentiment)
	assert.Equal(t, 0.8, p.SentimentScore)
}

func TestParseStandupCompletionPartialJSONDefaults(t *testing.T) {
	raw := "```json\n{\"risk_indicators\": [\"scope creep\"]}\n```"
	p := ParseStandupCompletion(raw)

	assert.Equal(t, []string{"scope creep"}, p.RiskIndicators)
	assert.Empty(t, p.ActionItems)
	assert.Empty(t, p.AbsentMembers)
	assert.Equal(t, "neutral", p.Sentiment)
}

func TestSplitSectionsHeaderDecorations(t *testing.T) {
	raw := "# completed yesterday:\n- a\n\n**PLANNED TODAY**\n- b\n\n### Blockers\n- c\n"
	p := ParseStandupCompletion(raw)

	assert.Equal(t, []string{"a"}, p.CompletedYesterday)
	assert.Equal(t, []string{"b"}, p.PlannedToday)
	assert.Equal(t, []string{"c"}, p.Blockers)
}

// A section name quoted inside a bullet must not open a new section.
func TestSplitSectionsIgnoresHeadersInsideBullets(t *testing.T) {
	raw := "## COMPLETED YESTERDAY\n- moved PLANNED TODAY items to done\n\n## PLANNED TODAY\n- write docs\n"
	p := ParseStandupCompletion(raw)

	assert.Equal(t, []string{"moved PLANNED TODAY items to done"}, p.CompletedYesterday)
	assert.Equal(t, []string{"write docs"}, p.PlannedToday)
}

func TestBulletItemsSkipsNonBulletLines(t *testing.T) {
	raw := "## BLOCKERS\nSome narrative line.\n- real blocker\n\n   * second blocker\n"
	p := ParseStandupCompletion(raw)

	assert.Equal(t, []string{"real blocker", "second blocker"}, p.Blockers)
}

func TestSentimentScore(t *testing.T) {
	cases := map[string]float64{
		"positive":   0.8,
		"POSITIVE":   0.8,
		"negative":   0.2,
		"neutral":    0.5,
		"mixed":      0.5,
		"Mixed":      0.5,
		"ecstatic":   0.5,
		"":           0.5,
		" Negative ": 0.2,
	}
	for in, want := range cases {
		assert.Equal(t, want, SentimentScore(in), "sentiment %q", in)
	}
}
