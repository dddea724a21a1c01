package service

import (
	"encoding/json"
	"strings"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"
)

// ParsedSummary is the structured interpretation of one LLM completion.
// Every field has a defined default, so a ParsedSummary is always usable
// no matter what the model returned.
type ParsedSummary struct {
	SummaryText        string
	CompletedYesterday []string
	PlannedToday       []string
	Blockers           []string
	ActionItems        []model.ActionItem
	RiskIndicators     []string
	Sentiment          string
	SentimentScore     float64
	AbsentMembers      []string
}

const (
	sectionCompleted = "COMPLETED YESTERDAY"
	sectionPlanned   = "PLANNED TODAY"
	sectionBlockers  = "BLOCKERS"
	sectionNotes     = "NOTES"
)

var sectionNames = []string{sectionCompleted, sectionPlanned, sectionBlockers, sectionNotes}

// ParseStandupCompletion interprets a raw completion. It is total: any
// input string, including empty or pure prose, yields a valid result.
// Malformed structured data degrades to defaults instead of failing the
// pipeline; a summary with empty action items beats no summary at all.
func ParseStandupCompletion(raw string) ParsedSummary {
	narrative, structured := splitFencedJSON(raw)

	p := ParsedSummary{
		SummaryText:        strings.TrimSpace(narrative),
		CompletedYesterday: []string{},
		PlannedToday:       []string{},
		Blockers:           []string{},
		ActionItems:        []model.ActionItem{},
		RiskIndicators:     []string{},
		Sentiment:          "neutral",
		AbsentMembers:      []string{},
	}

	var data struct {
		ActionItems    []model.ActionItem `json:"action_items"`
		RiskIndicators []string           `json:"risk_indicators"`
		Sentiment      string             `json:"sentiment"`
		AbsentMembers  []string           `json:"absent_members"`
	}
	if structured != "" && json.Unmarshal([]byte(structured), &data) == nil {
		if data.ActionItems != nil {
			p.ActionItems = data.ActionItems
		}
		if data.RiskIndicators != nil {
			p.RiskIndicators = data.RiskIndicators
		}
		if data.AbsentMembers != nil {
			p.AbsentMembers = data.AbsentMembers
		}
		if strings.TrimSpace(data.Sentiment) != "" {
			p.Sentiment = strings.TrimSpace(data.Sentiment)
		}
	}
	p.SentimentScore = SentimentScore(p.Sentiment)

	sections := splitSections(narrative)
	p.CompletedYesterday = bulletItems(sections[sectionCompleted])
	p.PlannedToday = bulletItems(sections[sectionPlanned])
	p.Blockers = bulletItems(sections[sectionBlockers])

	return p
}

// splitFencedJSON cuts the input at the first ```json fence. Text before
// the fence is narrative; text between the fence and the next ``` (or end
// of input when unclosed) is the structured candidate.
func splitFencedJSON(raw string) (narrative, structured string) {
	const opener = "```json"
	i := strings.Index(raw, opener)
	if i < 0 {
		return raw, ""
	}
	narrative = raw[:i]
	rest := raw[i+len(opener):]
	if j := strings.Index(rest, "```"); j >= 0 {
		return narrative, rest[:j]
	}
	return narrative, rest
}

// splitSections walks the narrative line by line, attributing each line to
// the most recent section header. Matching is anchored on whole header
// lines, never substring search, so section names quoted inside bullet
// prose do not start a new section.
func splitSections(narrative string) map[string][]string {
	sections := make(map[string][]string, len(sectionNames))
	current := ""
	for _, line := range strings.Split(narrative, "\n") {
		if name, ok := headerName(line); ok {
			current = name
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}
	return sections
}

// headerName reports whether a line is a section header. Tolerated
// decoration: leading #s, a bold ** wrap, a trailing colon, any case.
func headerName(line string) (string, bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ":")
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, name := range sectionNames {
		if s == name {
			return name, true
		}
	}
	return "", false
}

// bulletItems keeps lines whose first non-space rune is -, * or • and
// strips the marker. Everything else is dropped; no bullets is a valid
// empty list.
func bulletItems(lines []string) []string {
	items := []string{}
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		r := []rune(s)
		switch r[0] {
		case '-', '*', '•':
			item := strings.TrimSpace(string(r[1:]))
			if item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

// SentimentScore maps a categorical sentiment to its numeric proxy.
// Unknown labels read as neutral.
func SentimentScore(sentiment string) float64 {
	switch strings.ToLower(strings.TrimSpace(sentiment)) {
	case "positive":
		return 0.8
	case "negative":
		return 0.2
	case "neutral", "mixed":
		return 0.5
	default:
		return 0.5
	}
}
