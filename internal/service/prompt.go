package service

import (
	"fmt"
	"strings"
)

// NoteInput is one person's status rendered into the prompt.
type NoteInput struct {
	AuthorName string
	Completed  []string
	Planned    []string
	Blockers   []string
	Notes      string
}

// AggregatedContext is the assembled input for one (team, date) run. It is
// built fresh per invocation and never persisted.
type AggregatedContext struct {
	TeamName   string
	Date       string
	SprintName string
	SprintGoal string
	Members    []string
	Notes      []NoteInput
}

const standupSystemPrompt = `You are an AI Scrum Master assistant coordinating daily standups. You:
1. Gather standup information from team members
2. Analyze progress on sprint tasks
3. Identify blockers and risks
4. Generate clear, actionable standup summaries

Be objective, constructive, and focused on team productivity. Keep summaries concise but informative.`

const sprintPlanningSystemPrompt = `You are an AI Scrum Master assistant helping with sprint planning. Consider team capacity and velocity, identify dependencies and risks, and suggest realistic sprint goals. Be concise.`

const backlogSystemPrompt = `You are an AI Scrum Master assistant grooming a product backlog. Assess story clarity and completeness, suggest acceptance criteria when missing, and estimate complexity from the description. Be constructive and specific.`

// ComposeStandupPrompt renders an AggregatedContext into the instruction
// string sent to the model. Pure function: same context, same bytes. The
// output-format block is a contract with ParseStandupCompletion; do not
// reword the headers or the json fence without updating the parser tests.
func ComposeStandupPrompt(agg AggregatedContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Team: %s\n", agg.TeamName)
	fmt.Fprintf(&sb, "Date: %s\n", agg.Date)
	if agg.SprintName != "" {
		fmt.Fprintf(&sb, "Sprint: %s", agg.SprintName)
		if agg.SprintGoal != "" {
			fmt.Fprintf(&sb, " (Goal: %s)", agg.SprintGoal)
		}
		sb.WriteString("\n")
	}
	if len(agg.Members) > 0 {
		fmt.Fprintf(&sb, "Team members: %s\n", strings.Join(agg.Members, ", "))
	}

	sb.WriteString("\nStatus notes from team members:\n")
	for _, n := range agg.Notes {
		fmt.Fprintf(&sb, "\n%s\n", n.AuthorName)
		writeGroup(&sb, "Completed Yesterday", n.Completed, "Nothing reported")
		writeGroup(&sb, "Planned Today", n.Planned, "Nothing planned")
		writeGroup(&sb, "Blockers", n.Blockers, "No blockers")
		if n.Notes != "" {
			fmt.Fprintf(&sb, "Notes: %s\n", n.Notes)
		}
	}

	sb.WriteString(`
Create a structured standup summary in exactly this format:

## COMPLETED YESTERDAY
- [list accomplishments across the team]

## PLANNED TODAY
- [list planned work]

## BLOCKERS
- [list blockers or impediments]

## NOTES
- [additional observations, risks, or suggestions]

After the summary, append a fenced code block tagged json containing a JSON object with exactly these keys:

` + "```json" + `
{
  "action_items": [{"description": "...", "assignee": "...", "priority": "high|medium|low"}],
  "risk_indicators": ["..."],
  "sentiment": "positive|neutral|negative|mixed",
  "absent_members": ["..."]
}
` + "```" + `

Do not add any text after the closing fence.
`)

	return sb.String()
}

func writeGroup(sb *strings.Builder, label string, items []string, placeholder string) {
	fmt.Fprintf(sb, "%s:\n", label)
	if len(items) == 0 {
		fmt.Fprintf(sb, "%s\n", placeholder)
		return
	}
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
}

// ComposeSprintGoalPrompt asks for a one-sentence sprint goal for the
// selected items. Plain-text reply, no structured contract.
func ComposeSprintGoalPrompt(teamName string, itemTitles []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Team %s is planning a sprint with these backlog items:\n", teamName)
	for _, t := range itemTitles {
		fmt.Fprintf(&sb, "- %s\n", t)
	}
	sb.WriteString("\nSuggest a single concise sprint goal (one sentence, no preamble).\n")
	return sb.String()
}

// ComposeBacklogAnalysisPrompt lists backlog items and requests per-item
// suggestions inside a json fence, reusing the standup fence extraction.
func ComposeBacklogAnalysisPrompt(teamName string, items []BacklogPromptItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the backlog for team %s:\n", teamName)
	for _, it := range items {
		fmt.Fprintf(&sb, "\n[%d] %s (priority: %s", it.ID, it.Title, it.Priority)
		if it.StoryPoints != nil {
			fmt.Fprintf(&sb, ", points: %g", *it.StoryPoints)
		}
		sb.WriteString(")\n")
		if it.Description != "" {
			fmt.Fprintf(&sb, "%s\n", it.Description)
		}
	}

	sb.WriteString(`
For each item return clarity feedback. Respond with only a fenced code block tagged json containing:

` + "```json" + `
{
  "suggestions": [
    {
      "id": 1,
      "clarified_description": "...",
      "acceptance_criteria": ["..."],
      "estimate_hint": 3
    }
  ]
}
` + "```" + `
`)

	return sb.String()
}

type BacklogPromptItem struct {
	ID          int
	Title       string
	Description string
	Priority    string
	StoryPoints *float64
}
