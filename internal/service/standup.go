package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/config"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/llm"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"
)

// Store is the persistence surface the standup pipeline needs. The gorm
// implementation lives in internal/store; tests use in-memory fakes.
type Store interface {
	TeamByID(ctx context.Context, id int) (*model.Team, error)
	NotesForDate(ctx context.Context, teamID int, date string) ([]model.StatusNote, error)
	UserNames(ctx context.Context, ids []int) (map[int]string, error)
	ActiveMemberNames(ctx context.Context, teamID int) ([]string, error)
	SprintByID(ctx context.Context, id int) (*model.Sprint, error)
	InsertSummary(ctx context.Context, s *model.StandupSummary) error
	DeleteSummariesByTeamDate(ctx context.Context, teamID int, date string) (int64, error)
	CountSummaries(ctx context.Context, teamID int, date string) (int64, error)
	LogOperation(ctx context.Context, op *model.AIOperation)
}

// Duplicate policies for repeated runs on the same (team, date).
const (
	PolicyAllow   = "allow"
	PolicyReplace = "replace"
	PolicyReject  = "reject"
)

// ErrTeamNotFound and ErrDuplicateSummary are business conditions the
// handler maps to 404 and 409.
var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrDuplicateSummary = errors.New("standup summary already exists for this team and date")
)

type StandupService struct {
	store  Store
	llm    llm.Generator
	cfg    config.LLMConfig
	policy string
}

func NewStandupService(store Store, gen llm.Generator, llmCfg config.LLMConfig, policy string) *StandupService {
	if policy == "" {
		policy = PolicyAllow
	}
	return &StandupService{store: store, llm: gen, cfg: llmCfg, policy: policy}
}

type GenerateInput struct {
	TeamID    int
	Date      string
	CreatorID int
}

// GenerateResult distinguishes the routine "nothing to summarize" outcome
// from a produced summary. Infrastructure faults never end up here; they
// come back as errors from Generate.
type GenerateResult struct {
	NoData     bool                  `json:"no_data"`
	Reason     string                `json:"reason,omitempty"`
	TeamID     int                   `json:"team_id"`
	Date       string                `json:"date"`
	Summary    *model.StandupSummary `json:"summary,omitempty"`
	TokensUsed int                   `json:"tokens_used,omitempty"`
	Backend    string                `json:"backend,omitempty"`
}

// Generate runs the pipeline: aggregate notes, compose the prompt, call
// the gateway, parse the completion, persist one summary row.
func (s *StandupService) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	date := in.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	team, err := s.store.TeamByID(ctx, in.TeamID)
	if err != nil {
		return nil, fmt.Errorf("load team %d: %w", in.TeamID, err)
	}
	if team == nil {
		return nil, fmt.Errorf("team %d: %w", in.TeamID, ErrTeamNotFound)
	}

	if s.policy == PolicyReject {
		n, err := s.store.CountSummaries(ctx, in.TeamID, date)
		if err != nil {
			return nil, fmt.Errorf("check existing summaries: %w", err)
		}
		if n > 0 {
			return nil, fmt.Errorf("team %d on %s: %w", in.TeamID, date, ErrDuplicateSummary)
		}
	}

	agg, sprintID, err := s.aggregate(ctx, team, date)
	if err != nil {
		return nil, err
	}
	if len(agg.Notes) == 0 {
		logger.Info("standup.no_data", "team_id", in.TeamID, "date", date)
		return &GenerateResult{
			NoData: true,
			Reason: "no status notes submitted for this team and date",
			TeamID: in.TeamID,
			Date:   date,
		}, nil
	}

	prompt := ComposeStandupPrompt(agg)

	start := time.Now()
	comp, err := s.llm.Generate(ctx, llm.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: standupSystemPrompt,
		MaxTokens:    s.cfg.MaxTokens,
		Temperature:  s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate standup summary: %w", err)
	}
	s.store.LogOperation(ctx, &model.AIOperation{
		Type:       "standup_summary",
		Backend:    comp.Backend,
		TokensUsed: comp.TokensUsed,
		DurationMS: time.Since(start).Milliseconds(),
		TeamID:     &in.TeamID,
	})

	parsed := ParseStandupCompletion(comp.Text)

	if s.policy == PolicyReplace {
		if n, err := s.store.DeleteSummariesByTeamDate(ctx, in.TeamID, date); err != nil {
			return nil, fmt.Errorf("replace existing summaries: %w", err)
		} else if n > 0 {
			logger.Info("standup.replaced", "team_id", in.TeamID, "date", date, "removed", n)
		}
	}

	summary := &model.StandupSummary{
		Date:               date,
		TeamID:             in.TeamID,
		SprintID:           sprintID,
		CreatorID:          in.CreatorID,
		SummaryText:        parsed.SummaryText,
		CompletedYesterday: parsed.CompletedYesterday,
		PlannedToday:       parsed.PlannedToday,
		Blockers:           parsed.Blockers,
		ActionItems:        parsed.ActionItems,
		RiskIndicators:     parsed.RiskIndicators,
		AbsentMembers:      parsed.AbsentMembers,
		Sentiment:          parsed.Sentiment,
		SentimentScore:     parsed.SentimentScore,
		TokensUsed:         comp.TokensUsed,
		Backend:            comp.Backend,
	}
	if err := s.store.InsertSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("persist standup summary: %w", err)
	}

	logger.Info("standup.generated", "team_id", in.TeamID, "date", date,
		"summary_id", summary.ID, "tokens", comp.TokensUsed, "backend", comp.Backend)

	return &GenerateResult{
		TeamID:     in.TeamID,
		Date:       date,
		Summary:    summary,
		TokensUsed: comp.TokensUsed,
		Backend:    comp.Backend,
	}, nil
}

// aggregate fetches the day's notes with author names plus sprint metadata
// when any note references one. Read-only.
func (s *StandupService) aggregate(ctx context.Context, team *model.Team, date string) (AggregatedContext, *int, error) {
	agg := AggregatedContext{TeamName: team.Name, Date: date}

	notes, err := s.store.NotesForDate(ctx, team.ID, date)
	if err != nil {
		return agg, nil, fmt.Errorf("load notes for team %d on %s: %w", team.ID, date, err)
	}
	if len(notes) == 0 {
		return agg, nil, nil
	}

	ids := make([]int, 0, len(notes))
	var sprintID *int
	for _, n := range notes {
		ids = append(ids, n.UserID)
		if sprintID == nil && n.SprintID != nil {
			sprintID = n.SprintID
		}
	}

	names, err := s.store.UserNames(ctx, ids)
	if err != nil {
		return agg, nil, fmt.Errorf("load note authors: %w", err)
	}

	// full roster so the model can tell who did not report in
	if members, err := s.store.ActiveMemberNames(ctx, team.ID); err != nil {
		logger.Warn("standup.members_lookup_failed", "team_id", team.ID, "err", err)
	} else {
		agg.Members = members
	}

	if sprintID != nil {
		sprint, err := s.store.SprintByID(ctx, *sprintID)
		if err != nil {
			return agg, nil, fmt.Errorf("load sprint %d: %w", *sprintID, err)
		}
		if sprint != nil {
			agg.SprintName = sprint.Name
			agg.SprintGoal = sprint.Goal
		}
	}

	for _, n := range notes {
		name := names[n.UserID]
		if name == "" {
			name = fmt.Sprintf("User %d", n.UserID)
		}
		agg.Notes = append(agg.Notes, NoteInput{
			AuthorName: name,
			Completed:  n.Completed,
			Planned:    n.Planned,
			Blockers:   n.Blockers,
			Notes:      n.Notes,
		})
	}
	return agg, sprintID, nil
}
