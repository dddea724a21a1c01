package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/config"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/llm"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"

	"gorm.io/gorm"
)

const analyzeBatchLimit = 20

type BacklogService struct {
	db  *gorm.DB
	llm llm.Generator
	cfg config.LLMConfig
}

func NewBacklogService(db *gorm.DB, gen llm.Generator, llmCfg config.LLMConfig) *BacklogService {
	return &BacklogService{db: db, llm: gen, cfg: llmCfg}
}

func (s *BacklogService) CreateItem(ctx context.Context, req model.BacklogItemRequest) (*model.BacklogItem, error) {
	item := &model.BacklogItem{
		TeamID:      req.TeamID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		StoryPoints: req.StoryPoints,
	}
	if item.Priority == "" {
		item.Priority = "medium"
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("create backlog item: %w", err)
	}
	return item, nil
}

func (s *BacklogService) TeamItems(ctx context.Context, teamID int, status string) ([]model.BacklogItem, error) {
	q := s.db.WithContext(ctx).Where("team_id = ?", teamID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var items []model.BacklogItem
	if err := q.Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list backlog: %w", err)
	}
	return items, nil
}

type BacklogSuggestion struct {
	ID                   int      `json:"id"`
	ClarifiedDescription string   `json:"clarified_description"`
	AcceptanceCriteria   []string `json:"acceptance_criteria"`
	EstimateHint         float64  `json:"estimate_hint"`
}

type BacklogAnalysis struct {
	NoData      bool                `json:"no_data"`
	TeamID      int                 `json:"team_id"`
	Analyzed    int                 `json:"analyzed"`
	Suggestions []BacklogSuggestion `json:"suggestions"`
	TokensUsed  int                 `json:"tokens_used,omitempty"`
}

// AnalyzeBacklog sends the team's open items through the model and stores
// whatever per-item suggestions come back. Same degradation policy as the
// standup parser: an unusable model reply means zero suggestions, not an
// error.
func (s *BacklogService) AnalyzeBacklog(ctx context.Context, teamID int) (*BacklogAnalysis, error) {
	var team model.Team
	if err := s.db.WithContext(ctx).First(&team, teamID).Error; err != nil {
		return nil, fmt.Errorf("team %d: %w", teamID, err)
	}

	var items []model.BacklogItem
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND status = 'open'", teamID).
		Order("id").Limit(analyzeBatchLimit).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("load backlog: %w", err)
	}
	if len(items) == 0 {
		return &BacklogAnalysis{NoData: true, TeamID: teamID}, nil
	}

	promptItems := make([]BacklogPromptItem, len(items))
	byID := make(map[int]*model.BacklogItem, len(items))
	for i := range items {
		promptItems[i] = BacklogPromptItem{
			ID:          items[i].ID,
			Title:       items[i].Title,
			Description: items[i].Description,
			Priority:    items[i].Priority,
			StoryPoints: items[i].StoryPoints,
		}
		byID[items[i].ID] = &items[i]
	}

	start := time.Now()
	comp, err := s.llm.Generate(ctx, llm.GenerateRequest{
		Prompt:       ComposeBacklogAnalysisPrompt(team.Name, promptItems),
		SystemPrompt: backlogSystemPrompt,
		MaxTokens:    s.cfg.MaxTokens,
		Temperature:  s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze backlog: %w", err)
	}
	s.db.WithContext(ctx).Create(&model.AIOperation{
		Type:       "backlog_analysis",
		Backend:    comp.Backend,
		TokensUsed: comp.TokensUsed,
		DurationMS: time.Since(start).Milliseconds(),
		TeamID:     &teamID,
	})

	suggestions := parseBacklogSuggestions(comp.Text)
	applied := 0
	for _, sug := range suggestions {
		item, ok := byID[sug.ID]
		if !ok {
			continue
		}
		raw, _ := json.Marshal(sug)
		err := s.db.WithContext(ctx).Model(item).
			Updates(map[string]interface{}{"ai_analysis": string(raw), "ai_analyzed": true}).Error
		if err != nil {
			logger.Warn("backlog.apply_failed", "item_id", sug.ID, "err", err)
			continue
		}
		applied++
	}

	return &BacklogAnalysis{
		TeamID:      teamID,
		Analyzed:    applied,
		Suggestions: suggestions,
		TokensUsed:  comp.TokensUsed,
	}, nil
}

// parseBacklogSuggestions pulls the json fence out of the completion.
// Missing or malformed fences yield an empty slice.
func parseBacklogSuggestions(raw string) []BacklogSuggestion {
	_, structured := splitFencedJSON(raw)
	if structured == "" {
		return []BacklogSuggestion{}
	}
	var data struct {
		Suggestions []BacklogSuggestion `json:"suggestions"`
	}
	if json.Unmarshal([]byte(structured), &data) != nil || data.Suggestions == nil {
		return []BacklogSuggestion{}
	}
	return data.Suggestions
}
