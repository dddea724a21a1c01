package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/config"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/llm"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"

	"gorm.io/gorm"
)

// Sprint planning is rule-based: velocity and capacity arithmetic drive
// the plan, the model only drafts the goal sentence.
type SprintService struct {
	db  *gorm.DB
	llm llm.Generator
	cfg config.LLMConfig
}

func NewSprintService(db *gorm.DB, gen llm.Generator, llmCfg config.LLMConfig) *SprintService {
	return &SprintService{db: db, llm: gen, cfg: llmCfg}
}

const (
	defaultCapacity = 20.0
	maxSprintDays   = 28
	velocityWindow  = 3
	dateLayout      = "2006-01-02"
)

var statusTransitions = map[string][]string{
	"planning": {"active", "cancelled"},
	"active":   {"completed", "cancelled"},
}

func (s *SprintService) CreateSprint(ctx context.Context, req model.SprintCreateRequest) (*model.Sprint, error) {
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end_date must be after start_date")
	}
	if end.Sub(start) > maxSprintDays*24*time.Hour {
		return nil, fmt.Errorf("sprint longer than %d days", maxSprintDays)
	}

	var overlapping int64
	err = s.db.WithContext(ctx).Model(&model.Sprint{}).
		Where("team_id = ? AND status IN ('planning', 'active')", req.TeamID).
		Where("start_date <= ? AND end_date >= ?", req.EndDate, req.StartDate).
		Count(&overlapping).Error
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if overlapping > 0 {
		return nil, fmt.Errorf("team %d already has a sprint overlapping %s..%s", req.TeamID, req.StartDate, req.EndDate)
	}

	sprint := &model.Sprint{
		TeamID:    req.TeamID,
		Name:      req.Name,
		Goal:      req.Goal,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    "planning",
	}
	if err := s.db.WithContext(ctx).Create(sprint).Error; err != nil {
		return nil, fmt.Errorf("create sprint: %w", err)
	}
	return sprint, nil
}

func (s *SprintService) UpdateStatus(ctx context.Context, sprintID int, status string) (*model.Sprint, error) {
	var sprint model.Sprint
	if err := s.db.WithContext(ctx).First(&sprint, sprintID).Error; err != nil {
		return nil, fmt.Errorf("sprint %d: %w", sprintID, err)
	}
	if !validTransition(sprint.Status, status) {
		return nil, fmt.Errorf("cannot move sprint from %s to %s", sprint.Status, status)
	}

	updates := map[string]interface{}{"status": status}
	if status == "completed" {
		var done float64
		s.db.WithContext(ctx).Model(&model.BacklogItem{}).
			Where("sprint_id = ? AND status = 'done'", sprintID).
			Select("COALESCE(SUM(story_points), 0)").Scan(&done)
		updates["velocity"] = done
	}
	if err := s.db.WithContext(ctx).Model(&sprint).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update sprint: %w", err)
	}
	return &sprint, nil
}

func (s *SprintService) TeamSprints(ctx context.Context, teamID int) ([]model.Sprint, error) {
	var sprints []model.Sprint
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("start_date DESC").Find(&sprints).Error
	if err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	return sprints, nil
}

type VelocityMetrics struct {
	Average    float64 `json:"average"`
	Trend      string  `json:"trend"`
	Confidence string  `json:"confidence"`
	Samples    int     `json:"samples"`
}

type SprintPlan struct {
	Sprint        *model.Sprint       `json:"sprint"`
	Capacity      float64             `json:"capacity"`
	PlannedPoints float64             `json:"planned_points"`
	Utilization   float64             `json:"utilization"`
	Items         []model.BacklogItem `json:"items"`
	Risks         []string            `json:"risks"`
	Velocity      VelocityMetrics     `json:"velocity"`
}

// PlanSprint fills a planning sprint from the team's open backlog: greedy
// pick by priority weight until capacity, risk notes for what the rules
// cannot see, then one LLM call for the goal sentence. A goal drafting
// failure degrades to the existing goal; the plan itself never depends on
// the model.
func (s *SprintService) PlanSprint(ctx context.Context, sprintID int) (*SprintPlan, error) {
	var sprint model.Sprint
	if err := s.db.WithContext(ctx).First(&sprint, sprintID).Error; err != nil {
		return nil, fmt.Errorf("sprint %d: %w", sprintID, err)
	}
	teamID := sprint.TeamID
	if sprint.Status != "planning" {
		return nil, fmt.Errorf("sprint %d is %s, only planning sprints can be planned", sprintID, sprint.Status)
	}

	velocity, err := s.velocityMetrics(ctx, teamID)
	if err != nil {
		return nil, err
	}
	capacity := velocity.Average
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	var backlog []model.BacklogItem
	err = s.db.WithContext(ctx).
		Where("team_id = ? AND status = 'open' AND sprint_id IS NULL", teamID).
		Find(&backlog).Error
	if err != nil {
		return nil, fmt.Errorf("load backlog: %w", err)
	}

	picked, risks := pickItems(backlog, capacity)
	var planned float64
	titles := make([]string, 0, len(picked))
	for _, it := range picked {
		planned += *it.StoryPoints
		titles = append(titles, it.Title)
	}

	goal := sprint.Goal
	if len(titles) > 0 {
		if drafted, err := s.draftGoal(ctx, teamID, titles); err != nil {
			logger.Warn("sprint.goal_draft_failed", "sprint_id", sprintID, "err", err)
		} else if drafted != "" {
			goal = drafted
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(picked) > 0 {
			ids := make([]int, len(picked))
			for i, it := range picked {
				ids[i] = it.ID
			}
			if err := tx.Model(&model.BacklogItem{}).Where("id IN ?", ids).
				Updates(map[string]interface{}{"sprint_id": sprintID, "status": "planned"}).Error; err != nil {
				return err
			}
		}
		return tx.Model(&sprint).Update("goal", goal).Error
	})
	if err != nil {
		return nil, fmt.Errorf("apply plan: %w", err)
	}
	sprint.Goal = goal

	return &SprintPlan{
		Sprint:        &sprint,
		Capacity:      capacity,
		PlannedPoints: planned,
		Utilization:   utilization(planned, capacity),
		Items:         picked,
		Risks:         risks,
		Velocity:      velocity,
	}, nil
}

func (s *SprintService) velocityMetrics(ctx context.Context, teamID int) (VelocityMetrics, error) {
	var sprints []model.Sprint
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND status = 'completed'", teamID).
		Order("end_date DESC").Limit(velocityWindow).Find(&sprints).Error
	if err != nil {
		return VelocityMetrics{}, fmt.Errorf("load completed sprints: %w", err)
	}

	velocities := make([]float64, 0, len(sprints))
	// reverse to chronological order for trend analysis
	for i := len(sprints) - 1; i >= 0; i-- {
		velocities = append(velocities, sprints[i].Velocity)
	}
	return VelocityMetrics{
		Average:    average(velocities),
		Trend:      velocityTrend(velocities),
		Confidence: planningConfidence(velocities),
		Samples:    len(velocities),
	}, nil
}

func (s *SprintService) draftGoal(ctx context.Context, teamID int, titles []string) (string, error) {
	var team model.Team
	if err := s.db.WithContext(ctx).First(&team, teamID).Error; err != nil {
		return "", err
	}

	start := time.Now()
	comp, err := s.llm.Generate(ctx, llm.GenerateRequest{
		Prompt:       ComposeSprintGoalPrompt(team.Name, titles),
		SystemPrompt: sprintPlanningSystemPrompt,
		MaxTokens:    200,
		Temperature:  s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	s.db.WithContext(ctx).Create(&model.AIOperation{
		Type:       "sprint_planning",
		Backend:    comp.Backend,
		TokensUsed: comp.TokensUsed,
		DurationMS: time.Since(start).Milliseconds(),
		TeamID:     &teamID,
	})
	return strings.TrimSpace(comp.Text), nil
}

// pickItems greedily fills capacity with estimated items ordered by
// priority weight, flagging what the arithmetic cannot account for.
func pickItems(backlog []model.BacklogItem, capacity float64) (picked []model.BacklogItem, risks []string) {
	estimated := make([]model.BacklogItem, 0, len(backlog))
	unestimated := 0
	for _, it := range backlog {
		if it.StoryPoints == nil {
			unestimated++
			continue
		}
		estimated = append(estimated, it)
	}
	if unestimated > 0 {
		risks = append(risks, fmt.Sprintf("%d backlog items have no estimate and were skipped", unestimated))
	}

	// stable selection: higher priority first, smaller items break ties
	for i := 0; i < len(estimated); i++ {
		for j := i + 1; j < len(estimated); j++ {
			wi, wj := priorityWeight(estimated[i].Priority), priorityWeight(estimated[j].Priority)
			if wj > wi || (wj == wi && *estimated[j].StoryPoints < *estimated[i].StoryPoints) {
				estimated[i], estimated[j] = estimated[j], estimated[i]
			}
		}
	}

	var total float64
	for _, it := range estimated {
		if total+*it.StoryPoints > capacity {
			continue
		}
		if *it.StoryPoints > capacity/2 {
			risks = append(risks, fmt.Sprintf("%q is more than half the sprint capacity", it.Title))
		}
		picked = append(picked, it)
		total += *it.StoryPoints
	}
	return picked, risks
}

func priorityWeight(p string) int {
	switch strings.ToLower(p) {
	case "critical":
		return 4
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}

func validTransition(current, next string) bool {
	for _, allowed := range statusTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

func average(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// velocityTrend compares the latest sprint against the running average.
func velocityTrend(vs []float64) string {
	if len(vs) < 2 {
		return "stable"
	}
	avg := average(vs)
	last := vs[len(vs)-1]
	switch {
	case avg > 0 && last > avg*1.1:
		return "improving"
	case avg > 0 && last < avg*0.9:
		return "declining"
	default:
		return "stable"
	}
}

func planningConfidence(vs []float64) string {
	if len(vs) < 2 {
		return "low"
	}
	avg := average(vs)
	if avg == 0 {
		return "low"
	}
	var maxDev float64
	for _, v := range vs {
		dev := v - avg
		if dev < 0 {
			dev = -dev
		}
		if dev > maxDev {
			maxDev = dev
		}
	}
	switch {
	case len(vs) >= 3 && maxDev/avg <= 0.2:
		return "high"
	case maxDev/avg <= 0.4:
		return "medium"
	default:
		return "low"
	}
}

func utilization(planned, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return planned / capacity
}
