package model

import "time"

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex" json:"username"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type Team struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Name string `json:"name"`
}

type TeamMembership struct {
	ID       int  `gorm:"primaryKey" json:"id"`
	UserID   int  `gorm:"uniqueIndex:uk_user_team" json:"user_id"`
	TeamID   int  `gorm:"uniqueIndex:uk_user_team" json:"team_id"`
	IsActive bool `gorm:"default:true" json:"is_active"`
}

type Sprint struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	TeamID    int       `json:"team_id"`
	Name      string    `json:"name"`
	Goal      string    `gorm:"type:text" json:"goal"`
	StartDate string    `gorm:"type:date" json:"start_date"`
	EndDate   string    `gorm:"type:date" json:"end_date"`
	Status    string    `gorm:"default:planning" json:"status"`
	Velocity  float64   `json:"velocity"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusNote is one person's raw daily input, immutable once the day is
// past. At most one per (user, team, date); the submit handler upserts on
// that key.
type StatusNote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"uniqueIndex:uk_user_team_date" json:"user_id"`
	TeamID    int       `gorm:"uniqueIndex:uk_user_team_date" json:"team_id"`
	SprintID  *int      `json:"sprint_id,omitempty"`
	NoteDate  string    `gorm:"type:date;uniqueIndex:uk_user_team_date" json:"note_date"`
	Completed []string  `gorm:"serializer:json" json:"completed"`
	Planned   []string  `gorm:"serializer:json" json:"planned"`
	Blockers  []string  `gorm:"serializer:json" json:"blockers"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ActionItem struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	Priority    string `json:"priority"`
}

type StandupSummary struct {
	ID                 int          `gorm:"primaryKey" json:"id"`
	Date               string       `gorm:"column:date;type:date" json:"date"`
	TeamID             int          `json:"team_id"`
	SprintID           *int         `json:"sprint_id,omitempty"`
	CreatorID          int          `json:"creator_id"`
	SummaryText        string       `gorm:"type:text" json:"summary_text"`
	CompletedYesterday []string     `gorm:"serializer:json" json:"completed_yesterday"`
	PlannedToday       []string     `gorm:"serializer:json" json:"planned_today"`
	Blockers           []string     `gorm:"serializer:json" json:"blockers"`
	ActionItems        []ActionItem `gorm:"serializer:json" json:"action_items"`
	RiskIndicators     []string     `gorm:"serializer:json" json:"risk_indicators"`
	AbsentMembers      []string     `gorm:"serializer:json" json:"absent_members"`
	Sentiment          string       `json:"sentiment"`
	SentimentScore     float64      `json:"sentiment_score"`
	TokensUsed         int          `json:"tokens_used"`
	Backend            string       `json:"backend"`
	PostedExternally   bool         `json:"posted_externally"`
	HumanApproved      bool         `json:"human_approved"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type BacklogItem struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	TeamID      int       `json:"team_id"`
	SprintID    *int      `json:"sprint_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Priority    string    `gorm:"default:medium" json:"priority"`
	Status      string    `gorm:"default:open" json:"status"`
	StoryPoints *float64  `json:"story_points,omitempty"`
	AIAnalyzed  bool      `json:"ai_analyzed"`
	AIAnalysis  string    `gorm:"type:text" json:"ai_analysis,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AIOperation is a best-effort audit row per gateway call.
type AIOperation struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	Type       string    `json:"type"`
	Backend    string    `json:"backend"`
	TokensUsed int       `json:"tokens_used"`
	DurationMS int64     `json:"duration_ms"`
	TeamID     *int      `json:"team_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (User) TableName() string           { return "users" }
func (Team) TableName() string           { return "teams" }
func (TeamMembership) TableName() string { return "team_memberships" }
func (Sprint) TableName() string         { return "sprints" }
func (StatusNote) TableName() string     { return "status_notes" }
func (StandupSummary) TableName() string { return "standup_summaries" }
func (BacklogItem) TableName() string    { return "backlog_items" }
func (AIOperation) TableName() string    { return "ai_operations" }
