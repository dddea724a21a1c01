package model

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UserInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type NoteRequest struct {
	TeamID    int      `json:"team_id" binding:"required"`
	SprintID  *int     `json:"sprint_id,omitempty"`
	Date      string   `json:"date"`
	Completed []string `json:"completed"`
	Planned   []string `json:"planned"`
	Blockers  []string `json:"blockers"`
	Notes     string   `json:"notes"`
}

type GenerateStandupRequest struct {
	TeamID int    `json:"team_id" binding:"required"`
	Date   string `json:"date"`
}

type SprintCreateRequest struct {
	TeamID    int    `json:"team_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Goal      string `json:"goal"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

type BacklogItemRequest struct {
	TeamID      int      `json:"team_id" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	StoryPoints *float64 `json:"story_points,omitempty"`
}
