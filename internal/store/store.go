// Package store holds the gorm-backed persistence used by the standup
// pipeline and its handlers.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"

	"gorm.io/gorm"
)

type Store struct{ db *gorm.DB }

func New(db *gorm.DB) *Store { return &Store{db: db} }

// Migrate creates/updates the schema. Called once at startup.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&model.User{}, &model.Team{}, &model.TeamMembership{},
		&model.Sprint{}, &model.StatusNote{}, &model.StandupSummary{},
		&model.BacklogItem{}, &model.AIOperation{},
	)
}

func (s *Store) TeamByID(ctx context.Context, id int) (*model.Team, error) {
	var t model.Team
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query team: %w", err)
	}
	return &t, nil
}

func (s *Store) NotesForDate(ctx context.Context, teamID int, date string) ([]model.StatusNote, error) {
	var notes []model.StatusNote
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND note_date = ?", teamID, date).
		Order("user_id").Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	return notes, nil
}

func (s *Store) UserNames(ctx context.Context, ids []int) (map[int]string, error) {
	if len(ids) == 0 {
		return map[int]string{}, nil
	}
	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	names := make(map[int]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

func (s *Store) SprintByID(ctx context.Context, id int) (*model.Sprint, error) {
	var sp model.Sprint
	err := s.db.WithContext(ctx).First(&sp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sprint: %w", err)
	}
	return &sp, nil
}

func (s *Store) InsertSummary(ctx context.Context, sum *model.StandupSummary) error {
	if err := s.db.WithContext(ctx).Create(sum).Error; err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

func (s *Store) DeleteSummariesByTeamDate(ctx context.Context, teamID int, date string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("team_id = ? AND date = ?", teamID, date).
		Delete(&model.StandupSummary{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete summaries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) CountSummaries(ctx context.Context, teamID int, date string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.StandupSummary{}).
		Where("team_id = ? AND date = ?", teamID, date).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count summaries: %w", err)
	}
	return n, nil
}

// LogOperation is best-effort: an audit row must never fail a pipeline run.
func (s *Store) LogOperation(ctx context.Context, op *model.AIOperation) {
	if err := s.db.WithContext(ctx).Create(op).Error; err != nil {
		logger.Warn("ai operation log failed", "type", op.Type, "err", err)
	}
}

// --- reads and mutations used by the handlers ---

func (s *Store) SummaryByID(ctx context.Context, id int) (*model.StandupSummary, error) {
	var sum model.StandupSummary
	err := s.db.WithContext(ctx).First(&sum, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return &sum, nil
}

func (s *Store) TeamSummaries(ctx context.Context, teamID, limit, offset int) ([]model.StandupSummary, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.StandupSummary{}).
		Where("team_id = ?", teamID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count summaries: %w", err)
	}
	var sums []model.StandupSummary
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("date DESC").Limit(limit).Offset(offset).Find(&sums).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query summaries: %w", err)
	}
	return sums, total, nil
}

func (s *Store) SummaryByTeamDate(ctx context.Context, teamID int, date string) (*model.StandupSummary, error) {
	var sum model.StandupSummary
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND date = ?", teamID, date).
		Order("created_at DESC").First(&sum).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return &sum, nil
}

func (s *Store) ApproveSummary(ctx context.Context, id int) error {
	return s.setSummaryFlag(ctx, id, "human_approved")
}

func (s *Store) MarkSummaryPosted(ctx context.Context, id int) error {
	return s.setSummaryFlag(ctx, id, "posted_externally")
}

func (s *Store) setSummaryFlag(ctx context.Context, id int, column string) error {
	res := s.db.WithContext(ctx).Model(&model.StandupSummary{}).
		Where("id = ?", id).Update(column, true)
	if res.Error != nil {
		return fmt.Errorf("update summary: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) DeleteSummary(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Delete(&model.StandupSummary{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete summary: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpsertNote keeps at most one note per (user, team, date): a re-submit
// for the same day replaces the previous content.
func (s *Store) UpsertNote(ctx context.Context, note *model.StatusNote) error {
	var existing model.StatusNote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND team_id = ? AND note_date = ?", note.UserID, note.TeamID, note.NoteDate).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("query note: %w", err)
	}

	note.ID = existing.ID
	note.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(note).Error; err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

func (s *Store) AllUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return users, nil
}

// ActiveMemberNames returns display names of active members, used to let
// the model spot absentees.
func (s *Store) ActiveMemberNames(ctx context.Context, teamID int) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&model.TeamMembership{}).
		Joins("JOIN users ON users.id = team_memberships.user_id").
		Where("team_memberships.team_id = ? AND team_memberships.is_active = ?", teamID, true).
		Order("users.name").Pluck("users.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	return names, nil
}
