// Seeds the database with demo users, teams, a sprint, backlog items and
// three days of status notes. Pass -clear to wipe tables first.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/config"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/store"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	clear := flag.Bool("clear", false, "delete existing rows before seeding")
	flag.Parse()

	logger.Init(config.LogConfig{Level: "info", Console: true})
	cfg := config.Load(*configFile)

	db, err := cfg.OpenGormDB()
	if err != nil {
		log.Fatal("db connect failed: ", err)
	}
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatal("migrate failed: ", err)
	}

	if *clear {
		for _, tbl := range []string{
			"ai_operations", "standup_summaries", "status_notes",
			"backlog_items", "sprints", "team_memberships", "teams", "users",
		} {
			if err := db.Exec("DELETE FROM " + tbl).Error; err != nil {
				log.Fatal("clear failed: ", err)
			}
		}
		logger.Info("tables cleared")
	}

	if err := seed(db); err != nil {
		log.Fatal("seed failed: ", err)
	}
	logger.Info("seed done")
}

func seed(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []model.User{
		{Username: "alice", Password: string(hash), Name: "Alice Johnson", Role: "scrum_master"},
		{Username: "bob", Password: string(hash), Name: "Bob Martinez", Role: "developer"},
		{Username: "carol", Password: string(hash), Name: "Carol Williams", Role: "developer"},
		{Username: "dave", Password: string(hash), Name: "Dave Chen", Role: "product_owner"},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	team := model.Team{Name: "Product Team"}
	if err := db.Create(&team).Error; err != nil {
		return err
	}
	memberships := make([]model.TeamMembership, len(users))
	for i, u := range users {
		memberships[i] = model.TeamMembership{UserID: u.ID, TeamID: team.ID, IsActive: true}
	}
	if err := db.Create(&memberships).Error; err != nil {
		return err
	}

	today := time.Now()
	sprint := model.Sprint{
		TeamID:    team.ID,
		Name:      "Sprint 1",
		Goal:      "Ship the payments milestone",
		StartDate: today.AddDate(0, 0, -7).Format("2006-01-02"),
		EndDate:   today.AddDate(0, 0, 7).Format("2006-01-02"),
		Status:    "active",
	}
	if err := db.Create(&sprint).Error; err != nil {
		return err
	}

	points := func(p float64) *float64 { return &p }
	backlog := []model.BacklogItem{
		{TeamID: team.ID, Title: "Payment gateway integration", Description: "Integrate Stripe for card payments with 3D Secure and status webhooks.", Priority: "high", StoryPoints: points(8)},
		{TeamID: team.ID, Title: "Email notification system", Description: "Transactional emails for signup and password reset with retry logic.", Priority: "medium", StoryPoints: points(5)},
		{TeamID: team.ID, Title: "Search functionality", Description: "Full-text product search, results under 500ms.", Priority: "medium", StoryPoints: points(5)},
		{TeamID: team.ID, Title: "User login feature", Description: "Need a way for users to log into the system"},
		{TeamID: team.ID, Title: "Fix the bug", Description: "The thing is broken, fix it", Priority: "high"},
	}
	if err := db.Create(&backlog).Error; err != nil {
		return err
	}

	sprintID := sprint.ID
	var notes []model.StatusNote
	for day := 3; day >= 1; day-- {
		date := today.AddDate(0, 0, -day).Format("2006-01-02")
		notes = append(notes,
			model.StatusNote{
				UserID: users[0].ID, TeamID: team.ID, SprintID: &sprintID, NoteDate: date,
				Completed: []string{"Reviewed sprint board", "Unblocked deployment pipeline"},
				Planned:   []string{"Facilitate backlog refinement"},
			},
			model.StatusNote{
				UserID: users[1].ID, TeamID: team.ID, SprintID: &sprintID, NoteDate: date,
				Completed: []string{"Implemented payment webhook handler"},
				Planned:   []string{"Add 3D Secure flow"},
				Blockers:  []string{"Waiting on Stripe sandbox credentials"},
			},
			model.StatusNote{
				UserID: users[2].ID, TeamID: team.ID, SprintID: &sprintID, NoteDate: date,
				Completed: []string{"Wrote email template renderer"},
				Planned:   []string{"Wire retry logic for bounced emails"},
			},
		)
	}
	return db.Create(&notes).Error
}
