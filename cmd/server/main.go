package main

import (
	"flag"
	"os"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/config"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/handler"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/llm"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/middleware"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/notify"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/service"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	godotenv.Load()
	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)
	middleware.JWTSecret = []byte(cfg.Auth.JWTSecret)

	db, err := cfg.OpenGormDB()
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		logger.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	gen, err := llm.New(cfg.LLM)
	if err != nil {
		logger.Error("llm init failed", "err", err)
		os.Exit(1)
	}
	logger.Info("llm backend ready", "backend", gen.Backend(), "model", cfg.LLM.Model)

	authSvc := service.NewAuthService(db)
	standupSvc := service.NewStandupService(st, gen, cfg.LLM, cfg.Standup.DuplicatePolicy)
	sprintSvc := service.NewSprintService(db, gen, cfg.LLM)
	backlogSvc := service.NewBacklogService(db, gen, cfg.LLM)

	slack := notify.NewSlackNotifier(cfg.Slack.WebhookURL)

	authH := handler.NewAuthHandler(authSvc)
	noteH := handler.NewNoteHandler(st)
	standupH := handler.NewStandupHandler(standupSvc, st, slack)
	sprintH := handler.NewSprintHandler(sprintSvc)
	backlogH := handler.NewBacklogHandler(backlogSvc)
	importH := handler.NewImportHandler(st)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.POST("/api/login", authH.Login)

	api := r.Group("/api", middleware.JWTAuth())

	api.POST("/notes", noteH.Submit)
	api.GET("/notes/team/:id", noteH.TeamNotes)

	api.POST("/standups/generate", standupH.Generate)
	api.GET("/standups/:id", standupH.Get)
	api.GET("/standups/team/:id", standupH.TeamList)
	api.GET("/standups/team/:id/date/:date", standupH.ByDate)
	api.POST("/standups/:id/approve", standupH.Approve)
	api.POST("/standups/:id/post", standupH.Post)
	api.DELETE("/standups/:id", standupH.Delete)

	api.POST("/sprints", sprintH.Create)
	api.GET("/sprints/team/:id", sprintH.List)
	api.PUT("/sprints/:id/status", sprintH.UpdateStatus)
	api.POST("/sprints/:id/plan", sprintH.Plan)

	api.POST("/backlog", backlogH.Create)
	api.GET("/backlog/team/:id", backlogH.List)
	api.POST("/backlog/team/:id/analyze", backlogH.Analyze)

	api.POST("/import/preview", importH.Preview)
	api.POST("/import/confirm", importH.Confirm)

	logger.Info("server starting", "addr", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		logger.Error("server failed", "err", err)
	}
}
