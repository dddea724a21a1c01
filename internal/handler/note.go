package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/store"

	"github.com/gin-gonic/gin"
)

type NoteHandler struct {
	store *store.Store
}

func NewNoteHandler(st *store.Store) *NoteHandler {
	return &NoteHandler{store: st}
}

// Submit handles POST /api/notes. A second submission for the same day
// overwrites the first.
func (h *NoteHandler) Submit(c *gin.Context) {
	var req model.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	note := &model.StatusNote{
		UserID:    c.GetInt("user_id"),
		TeamID:    req.TeamID,
		SprintID:  req.SprintID,
		NoteDate:  date,
		Completed: req.Completed,
		Planned:   req.Planned,
		Blockers:  req.Blockers,
		Notes:     req.Notes,
	}
	if err := h.store.UpsertNote(c.Request.Context(), note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Info("note.submitted", "user_id", note.UserID, "team_id", note.TeamID, "date", date)
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) TeamNotes(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}
	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))

	notes, err := h.store.NotesForDate(c.Request.Context(), teamID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if notes == nil {
		notes = []model.StatusNote{}
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes, "team_id": teamID, "date": date})
}
