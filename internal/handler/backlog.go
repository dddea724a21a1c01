package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/llm"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BacklogHandler struct {
	svc *service.BacklogService
}

func NewBacklogHandler(svc *service.BacklogService) *BacklogHandler {
	return &BacklogHandler{svc: svc}
}

func (h *BacklogHandler) Create(c *gin.Context) {
	var req model.BacklogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	item, err := h.svc.CreateItem(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *BacklogHandler) List(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}
	items, err := h.svc.TeamItems(c.Request.Context(), teamID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if items == nil {
		items = []model.BacklogItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "team_id": teamID})
}

// Analyze handles POST /api/backlog/team/:id/analyze. An empty backlog is
// a normal 200 outcome with status "no_data".
func (h *BacklogHandler) Analyze(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}

	res, err := h.svc.AnalyzeBacklog(c.Request.Context(), teamID)
	if err != nil {
		var unavailable *llm.UnavailableError
		var reqErr *llm.RequestError
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.As(err, &unavailable):
			logger.Error("backlog.provider_unavailable", "backend", unavailable.Backend, "err", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "guidance": unavailable.Guidance})
		case errors.As(err, &reqErr):
			logger.Error("backlog.provider_failed", "backend", reqErr.Backend, "err", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			logger.Error("backlog.analyze_failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if res.NoData {
		c.JSON(http.StatusOK, gin.H{"status": "no_data", "team_id": res.TeamID})
		return
	}
	c.JSON(http.StatusOK, res)
}
