package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/llm"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/notify"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/service"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/store"

	"github.com/gin-gonic/gin"
)

type StandupHandler struct {
	svc    *service.StandupService
	store  *store.Store
	notify *notify.SlackNotifier
}

func NewStandupHandler(svc *service.StandupService, st *store.Store, n *notify.SlackNotifier) *StandupHandler {
	return &StandupHandler{svc: svc, store: st, notify: n}
}

// Generate handles POST /api/standups/generate. A day without notes is a
// normal 200 outcome with status "no_data"; only infrastructure faults
// become error statuses.
func (h *StandupHandler) Generate(c *gin.Context) {
	var req model.GenerateStandupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), service.GenerateInput{
		TeamID:    req.TeamID,
		Date:      req.Date,
		CreatorID: c.GetInt("user_id"),
	})
	if err != nil {
		h.writeGenerateError(c, err)
		return
	}

	if res.NoData {
		c.JSON(http.StatusOK, gin.H{
			"status":  "no_data",
			"reason":  res.Reason,
			"team_id": res.TeamID,
			"date":    res.Date,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":      "ok",
		"summary":     res.Summary,
		"tokens_used": res.TokensUsed,
		"backend":     res.Backend,
	})
}

func (h *StandupHandler) writeGenerateError(c *gin.Context, err error) {
	var unavailable *llm.UnavailableError
	var reqErr *llm.RequestError
	switch {
	case errors.Is(err, service.ErrTeamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateSummary):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &unavailable):
		logger.Error("standup.provider_unavailable", "backend", unavailable.Backend, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "guidance": unavailable.Guidance})
	case errors.As(err, &reqErr):
		logger.Error("standup.provider_failed", "backend", reqErr.Backend, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Error("standup.generate_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *StandupHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	sum, err := h.store.SummaryByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sum == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "standup summary not found"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *StandupHandler) TeamList(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sums, total, err := h.store.TeamSummaries(c.Request.Context(), teamID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sums == nil {
		sums = []model.StandupSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"standups": sums, "total": total})
}

func (h *StandupHandler) ByDate(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team id"})
		return
	}
	date := c.Param("date")

	sum, err := h.store.SummaryByTeamDate(c.Request.Context(), teamID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sum == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no standup summary for this team and date"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *StandupHandler) Approve(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.store.ApproveSummary(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "standup summary not found"})
		return
	}
	logger.Info("standup.approved", "id", id, "by", c.GetInt("user_id"))
	c.JSON(http.StatusOK, gin.H{"message": "standup summary approved", "standup_id": id})
}

func (h *StandupHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.store.DeleteSummary(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "standup summary not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "standup summary deleted", "standup_id": id})
}

// Post pushes a summary to the configured Slack webhook and flips
// posted_externally.
func (h *StandupHandler) Post(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if h.notify == nil || !h.notify.Configured() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slack webhook not configured"})
		return
	}

	ctx := c.Request.Context()
	sum, err := h.store.SummaryByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sum == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "standup summary not found"})
		return
	}

	team, err := h.store.TeamByID(ctx, sum.TeamID)
	if err != nil || team == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "team lookup failed"})
		return
	}

	if err := h.notify.PostSummary(ctx, team.Name, sum); err != nil {
		logger.Error("standup.post_failed", "id", id, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.MarkSummaryPosted(ctx, id); err != nil {
		logger.Warn("standup.mark_posted_failed", "id", id, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "posted to slack", "standup_id": id})
}
