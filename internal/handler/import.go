package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/logger"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ImportHandler ingests status notes from a spreadsheet in two steps:
// preview parses the upload and reports what would be stored, confirm
// commits an earlier preview by token.
type ImportHandler struct {
	store *store.Store
	cache sync.Map // token -> *previewCache
}

type previewCache struct {
	teamID    int
	entries   []importedEntry
	users     []model.User
	createdAt time.Time
}

type importedEntry struct {
	Name      string   `json:"name"`
	Date      string   `json:"date"`
	Completed []string `json:"completed"`
	Planned   []string `json:"planned"`
	Blockers  []string `json:"blockers"`
	Notes     string   `json:"notes"`
}

func NewImportHandler(st *store.Store) *ImportHandler {
	h := &ImportHandler{store: st}
	// Cleanup expired cache entries every 5 minutes
	go func() {
		for range time.Tick(5 * time.Minute) {
			h.cache.Range(func(k, v any) bool {
				if time.Since(v.(*previewCache).createdAt) > 10*time.Minute {
					h.cache.Delete(k)
				}
				return true
			})
		}
	}()
	return h
}

// Preview handles POST /api/import/preview. Expected sheet layout:
// name | date | completed | planned | blockers | notes, with a header
// row and semicolon-separated list cells.
func (h *ImportHandler) Preview(c *gin.Context) {
	teamID, err := strconv.Atoi(c.PostForm("team_id"))
	if err != nil || teamID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "team_id is required"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	logger.Info("import.preview", "file", file.Filename, "size", file.Size, "team_id", teamID)

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open upload failed"})
		return
	}
	defer src.Close()

	wb, err := excelize.OpenReader(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a valid xlsx file"})
		return
	}
	defer wb.Close()

	entries, err := parseNoteSheet(wb)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusOK, gin.H{"token": "", "entries": []importedEntry{}, "unmatched_names": []string{}})
		return
	}

	users, err := h.store.AllUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	unmatchedSet := map[string]bool{}
	for _, e := range entries {
		if matchUser(e.Name, users) == 0 {
			unmatchedSet[e.Name] = true
		}
	}
	unmatched := make([]string, 0, len(unmatchedSet))
	for name := range unmatchedSet {
		unmatched = append(unmatched, name)
	}

	token := genToken()
	h.cache.Store(token, &previewCache{teamID: teamID, entries: entries, users: users, createdAt: time.Now()})

	logger.Info("import.preview_done", "token", token, "entries", len(entries), "unmatched", len(unmatched))
	c.JSON(http.StatusOK, gin.H{
		"token":           token,
		"entries":         entries,
		"unmatched_names": unmatched,
	})
}

// Confirm handles POST /api/import/confirm. Rows upsert by user and day,
// so re-importing a sheet replaces rather than duplicates.
func (h *ImportHandler) Confirm(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	val, ok := h.cache.LoadAndDelete(req.Token)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preview expired, please upload again"})
		return
	}
	cached := val.(*previewCache)

	ctx := c.Request.Context()
	imported, skipped := 0, 0
	var skippedNames []string
	skippedSet := map[string]bool{}

	for _, e := range cached.entries {
		userID := matchUser(e.Name, cached.users)
		if userID == 0 {
			if !skippedSet[e.Name] {
				skippedSet[e.Name] = true
				skippedNames = append(skippedNames, e.Name)
			}
			skipped++
			continue
		}
		note := &model.StatusNote{
			UserID:    userID,
			TeamID:    cached.teamID,
			NoteDate:  e.Date,
			Completed: e.Completed,
			Planned:   e.Planned,
			Blockers:  e.Blockers,
			Notes:     e.Notes,
		}
		if err := h.store.UpsertNote(ctx, note); err != nil {
			logger.Warn("import.upsert_failed", "name", e.Name, "date", e.Date, "err", err)
			skipped++
			continue
		}
		imported++
	}

	logger.Info("import.confirm_done", "imported", imported, "skipped", skipped)
	c.JSON(http.StatusOK, gin.H{
		"imported":      imported,
		"skipped":       skipped,
		"skipped_names": skippedNames,
		"total":         len(cached.entries),
	})
}

func parseNoteSheet(wb *excelize.File) ([]importedEntry, error) {
	sheet := wb.GetSheetName(0)
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	var entries []importedEntry
	for i, row := range rows {
		if i == 0 {
			continue // header row
		}
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		date := strings.TrimSpace(cell(row, 1))
		if _, err := time.Parse("2006-01-02", date); err != nil {
			continue
		}
		e := importedEntry{
			Name:      strings.TrimSpace(row[0]),
			Date:      date,
			Completed: splitList(cell(row, 2)),
			Planned:   splitList(cell(row, 3)),
			Blockers:  splitList(cell(row, 4)),
			Notes:     strings.TrimSpace(cell(row, 5)),
		}
		if len(e.Completed) == 0 && len(e.Planned) == 0 && len(e.Blockers) == 0 && e.Notes == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func splitList(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func matchUser(name string, users []model.User) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0
	}
	for _, u := range users {
		if u.Name == name {
			return u.ID
		}
	}
	for _, u := range users {
		if strings.EqualFold(u.Name, name) {
			return u.ID
		}
	}
	return 0
}

func genToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
