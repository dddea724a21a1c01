package handler

import (
	"testing"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildSheet(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}
	return wb
}

func TestParseNoteSheet(t *testing.T) {
	wb := buildSheet(t, [][]interface{}{
		{"name", "date", "completed", "planned", "blockers", "notes"},
		{"Alice Johnson", "2025-01-10", "API review; Deploy prep", "Deploy staging", "", "half day off"},
		{"Bob Martinez", "2025-01-10", "", "Fix flaky test", "Waiting on design", ""},
		{"", "2025-01-10", "ignored, no name", "", "", ""},
		{"Carol Williams", "not-a-date", "ignored, bad date", "", "", ""},
		{"Dave Chen", "2025-01-10", "", "", "", ""},
	})

	entries, err := parseNoteSheet(wb)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Alice Johnson", entries[0].Name)
	assert.Equal(t, []string{"API review", "Deploy prep"}, entries[0].Completed)
	assert.Equal(t, []string{"Deploy staging"}, entries[0].Planned)
	assert.Empty(t, entries[0].Blockers)
	assert.Equal(t, "half day off", entries[0].Notes)

	assert.Equal(t, "Bob Martinez", entries[1].Name)
	assert.Equal(t, []string{"Waiting on design"}, entries[1].Blockers)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList("a; b"))
	assert.Equal(t, []string{"solo"}, splitList("solo"))
	assert.Empty(t, splitList(""))
	assert.Empty(t, splitList(" ; ; "))
}

func TestMatchUser(t *testing.T) {
	users := []model.User{
		{ID: 1, Name: "Alice Johnson"},
		{ID: 2, Name: "Bob Martinez"},
	}

	assert.Equal(t, 1, matchUser("Alice Johnson", users))
	assert.Equal(t, 2, matchUser("bob martinez", users))
	assert.Zero(t, matchUser("Unknown Person", users))
	assert.Zero(t, matchUser("  ", users))
}
