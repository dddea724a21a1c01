package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/config"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/llm"
	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	team     *model.Team
	notes    []model.StatusNote
	names    map[int]string
	members  []string
	sprint   *model.Sprint
	existing int64

	inserted []*model.StandupSummary
	deleted  int
	ops      []*model.AIOperation
}

func (f *fakeStore) TeamByID(ctx context.Context, id int) (*model.Team, error) {
	if f.team != nil && f.team.ID == id {
		return f.team, nil
	}
	return nil, nil
}

func (f *fakeStore) NotesForDate(ctx context.Context, teamID int, date string) ([]model.StatusNote, error) {
	return f.notes, nil
}

func (f *fakeStore) UserNames(ctx context.Context, ids []int) (map[int]string, error) {
	return f.names, nil
}

func (f *fakeStore) ActiveMemberNames(ctx context.Context, teamID int) ([]string, error) {
	return f.members, nil
}

func (f *fakeStore) SprintByID(ctx context.Context, id int) (*model.Sprint, error) {
	return f.sprint, nil
}

func (f *fakeStore) InsertSummary(ctx context.Context, s *model.StandupSummary) error {
	s.ID = len(f.inserted) + 1
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeStore) DeleteSummariesByTeamDate(ctx context.Context, teamID int, date string) (int64, error) {
	n := f.existing
	f.existing = 0
	f.deleted += int(n)
	return n, nil
}

func (f *fakeStore) CountSummaries(ctx context.Context, teamID int, date string) (int64, error) {
	return f.existing, nil
}

func (f *fakeStore) LogOperation(ctx context.Context, op *model.AIOperation) {
	f.ops = append(f.ops, op)
}

type stubGenerator struct {
	text    string
	err     error
	calls   int
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.Completion, error) {
	g.calls++
	g.prompts = append(g.prompts, req.Prompt)
	if g.err != nil {
		return nil, g.err
	}
	return &llm.Completion{Text: g.text, TokensUsed: 321, Backend: "ollama"}, nil
}

func (g *stubGenerator) Backend() string { return "stub" }

func teamStore() *fakeStore {
	sprintID := 4
	return &fakeStore{
		team:    &model.Team{ID: 7, Name: "Product Team"},
		members: []string{"Alice Johnson", "Bob Martinez", "Carol Williams"},
		sprint:  &model.Sprint{ID: sprintID, Name: "Sprint 4", Goal: "Ship payments"},
		names:   map[int]string{1: "Alice Johnson", 2: "Bob Martinez", 3: "Carol Williams"},
		notes: []model.StatusNote{
			{UserID: 1, TeamID: 7, SprintID: &sprintID, NoteDate: "2025-01-10",
				Completed: []string{"Shipped login"}, Planned: []string{"Start search"}},
			{UserID: 2, TeamID: 7, SprintID: &sprintID, NoteDate: "2025-01-10",
				Planned: []string{"Review PR"}, Blockers: []string{"Waiting on design"}},
			{UserID: 3, TeamID: 7, SprintID: &sprintID, NoteDate: "2025-01-10",
				Completed: []string{"Fixed bug"}, Planned: []string{"Write tests"}},
		},
	}
}

const teamCompletion = `## COMPLETED YESTERDAY
- Shipped login
- Fixed bug

## PLANNED TODAY
- Start search
- Review PR
- Write tests

## BLOCKERS
- Waiting on design

## NOTES
- One blocker pending on the design team

` + "```json" + `
{
  "action_items": [{"description": "Follow up with design", "assignee": "Bob Martinez", "priority": "high"}],
  "risk_indicators": [],
  "sentiment": "neutral",
  "absent_members": []
}
` + "```"

func newTestService(st Store, gen llm.Generator, policy string) *StandupService {
	return NewStandupService(st, gen, config.LLMConfig{MaxTokens: 2000, Temperature: 0.3}, policy)
}

func TestGenerateEndToEnd(t *testing.T) {
	st := teamStore()
	gen := &stubGenerator{text: teamCompletion}
	svc := newTestService(st, gen, PolicyAllow)

	res, err := svc.Generate(context.Background(), GenerateInput{TeamID: 7, Date: "2025-01-10", CreatorID: 1})
	require.NoError(t, err)
	require.False(t, res.NoData)
	require.NotNil(t, res.Summary)

	sum := res.Summary
	assert.Equal(t, "2025-01-10", sum.Date)
	assert.Equal(t, 7, sum.TeamID)
	require.NotNil(t, sum.SprintID)
	assert.Equal(t, 4, *sum.SprintID)
	assert.Equal(t, 1, sum.CreatorID)
	assert.Equal(t, []string{"Waiting on design"}, sum.Blockers)
	assert.Contains(t, sum.CompletedYesterday, "Shipped login")
	assert.Contains(t, sum.CompletedYesterday, "Fixed bug")
	assert.False(t, sum.HumanApproved)
	assert.False(t, sum.PostedExternally)
	assert.Equal(t, 321, sum.TokensUsed)
	assert.Equal(t, "ollama", sum.Backend)

	require.Len(t, st.inserted, 1)
	require.Len(t, st.ops, 1)
	assert.Equal(t, "standup_summary", st.ops[0].Type)

	// prompt carried every author and the sprint metadata
	require.Len(t, gen.prompts, 1)
	for _, name := range []string{"Alice Johnson", "Bob Martinez", "Carol Williams"} {
		assert.Contains(t, gen.prompts[0], name)
	}
	assert.Contains(t, gen.prompts[0], "Sprint 4")
}

func TestGenerateNoDataShortCircuit(t *testing.T) {
	st := teamStore()
	st.notes = nil
	gen := &stubGenerator{text: wellFormedCompletion}
	svc := newTestService(st, gen, PolicyAllow)

	res, err := svc.Generate(context.Background(), GenerateInput{TeamID: 7, Date: "2025-01-10"})
	require.NoError(t, err)
	assert.True(t, res.NoData)
	assert.NotEmpty(t, res.Reason)
	assert.Nil(t, res.Summary)
	assert.Zero(t, gen.calls, "gateway must not be called without notes")
	assert.Empty(t, st.inserted)
}

func TestGenerateTeamNotFound(t *testing.T) {
	svc := newTestService(&fakeStore{}, &stubGenerator{}, PolicyAllow)

	_, err := svc.Generate(context.Background(), GenerateInput{TeamID: 99, Date: "2025-01-10"})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestGenerateMalformedCompletionStillPersists(t *testing.T) {
	st := teamStore()
	gen := &stubGenerator{text: "The team is doing fine, no structure here at all."}
	svc := newTestService(st, gen, PolicyAllow)

	res, err := svc.Generate(context.Background(), GenerateInput{TeamID: 7, Date: "2025-01-10"})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)

	sum := res.Summary
	assert.Empty(t, sum.CompletedYesterday)
	assert.Empty(t, sum.Blockers)
	assert.Empty(t, sum.ActionItems)
	assert.Equal(t, "neutral", sum.Sentiment)
	assert.Equal(t, 0.5, sum.SentimentScore)
	require.Len(t, st.inserted, 1)
}

func TestGenerateProviderErrorPropagates(t *testing.T) {
	st := teamStore()
	provErr := &llm.UnavailableError{Backend: "ollama", Endpoint: "http://localhost:11434",
		Guidance: "Ollama is not running. Start it with: ollama serve", Err: errors.New("connection refused")}
	svc := newTestService(st, &stubGenerator{err: provErr}, PolicyAllow)

	_, err := svc.Generate(context.Background(), GenerateInput{TeamID: 7, Date: "2025-01-10"})
	var ue *llm.UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Guidance, "ollama serve")
	assert.Empty(t, st.inserted, "nothing persisted on gateway failure")
}

func TestGenerateDuplicatePolicies(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		st := teamStore()
		st.existing = 1
		svc := newTestService(st, &stubGenerator{text: wellFormedCompletion}, PolicyReject)

		_, err := svc.Generate(context.Background(), GenerateInput{TeamID: 7, Date: "2025-01-10"})
		assert.ErrorIs(t, err, ErrDuplicateSummary)
		assert.Empty(t, st.inserted)
	})

	t.Run("replace", func(t *testing.T) {
		st := teamStore()
		st.existing = 1
		svc := newTestService(st, &stubGenerator{text: wellFormedCompletion}, PolicyReplace)

		res, err := svc.Generate(context.Background(), GenerateInput{TeamID: 7, Date: "2025-01-10"})
		require.NoError(t, err)
		require.NotNil(t, res.Summary)
		assert.Equal(t, 1, st.deleted)
	})

	t.Run("allow", func(t *testing.T) {
		st := teamStore()
		st.existing = 1
		svc := newTestService(st, &stubGenerator{text: wellFormedCompletion}, PolicyAllow)

		res, err := svc.Generate(context.Background(), GenerateInput{TeamID: 7, Date: "2025-01-10"})
		require.NoError(t, err)
		require.NotNil(t, res.Summary)
		assert.Zero(t, st.deleted)
	})
}
