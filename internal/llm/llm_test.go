package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPicksBackend(t *testing.T) {
	g, err := New(config.LLMConfig{Backend: "ollama", Endpoint: "http://localhost:11434", Model: "llama3.2"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", g.Backend())

	g, err = New(config.LLMConfig{Backend: "openai", Endpoint: "https://api.openai.com", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "openai", g.Backend())

	_, err = New(config.LLMConfig{Backend: "claude"})
	assert.Error(t, err)
}

func TestOllamaGenerate(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response":          "summary text",
			"eval_count":        100,
			"prompt_eval_count": 42,
		})
	}))
	defer srv.Close()

	g := &ollamaClient{endpoint: srv.URL, model: "llama3.2", client: srv.Client()}
	comp, err := g.Generate(context.Background(), GenerateRequest{
		Prompt: "the prompt", SystemPrompt: "the system", MaxTokens: 500, Temperature: 0.3,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/generate", gotPath)
	assert.Equal(t, "llama3.2", gotBody["model"])
	assert.Equal(t, false, gotBody["stream"])
	assert.Equal(t, "the system\n\nthe prompt", gotBody["prompt"])

	assert.Equal(t, "summary text", comp.Text)
	assert.Equal(t, 142, comp.TokensUsed)
	assert.Equal(t, "ollama", comp.Backend)
}

func TestOllamaUnreachable(t *testing.T) {
	g := &ollamaClient{endpoint: "http://127.0.0.1:1", model: "llama3.2", client: &http.Client{Timeout: time.Second}}
	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "x"})

	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "ollama", ue.Backend)
	assert.Contains(t, ue.Guidance, "ollama serve")
}

func TestOllamaHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	g := &ollamaClient{endpoint: srv.URL, model: "nope", client: srv.Client()}
	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "x"})

	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusNotFound, re.Status)
	assert.Contains(t, re.Detail, "model not found")
}

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "summary text"}},
			},
			"usage": map[string]int{"total_tokens": 77},
		})
	}))
	defer srv.Close()

	g := &openaiClient{endpoint: srv.URL, apiKey: "sk-test", model: "gpt-4o-mini", client: srv.Client()}
	comp, err := g.Generate(context.Background(), GenerateRequest{Prompt: "the prompt", SystemPrompt: "system"})
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "summary text", comp.Text)
	assert.Equal(t, 77, comp.TokensUsed)
	assert.Equal(t, "openai", comp.Backend)
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	g := &openaiClient{endpoint: srv.URL, model: "gpt-4o-mini", client: srv.Client()}
	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "x"})

	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Detail, "empty choices")
}

type flakyGenerator struct {
	failures int
	calls    int
	err      error
}

func (f *flakyGenerator) Backend() string { return "flaky" }

func (f *flakyGenerator) Generate(ctx context.Context, req GenerateRequest) (*Completion, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &Completion{Text: "ok", Backend: "flaky"}, nil
}

func TestWithRetryRecoversRequestErrors(t *testing.T) {
	inner := &flakyGenerator{failures: 2, err: &RequestError{Backend: "flaky", Status: 500, Detail: "boom"}}
	g := WithRetry(inner, 3, time.Millisecond)

	comp, err := g.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", comp.Text)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetryGivesUpAfterAttempts(t *testing.T) {
	inner := &flakyGenerator{failures: 10, err: &RequestError{Backend: "flaky", Status: 500, Detail: "boom"}}
	g := WithRetry(inner, 3, time.Millisecond)

	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetryDoesNotRetryUnavailable(t *testing.T) {
	inner := &flakyGenerator{failures: 10, err: &UnavailableError{Backend: "flaky", Endpoint: "e", Guidance: "g"}}
	g := WithRetry(inner, 3, time.Millisecond)

	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 1, inner.calls)
}
