package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const ollamaGuidance = "Ollama is not running. Start it with: ollama serve"

// ollamaClient talks to a locally hosted inference server. Ollama has no
// separate system role on /api/generate, so the system prompt is prepended.
type ollamaClient struct {
	endpoint string
	model    string
	client   *http.Client
}

func (c *ollamaClient) Backend() string { return "ollama" }

func (c *ollamaClient) Generate(ctx context.Context, req GenerateRequest) (*Completion, error) {
	prompt := req.Prompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.Prompt
	}

	body := map[string]interface{}{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}
	payload, _ := json.Marshal(body)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportErr("ollama", c.endpoint, ollamaGuidance, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		return nil, &RequestError{Backend: "ollama", Status: resp.StatusCode, Detail: string(data)}
	}

	data, _ := io.ReadAll(resp.Body)
	var result struct {
		Response        string `json:"response"`
		EvalCount       int    `json:"eval_count"`
		PromptEvalCount int    `json:"prompt_eval_count"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &RequestError{Backend: "ollama", Detail: "decode response: " + err.Error()}
	}

	return &Completion{
		Text:       result.Response,
		TokensUsed: result.EvalCount + result.PromptEvalCount,
		Backend:    "ollama",
	}, nil
}
