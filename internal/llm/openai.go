package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const openaiGuidance = "Check LLM_ENDPOINT and network access to the hosted API."

// openaiClient talks to any chat-completions compatible hosted API
// (OpenAI, Groq, Together...).
type openaiClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func (c *openaiClient) Backend() string { return "openai" }

func (c *openaiClient) Generate(ctx context.Context, req GenerateRequest) (*Completion, error) {
	messages := []map[string]string{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}
	payload, _ := json.Marshal(body)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportErr("openai", c.endpoint, openaiGuidance, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		return nil, &RequestError{Backend: "openai", Status: resp.StatusCode, Detail: string(data)}
	}

	data, _ := io.ReadAll(resp.Body)
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &RequestError{Backend: "openai", Detail: "decode response: " + err.Error()}
	}
	if len(result.Choices) == 0 {
		return nil, &RequestError{Backend: "openai", Detail: "empty choices"}
	}

	return &Completion{
		Text:       result.Choices[0].Message.Content,
		TokensUsed: result.Usage.TotalTokens,
		Backend:    "openai",
	}, nil
}
