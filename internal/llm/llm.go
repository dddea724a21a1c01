// Package llm abstracts the text-generation backends behind one contract.
// The backend is picked once at startup from config; backend-specific wire
// shapes never leak past this package.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/config"
)

type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// Completion is the canonical result shape. TokensUsed is best-effort:
// zero just means the backend did not report usage.
type Completion struct {
	Text       string
	TokensUsed int
	Backend    string
}

type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Completion, error)
	Backend() string
}

// UnavailableError means the backend could not be reached at all. Guidance
// tells the operator how to bring the dependency up.
type UnavailableError struct {
	Backend  string
	Endpoint string
	Guidance string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("llm backend %s unreachable at %s: %v. %s", e.Backend, e.Endpoint, e.Err, e.Guidance)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RequestError means the backend was reached but the call failed: non-2xx,
// timeout, or an undecodable response body.
type RequestError struct {
	Backend string
	Status  int
	Detail  string
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm backend %s: status %d: %s", e.Backend, e.Status, e.Detail)
	}
	return fmt.Sprintf("llm backend %s: %s", e.Backend, e.Detail)
}

// New builds the process-wide Generator from config. The retry decorator is
// applied only when retry_attempts > 1; it is off by default.
func New(cfg config.LLMConfig) (Generator, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var g Generator
	switch cfg.Backend {
	case "ollama":
		g = &ollamaClient{endpoint: cfg.Endpoint, model: cfg.Model, client: client}
	case "openai":
		g = &openaiClient{endpoint: cfg.Endpoint, apiKey: cfg.APIKey, model: cfg.Model, client: client}
	default:
		return nil, fmt.Errorf("unknown llm backend %q (want ollama or openai)", cfg.Backend)
	}

	if cfg.RetryAttempts > 1 {
		g = WithRetry(g, cfg.RetryAttempts, time.Second)
	}
	return g, nil
}

// classifyTransportErr separates "backend not there" from "backend slow".
// A timeout is a failed request against a reachable backend, not an outage.
func classifyTransportErr(backend, endpoint, guidance string, err error) error {
	if ue, ok := err.(*url.Error); ok && ue.Timeout() {
		return &RequestError{Backend: backend, Detail: "request timed out: " + ue.Error()}
	}
	return &UnavailableError{Backend: backend, Endpoint: endpoint, Guidance: guidance, Err: err}
}
