package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"moodlog/internal/logger"
)

// Scorer is the narrow contract over the AI collaborator: a prompt and a
// JSON schema in, raw model text out. Output is best-effort and must be
// validated by the caller.
type Scorer interface {
	Score(ctx context.Context, prompt string, schema Schema) (string, error)
}

type Schema struct {
	Name       string
	Definition map[string]any
}

type AIOptions struct {
	Model   string
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// AIService talks to an OpenAI-compatible chat completions endpoint behind
// the MOI llm-proxy, requesting structured JSON output.
type AIService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	opts    AIOptions
}

func NewAIService(baseURL, apiKey string, opts AIOptions) *AIService {
	if opts.Model == "" {
		opts.Model = "qwen-plus"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &AIService{baseURL: baseURL, apiKey: apiKey, client: &http.Client{}, opts: opts}
}

const scoringSystemPrompt = `You analyse personal journal entries. Reply with a single JSON object that matches the provided schema. No markdown, no code fences, no commentary.`

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm status %d: %s", e.code, e.body)
}

var errBadEnvelope = errors.New("unexpected completion envelope")

// Score makes one attempt plus up to Retries more on transient failures,
// each bounded by Timeout. Every failure is reported as ErrAIService.
func (s *AIService) Score(ctx context.Context, prompt string, schema Schema) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			logger.Warn("ai.retry", "schema", schema.Name, "attempt", attempt, "err", lastErr)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrAIService, ctx.Err())
			case <-time.After(s.opts.Backoff * time.Duration(attempt)):
			}
		}
		out, err := s.complete(ctx, prompt, schema)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return "", fmt.Errorf("%w: %w", ErrAIService, lastErr)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, errBadEnvelope) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

func (s *AIService) complete(ctx context.Context, prompt string, schema Schema) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	body := map[string]interface{}{
		"model":  s.opts.Model,
		"stream": false,
		"messages": []map[string]string{
			{"role": "system", "content": scoringSystemPrompt},
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   schema.Name,
				"strict": true,
				"schema": schema.Definition,
			},
		},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/llm-proxy/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("moi-key", s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, body: string(data)}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("%w: %v", errBadEnvelope, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", errBadEnvelope)
	}
	logger.Debug("ai.scored", "schema", schema.Name, "elapsed_ms", time.Since(start).Milliseconds())
	return result.Choices[0].Message.Content, nil
}
