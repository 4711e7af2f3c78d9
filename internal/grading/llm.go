package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LLM is the hosted-model surface the grader talks to. One call, one
// prompt, one text completion back.
type LLM interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
}

// HTTPLLM posts chat-completion requests to an OpenAI-compatible API.
type HTTPLLM struct {
	base  string
	key   string
	model string
	http  *http.Client
}

type LLMConfig struct {
	BaseURL string // e.g. https://api.openai.com
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewHTTPLLM(cfg LLMConfig) *HTTPLLM {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPLLM{
		base:  cfg.BaseURL,
		key:   cfg.APIKey,
		model: cfg.Model,
		http:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPLLM) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"temperature":     req.Temperature,
		"response_format": map[string]string{"type": "json_object"},
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.key)

	res, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("llm completion: %s", res.Status)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llm completion: empty choices")
	}
	return out.Choices[0].Message.Content, nil
}
