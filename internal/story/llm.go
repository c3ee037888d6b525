package story

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/emissions"
)

const systemPrompt = `You are the storyteller for a climate action dashboard. ` +
	`Write one short hopeful paragraph, at most 120 words, about a community's ` +
	`greenhouse gas emissions. Mention the year and the emissions level in ` +
	`plain language. Do not use markdown.`

// Config wires an OpenAI compatible chat completions endpoint.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int

	// Client and Limiter are optional and default to a 30 second client
	// and one request per second with a small burst.
	Client  *http.Client
	Limiter *rate.Limiter
}

// LLMGenerator asks a hosted language model for the story. Calls are rate
// limited, retried on transient failures and cut off by a circuit breaker so
// a struggling endpoint is left alone to recover.
type LLMGenerator struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
}

func NewLLMGenerator(cfg Config) *LLMGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 220
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(rate.Limit(1), 2)
	}

	return &LLMGenerator{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    cfg.Client,
		limiter:   cfg.Limiter,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "story-llm",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
		}),
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	operation := func() (string, error) {
		out, err := g.breaker.Execute(func() (interface{}, error) {
			return g.complete(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		return out.(string), nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
}

func (g *LLMGenerator) complete(ctx context.Context, req Request) (string, error) {
	payload := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
		MaxTokens:   g.maxTokens,
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", backoff.Permanent(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("chat completion returned status %d", resp.StatusCode)
	default:
		return "", backoff.Permanent(fmt.Errorf("chat completion returned status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", backoff.Permanent(errors.New("chat completion returned no content"))
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func userPrompt(req Request) string {
	state := req.State
	if state == "" {
		state = emissions.DefaultState
	}

	certificate := "none"
	if req.Certificate != "" {
		certificate = string(req.Certificate)
	}

	return fmt.Sprintf("State: %s\nYear: %d\nPredicted GHG emissions: %.1f tonnes CO2e\nCertificate: %s",
		state, req.Year, req.GHG, certificate)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
