// Package genai wraps the language-model backend used for question
// generation, answer evaluation, and final report synthesis.
//
// Question generation is history-dependent: each call conditions on the prior
// exchanges through an explicit Conversation owned by the calling session.
// Evaluation and reporting are stateless per call and must never receive that
// conversation context.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/provoice/interview-agent/internal/config"
	"github.com/provoice/interview-agent/internal/observability"
	"github.com/provoice/interview-agent/internal/resilience"
	"github.com/provoice/interview-agent/internal/store"
)

// SentinelText is returned by every operation when no backend credential is
// configured. The interview keeps moving with this fixed text instead of
// failing.
const SentinelText = "AI interviewer is not configured. Please check the generation API credential."

// ErrUnavailable marks a generation backend that is unreachable or rejecting
// requests.
var ErrUnavailable = errors.New("generation backend unavailable")

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// Client calls an OpenAI-compatible chat completions API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	prompts     *PromptSet
	retry       *resilience.RetryConfig
	breaker     *resilience.CircuitBreaker
	log         zerolog.Logger
}

// NewClient creates a generation client from configuration. An empty API key
// produces a degraded client whose operations all return SentinelText.
func NewClient(cfg *config.Config, prompts *PromptSet) *Client {
	if prompts == nil {
		prompts = DefaultPrompts()
	}

	breaker := resilience.NewCircuitBreaker(
		"generation",
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)
	breaker.OnStateChange(func(name string, state resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(state))
	})

	return &Client{
		httpClient:  &http.Client{Timeout: time.Duration(cfg.GenerationTimeout) * time.Second},
		apiKey:      cfg.GenerationAPIKey,
		baseURL:     strings.TrimRight(cfg.GenerationBaseURL, "/"),
		model:       cfg.GenerationModel,
		temperature: cfg.Temperature,
		prompts:     prompts,
		retry: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
		breaker: breaker,
		log:     observability.GetLogger().With().Str("component", "genai").Logger(),
	}
}

// Configured reports whether a backend credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// InitialQuestion resets the conversation for a new session and asks the
// backend for the opening question. The exchange seeds the retained context.
func (c *Client) InitialQuestion(ctx context.Context, conv *Conversation, jobRole string) (string, error) {
	conv.Reset(c.prompts.persona(jobRole))
	if !c.Configured() {
		return SentinelText, nil
	}

	start := time.Now()
	question, err := c.complete(ctx, conv.Messages())
	observability.RecordGeneration("initial_question", start, err)
	if err != nil {
		return "", err
	}

	conv.Append("assistant", question)
	return question, nil
}

// NextQuestion appends the previous answer to the retained context and asks
// for the next non-repeating question given the full history so far.
func (c *Client) NextQuestion(ctx context.Context, conv *Conversation, previousAnswer string) (string, error) {
	conv.Append("user", previousAnswer)
	if !c.Configured() {
		return SentinelText, nil
	}

	messages := append(conv.Messages(), Message{Role: "user", Content: c.prompts.NextQuestion})

	start := time.Now()
	question, err := c.complete(ctx, messages)
	observability.RecordGeneration("next_question", start, err)
	if err != nil {
		return "", err
	}

	conv.Append("assistant", question)
	return question, nil
}

// EvaluateAnswer scores a single question/answer pair. It is stateless with
// respect to the conversation: only the pair itself is sent.
func (c *Client) EvaluateAnswer(ctx context.Context, question, answer string) (string, error) {
	if !c.Configured() {
		return SentinelText, nil
	}

	messages := []Message{{Role: "user", Content: c.prompts.evaluation(question, answer)}}

	start := time.Now()
	evaluation, err := c.complete(ctx, messages)
	observability.RecordGeneration("evaluate", start, err)
	if err != nil {
		return "", err
	}
	return evaluation, nil
}

// FinalReport summarizes the complete ordered transcript. Stateless.
func (c *Client) FinalReport(ctx context.Context, rounds []store.Round) (string, error) {
	if !c.Configured() {
		return SentinelText, nil
	}

	messages := []Message{{Role: "user", Content: c.prompts.report(rounds)}}

	start := time.Now()
	report, err := c.complete(ctx, messages)
	observability.RecordGeneration("report", start, err)
	if err != nil {
		return "", err
	}
	return report, nil
}

// Check probes the backend for readiness reporting.
func (c *Client) Check(ctx context.Context) (bool, error) {
	if !c.Configured() {
		return false, fmt.Errorf("no generation credential configured")
	}
	return true, nil
}

func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	var result string

	call := func() error {
		reqBody, err := json.Marshal(chatRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("generation error: status=%d body=%s", resp.StatusCode, string(b))
		}

		var cr chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return err
		}
		if len(cr.Choices) == 0 {
			return fmt.Errorf("generation error: empty choices")
		}

		result = strings.TrimSpace(cr.Choices[0].Message.Content)
		return nil
	}

	err := c.breaker.Call(func() error {
		return resilience.Retry(call, c.retry, resilience.IsRetryableNetworkError)
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Generation call failed")
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, nil
}
