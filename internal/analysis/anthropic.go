package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dkotov/pitchlab/internal/domain"
)

var errEmptyResponse = errors.New("empty response content")

// Config holds configuration for the Anthropic analyzer client.
type Config struct {
	APIKey         string
	Model          string
	MaxTokens      int64
	Temperature    float64
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig returns default analyzer configuration. Temperature is kept
// low for consistent scoring.
func DefaultConfig() Config {
	return Config{
		Model:          string(anthropic.ModelClaudeSonnet4_0),
		MaxTokens:      1500,
		Temperature:    0.3,
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// AnthropicAnalyzer implements Analyzer against the Anthropic Messages API.
type AnthropicAnalyzer struct {
	client anthropic.Client
	cfg    Config
	logger *slog.Logger
}

// Ensure AnthropicAnalyzer implements Analyzer.
var _ Analyzer = (*AnthropicAnalyzer)(nil)

// NewAnthropicAnalyzer creates an analyzer backed by the Anthropic API.
func NewAnthropicAnalyzer(cfg Config, logger *slog.Logger) (*AnthropicAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}

	return &AnthropicAnalyzer{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// AnalyzeTurn scores one conversation turn. Transport and rate-limit errors
// are retried with exponential backoff up to the configured attempt budget;
// validation errors are not. A response that parses but omits dimensions is
// completed with neutral scores rather than rejected.
func (a *AnthropicAnalyzer) AnalyzeTurn(ctx context.Context, tc TurnContext, userInput, counterpartResponse string) (*domain.ConversationAnalysis, error) {
	content, err := a.complete(ctx, buildAnalysisSystemPrompt(tc), buildAnalysisPrompt(tc, userInput, counterpartResponse))
	if err != nil {
		return nil, err
	}

	parsed, err := parseAnalysisResponse(content)
	if err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}

	return &domain.ConversationAnalysis{
		TurnID:                 fmt.Sprintf("%s_%d", tc.SessionID, tc.TurnNumber),
		UserInput:              userInput,
		CounterpartResponse:    counterpartResponse,
		Scores:                 parsed.scores,
		CoachingFeedback:       parsed.coachingFeedback,
		ImprovementSuggestions: parsed.improvementSuggestions,
		Confidence:             parsed.confidence,
		Timestamp:              time.Now().UTC(),
	}, nil
}

func (a *AnthropicAnalyzer) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.cfg.Model),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: anthropic.Float(a.cfg.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	backoff := a.cfg.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
		message, err := a.client.Messages.New(reqCtx, params)
		cancel()
		if err == nil {
			var content string
			for _, block := range message.Content {
				content += block.Text
			}
			if content == "" {
				return "", errEmptyResponse
			}
			return content, nil
		}

		lastErr = err
		if !isRetryable(err) || attempt == a.cfg.MaxAttempts {
			break
		}

		a.logger.Warn("analyzer request failed, retrying",
			"attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		backoff *= 2
		if backoff > a.cfg.MaxBackoff {
			backoff = a.cfg.MaxBackoff
		}
	}
	return "", fmt.Errorf("anthropic request failed after %d attempts: %w", a.cfg.MaxAttempts, lastErr)
}

// isRetryable reports whether the error warrants another attempt. Rate
// limits, timeouts and server-side failures are retryable; other API errors
// indicate a bad request and are not.
func isRetryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true
		default:
			return apiErr.StatusCode >= http.StatusInternalServerError
		}
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Transport-level failure with no API status.
	return true
}
