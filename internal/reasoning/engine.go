// Package reasoning wraps the Anthropic messages API behind a uniform
// request/response envelope for targeting analysis. Every operation reports
// failure through the envelope: transport errors, non-2xx responses, and
// malformed model output all come back as Success=false with a descriptive
// Error, never as a propagated error or panic. Callers must check
// IsConfigured before attempting the AI path.
package reasoning

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/targeting-cli/internal/config"
	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/internal/resilience"
	"github.com/sells-group/targeting-cli/pkg/anthropic"
)

// Result is the uniform envelope every reasoning operation returns.
// Success=true guarantees Data is non-nil and required fields are defaulted.
type Result[T any] struct {
	Success    bool
	Data       *T
	Error      string
	Confidence float64
	Reasoning  string
	TokensUsed model.TokenUsage
}

func failure[T any](msg string) Result[T] {
	return Result[T]{Success: false, Error: msg}
}

// Engine performs structured-completion calls against Anthropic models.
type Engine struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
	retry  resilience.RetryConfig
}

// NewEngine creates an Engine. A nil client (no API key configured) produces
// an engine whose IsConfigured reports false; operations then fail fast with
// a "not configured" envelope.
func NewEngine(client anthropic.Client, cfg config.AnthropicConfig) *Engine {
	return &Engine{
		client: client,
		cfg:    cfg,
		retry:  resilience.FromRetryConfig(cfg.MaxAttempts, cfg.InitialBackoffMs, cfg.MaxBackoffMs, 0, -1),
	}
}

// IsConfigured reports whether a provider credential is present.
func (e *Engine) IsConfigured() bool {
	return e != nil && e.client != nil && e.cfg.Key != ""
}

// analysisModel is the cheaper model used for classification-grade calls;
// when no haiku model is configured the sonnet model serves both tiers.
func (e *Engine) analysisModel() string {
	if e.cfg.HaikuModel != "" {
		return e.cfg.HaikuModel
	}
	return e.cfg.SonnetModel
}

// targetingModel generates the full targeting payloads.
func (e *Engine) targetingModel() string {
	return e.cfg.SonnetModel
}

// invoke sends one prompt and returns the raw response text. Transient
// provider failures are retried with backoff before giving up.
func (e *Engine) invoke(ctx context.Context, operation, modelID, system, prompt string, maxTokens int64) (string, model.TokenUsage, error) {
	var resp *anthropic.MessageResponse

	err := resilience.Do(ctx, e.retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     modelID,
			MaxTokens: maxTokens,
			System:    anthropic.BuildCachedSystemBlocks(system),
			Messages: []anthropic.Message{
				{Role: "user", Content: prompt},
			},
		})
		return callErr
	})

	var usage model.TokenUsage
	if resp != nil {
		usage = model.TokenUsage{
			InputTokens:         int(resp.Usage.InputTokens),
			OutputTokens:        int(resp.Usage.OutputTokens),
			CacheCreationTokens: int(resp.Usage.CacheCreationInputTokens),
			CacheReadTokens:     int(resp.Usage.CacheReadInputTokens),
			Cost:                resp.Usage.EstimateCost(modelID),
		}
	}
	if err != nil {
		zap.L().Warn("reasoning: provider call failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return "", usage, err
	}

	resp.Usage.LogCost(modelID, operation)
	return extractText(resp), usage, nil
}

// run executes one operation end to end: invoke, clean, decode, default.
func run[T any](e *Engine, ctx context.Context, operation, modelID, system, prompt string, maxTokens int64) Result[T] {
	if !e.IsConfigured() {
		return failure[T]("reasoning: provider not configured")
	}

	text, usage, err := e.invoke(ctx, operation, modelID, system, prompt, maxTokens)
	if err != nil {
		r := failure[T]("reasoning: " + operation + ": " + err.Error())
		r.TokensUsed = usage
		return r
	}

	data, confidence, reasoning, decodeErr := decode[T](text)
	if decodeErr != nil {
		zap.L().Warn("reasoning: malformed model output",
			zap.String("operation", operation),
			zap.Error(decodeErr),
		)
		r := failure[T]("reasoning: " + operation + ": " + decodeErr.Error())
		r.TokensUsed = usage
		return r
	}

	return Result[T]{
		Success:    true,
		Data:       data,
		Confidence: confidence,
		Reasoning:  reasoning,
		TokensUsed: usage,
	}
}
