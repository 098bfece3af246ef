package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/textclean"
)

const (
	DefaultLMStudioModel = "local-model"
	// NoFallbackAnswerPlaceholder replaces an empty fallback completion.
	NoFallbackAnswerPlaceholder = "No answer found from LM Studio."
	// thinkPrefill primes reasoning models past their think block.
	thinkPrefill = "<think>\n\n</think>\n\n"
)

// fallbackSampling keeps local reasoning models short and on topic.
var fallbackSampling = entities.Sampling{
	Temperature:       0.7,
	MaxTokens:         1000,
	TopP:              0.9,
	PresencePenalty:   0.3,
	FrequencyPenalty:  0.3,
	RepetitionPenalty: 1.1,
	Stop:              []string{"<think>", "</think>"},
}

// LMStudioConfig configures the local fallback provider.
type LMStudioConfig struct {
	// URL is the server base, e.g. http://localhost:1234. Empty disables
	// the adapter.
	URL     string
	Model   string
	Timeout time.Duration
}

// LMStudioAdapter implements ports.FallbackProvider against an LM Studio
// (OpenAI-compatible) server.
type LMStudioAdapter struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// NewLMStudioAdapter creates a new LM Studio adapter.
func NewLMStudioAdapter(cfg LMStudioConfig, client *http.Client, logger *zap.Logger) *LMStudioAdapter {
	if cfg.Model == "" {
		cfg.Model = DefaultLMStudioModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LMStudioAdapter{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		client:  client,
		logger:  logger.With(zap.String("provider", "lmstudio"), zap.String("model", cfg.Model)),
	}
}

// Configured implements ports.FallbackProvider.
func (a *LMStudioAdapter) Configured() bool { return a.baseURL != "" }

// Model implements ports.FallbackProvider.
func (a *LMStudioAdapter) Model() string { return a.model }

// Request builds the provider request for prompt.
func (a *LMStudioAdapter) Request(prompt entities.Prompt) entities.ProviderRequest {
	return entities.ProviderRequest{
		SystemPrompt:     FallbackSystemPrompt(prompt.Context),
		UserMessage:      prompt.Question,
		AssistantPrefill: thinkPrefill,
		Model:            a.model,
		Sampling:         fallbackSampling,
	}
}

// Complete implements ports.FallbackProvider. It never fails loudly: every
// problem is folded into the returned outcome.
func (a *LMStudioAdapter) Complete(ctx context.Context, prompt entities.Prompt) entities.FallbackResult {
	if !a.Configured() {
		a.logger.Debug("fallback not configured, skipping")
		return entities.FallbackResult{Outcome: entities.FallbackSkipped}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	content, err := postChat(ctx, a.client, a.baseURL+"/v1/chat/completions", nil, newChatRequest(a.Request(prompt)))
	elapsed := time.Since(start)

	if err != nil {
		outcome := classifyFallback(err)
		a.logger.Warn("fallback call failed",
			zap.String("outcome", string(outcome)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return entities.FallbackResult{Outcome: outcome, Detail: err.Error()}
	}

	if content == "" {
		content = NoFallbackAnswerPlaceholder
	}
	answer := textclean.Clean(content)
	a.logger.Info("fallback call answered",
		zap.Duration("elapsed", elapsed),
		zap.Int("raw_length", len(content)),
		zap.Int("clean_length", len(answer)),
	)
	return entities.FallbackResult{Outcome: entities.FallbackAnswered, Answer: answer, Model: a.model}
}

func classifyFallback(err error) entities.FallbackOutcome {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return entities.FallbackUnreachable
	}
	return entities.FallbackRejected
}
