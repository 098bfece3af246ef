package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

const (
	DefaultHuggingFaceURL   = "https://router.huggingface.co/v1/chat/completions"
	DefaultHuggingFaceModel = "google/gemma-7b-it"
	// NoAnswerPlaceholder replaces an empty primary completion.
	NoAnswerPlaceholder = "No answer found."
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 15 * time.Second

// HuggingFaceConfig configures the hosted primary provider.
type HuggingFaceConfig struct {
	APIKey  string
	Model   string
	URL     string
	Timeout time.Duration
}

// HuggingFaceAdapter implements ports.PrimaryProvider using the Hugging Face
// inference router.
type HuggingFaceAdapter struct {
	apiKey  string
	model   string
	url     string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// NewHuggingFaceAdapter creates a new Hugging Face adapter.
func NewHuggingFaceAdapter(cfg HuggingFaceConfig, client *http.Client, logger *zap.Logger) *HuggingFaceAdapter {
	if cfg.Model == "" {
		cfg.Model = DefaultHuggingFaceModel
	}
	if cfg.URL == "" {
		cfg.URL = DefaultHuggingFaceURL
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
	logger = logger.With(zap.String("provider", "huggingface"), zap.String("model", cfg.Model))

	if cfg.APIKey == "" {
		logger.Warn("HUGGINGFACE_API_KEY is missing; primary calls will fail")
	} else {
		logger.Info("api key loaded",
			zap.String("key_prefix", keyPrefix(cfg.APIKey)),
			zap.Int("key_length", len(cfg.APIKey)),
		)
	}

	return &HuggingFaceAdapter{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		url:     cfg.URL,
		timeout: cfg.Timeout,
		client:  client,
		logger:  logger,
	}
}

// Name implements ports.PrimaryProvider.
func (a *HuggingFaceAdapter) Name() string { return "huggingface" }

// Request builds the provider request for prompt.
func (a *HuggingFaceAdapter) Request(prompt entities.Prompt) entities.ProviderRequest {
	return entities.ProviderRequest{
		SystemPrompt: PrimarySystemPrompt(prompt.Context),
		UserMessage:  prompt.Question,
		Model:        a.model,
	}
}

// Complete implements ports.PrimaryProvider.
func (a *HuggingFaceAdapter) Complete(ctx context.Context, prompt entities.Prompt) entities.ProviderResult {
	if a.apiKey == "" {
		a.logger.Warn("primary call skipped", zap.String("kind", string(entities.FailureUnavailable)))
		return entities.FailureResult(entities.FailureUnavailable, "api key not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.apiKey)

	start := time.Now()
	content, err := postChat(ctx, a.client, a.url, header, newChatRequest(a.Request(prompt)))
	elapsed := time.Since(start)

	if err != nil {
		kind := classifyPrimary(err)
		a.logger.Warn("primary call failed",
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return entities.FailureResult(kind, err.Error())
	}

	if content == "" {
		content = NoAnswerPlaceholder
	}
	a.logger.Info("primary call answered", zap.Duration("elapsed", elapsed), zap.Int("answer_length", len(content)))
	return entities.AnswerResult(content)
}

func classifyPrimary(err error) entities.FailureKind {
	var statusErr *StatusError
	var transportErr *TransportError
	var decodeErr *DecodeError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusPaymentRequired:
		return entities.FailureQuotaExceeded
	case errors.As(err, &transportErr):
		return entities.FailureNetwork
	case errors.As(err, &decodeErr):
		return entities.FailureMalformed
	default:
		return entities.FailureUnknown
	}
}

// keyPrefix returns enough of a secret to tell keys apart in logs.
func keyPrefix(key string) string {
	if len(key) <= 6 {
		return key[:len(key)/2] + "..."
	}
	return key[:6] + "..."
}
