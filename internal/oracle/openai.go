package oracle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultTimeout = 60 * time.Second

// OpenAI calls an OpenAI-compatible chat-completions endpoint. API key, base
// URL and model are explicit constructor parameters — no ambient process-wide
// state.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// OpenAIConfig configures the adapter. BaseURL is optional (the SDK default
// is used when empty); Timeout bounds every Generate call so an unavailable
// oracle can never hang the caller.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	o.logger.Debug("oracle request", "model", o.model, "prompt_len", len(prompt))

	start := time.Now()
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	elapsed := time.Since(start)

	if err != nil {
		o.logger.Error("oracle request failed", "model", o.model, "elapsed", elapsed, "error", err)
		if ctx.Err() != nil {
			return "", fmt.Errorf("oracle timed out after %s", elapsed.Truncate(time.Second))
		}
		return "", fmt.Errorf("calling oracle: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}

	text := completion.Choices[0].Message.Content
	o.logger.Debug("oracle response", "model", o.model, "elapsed", elapsed, "response_len", len(text))

	return text, nil
}
