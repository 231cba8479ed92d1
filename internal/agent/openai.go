package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// The default gateway is an OpenAI-compatible Together endpoint; any
	// compatible base URL and model pair works.
	defaultBaseURL = "https://api.together.xyz/v1"
	defaultModel   = "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"

	systemPrompt = "You are a search assistant that presents structured search results " +
		"to users. Follow the formatting instructions exactly and never invent " +
		"results that are not in the provided data."
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Retry   RetryConfig
}

// OpenAIFormatter renders result payloads through a chat-completion model.
type OpenAIFormatter struct {
	client  openai.Client
	model   string
	timeout time.Duration
	retry   RetryConfig
}

func NewOpenAIFormatter(cfg OpenAIConfig) *OpenAIFormatter {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}

	client := openai.NewClient(
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithBaseURL(baseURL),
	)
	return &OpenAIFormatter{
		client:  client,
		model:   model,
		timeout: timeout,
		retry:   retry,
	}
}

func (f *OpenAIFormatter) Format(ctx context.Context, instruction, payload string) (string, error) {
	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && f.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionNewParams{
		Model: f.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(instruction + "\n\nSearch results (JSON):\n" + payload),
		},
	}

	var content string
	err := RetryWithBackoff(runCtx, f.retry, func() error {
		resp, err := f.client.Chat.Completions.New(runCtx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("completion returned no choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// Passthrough returns the raw payload unformatted. Used when no completion
// gateway is configured, so the service stays usable without an API key.
type Passthrough struct{}

func (Passthrough) Format(_ context.Context, _ string, payload string) (string, error) {
	return payload, nil
}
