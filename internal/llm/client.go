// Package llm wraps the two OpenAI-compatible backends the pipeline uses:
// an embedding service and a generative chat model (Groq by default).
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/math-agent/backend/pkg/circuitbreaker"
	"github.com/math-agent/backend/pkg/logger"
	"github.com/math-agent/backend/pkg/retry"
)

// ErrNotConfigured is returned by Answer when no chat credential is set.
// It is the only path to a terminal "no answer" outcome when retrieval was
// inconclusive and augmentation failed.
var ErrNotConfigured = errors.New("generative backend not configured")

const systemPrompt = "You are a precise math tutor. Reply only as numbered steps. " +
	"No titles or markdown. Example:\n1. Step 1\n2. Step 2\n3. Final answer: x = 2"

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration

	EmbeddingAPIKey  string
	EmbeddingBaseURL string
	EmbeddingModel   string
	EmbeddingTimeout time.Duration
}

type Client struct {
	chat           *openai.Client
	embed          *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	timeout        time.Duration
	embedTimeout   time.Duration
	chatBreaker    *circuitbreaker.CircuitBreaker
	embedBreaker   *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.EmbeddingTimeout == 0 {
		opts.EmbeddingTimeout = 15 * time.Second
	}

	var chat *openai.Client
	if opts.APIKey != "" {
		cfg := openai.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		chat = openai.NewClientWithConfig(cfg)
	}

	embedCfg := openai.DefaultConfig(opts.EmbeddingAPIKey)
	if opts.EmbeddingBaseURL != "" {
		embedCfg.BaseURL = opts.EmbeddingBaseURL
	}

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM client initialized",
		zap.String("model", opts.Model),
		zap.String("embedding_model", opts.EmbeddingModel),
		zap.Bool("generative_configured", chat != nil),
	)

	return &Client{
		chat:           chat,
		embed:          openai.NewClientWithConfig(embedCfg),
		model:          opts.Model,
		embeddingModel: opts.EmbeddingModel,
		temperature:    opts.Temperature,
		maxTokens:      opts.MaxTokens,
		timeout:        opts.Timeout,
		embedTimeout:   opts.EmbeddingTimeout,
		chatBreaker: circuitbreaker.New("generative", circuitbreaker.Config{
			Logger: logger.GetLogger(),
		}),
		embedBreaker: circuitbreaker.New("embedding", circuitbreaker.Config{
			Logger: logger.GetLogger(),
		}),
		retryConfig: retryConfig,
	}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.embedTimeout)
	defer cancel()

	var embedding []float32

	err := c.embedBreaker.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.embed.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: []string{text},
					Model: openai.EmbeddingModel(c.embeddingModel),
				},
			)
			if err != nil {
				return fmt.Errorf("failed to generate embedding: %w", err)
			}
			if len(resp.Data) == 0 {
				return fmt.Errorf("embedding response carried no data")
			}

			embedding = append([]float32(nil), resp.Data[0].Embedding...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return embedding, nil
}

// Answer composes the tutor prompt, with optional context snippets in a
// separate message, and calls the chat backend with low-temperature,
// bounded decoding.
func (c *Client) Answer(ctx context.Context, question string, contextSnippets []string) (string, error) {
	if c.chat == nil {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
	}
	if len(contextSnippets) > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: "Related context (do not repeat verbatim):\n" + strings.Join(contextSnippets, "\n\n"),
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: fmt.Sprintf("Solve or explain: %s", question),
	})

	var text string

	err := c.chatBreaker.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.chat.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    messages,
					Temperature: c.temperature,
					MaxTokens:   c.maxTokens,
				},
			)
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion carried no choices")
			}

			logger.Debug("Generative completion",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			text = resp.Choices[0].Message.Content
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	return cleanReply(text), nil
}

// cleanReply strips incidental wrapping formatting from the raw model
// output.
func cleanReply(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "**") && strings.HasSuffix(text, "**") {
		text = strings.TrimSpace(strings.Trim(text, "*"))
	}
	return text
}
