package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"photoscribe/pkg/config"
	"photoscribe/pkg/media"
	"photoscribe/pkg/prompt"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client describes images through an OpenAI-compatible chat completions API.
type Client struct {
	client         osdk.Client
	model          string
	instruction    string
	maxTokens      int
	temperature    float64
	requestTimeout time.Duration
	log            *slog.Logger
}

// New builds a client from inference settings. Retries are disabled: a
// failed call is reported once and never replayed.
func New(cfg config.InferenceConfig, log *slog.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("inference api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultInferenceModel
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = config.DefaultInferenceBaseURL
	}

	if log == nil {
		log = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}

	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(requestTimeout))
	}

	return &Client{
		client:         osdk.NewClient(opts...),
		model:          model,
		instruction:    prompt.Instruction,
		maxTokens:      cfg.MaxTokens,
		temperature:    cfg.Temperature,
		requestTimeout: requestTimeout,
		log:            log.With("component", "vision.client", "model", model),
	}, nil
}

// Model returns the model identifier sent with each request.
func (c *Client) Model() string {
	return c.model
}

// Health checks that the endpoint accepts the configured credentials.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if _, err := c.client.Models.List(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", classify(err))
	}

	return nil
}

// Describe sends the image at imagePath with the fixed instruction and
// returns the model's text unchanged. Every failure is a *DescribeError.
func (c *Client) Describe(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		describeErr := &DescribeError{Kind: KindRead, Err: err}
		c.log.Error("Failed to read staged image", "path", imagePath, "error", describeErr)
		return "", describeErr
	}

	mimeType := media.DetectMIME(imagePath)
	params := c.buildRequest(data, mimeType)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	startedAt := time.Now()
	c.log.Debug("Inference request started", "mime_type", mimeType, "image_bytes", len(data))

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		describeErr := classify(err)
		c.log.Error("Inference request failed",
			"duration_ms", time.Since(startedAt).Milliseconds(),
			"kind", string(describeErr.Kind),
			"error", describeErr,
		)
		return "", describeErr
	}
	if completion == nil || len(completion.Choices) == 0 {
		describeErr := &DescribeError{Kind: KindEmptyResponse, Err: errors.New("response has no choices")}
		c.log.Error("Inference request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", describeErr)
		return "", describeErr
	}

	text := completion.Choices[0].Message.Content
	c.log.Info("Inference request completed",
		"duration_ms", time.Since(startedAt).Milliseconds(),
		"finish_reason", completion.Choices[0].FinishReason,
		"response_length", len(text),
	)

	return text, nil
}

// buildRequest assembles the single user message: instruction text first,
// then the image as a data URI. Equal inputs yield equal requests.
func (c *Client) buildRequest(image []byte, mimeType string) osdk.ChatCompletionNewParams {
	parts := []osdk.ChatCompletionContentPartUnionParam{
		osdk.TextContentPart(c.instruction),
		osdk.ImageContentPart(osdk.ChatCompletionContentPartImageImageURLParam{
			URL: media.DataURI(mimeType, image),
		}),
	}

	params := osdk.ChatCompletionNewParams{
		Model:    c.model,
		Messages: []osdk.ChatCompletionMessageParamUnion{osdk.UserMessage(parts)},
	}
	if c.maxTokens > 0 {
		params.MaxTokens = osdk.Int(int64(c.maxTokens))
	}
	if c.temperature > 0 {
		params.Temperature = osdk.Float(c.temperature)
	}

	return params
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.requestTimeout)
}
