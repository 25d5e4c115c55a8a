package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"mdsum/internal/domain"
)

// OpenAIConfig configures the OpenAI-compatible completions client.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIClient calls the /v1/completions route of an OpenAI-compatible
// server (SGLang and vLLM both expose one). The SDK's own retries are
// disabled; one call is one request.
type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIClient creates a client for the given model.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	model := cfg.Model
	if model == "" {
		model = "default"
	}
	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: clampTimeout(cfg.Timeout),
		logger:  logger,
	}
}

// Name returns the identifier of this backend.
func (c *OpenAIClient) Name() string { return "openai" }

// Generate issues one completion request against req.Endpoint.
func (c *OpenAIClient) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(c.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(req.Prompt)},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Sampling.Temperature),
	}
	if req.Sampling.TopP > 0 {
		params.TopP = openai.Float(req.Sampling.TopP)
	}
	if len(req.Sampling.Stop) > 0 {
		params.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: req.Sampling.Stop}
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(req.Endpoint, "/") + "/v1/"),
	}
	if req.Sampling.RepetitionPenalty > 0 {
		reqOpts = append(reqOpts, option.WithJSONSet("repetition_penalty", req.Sampling.RepetitionPenalty))
	}

	resp, err := c.client.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %s returned status %d", ErrTransport, req.Endpoint, apiErr.StatusCode)
		}
		c.logger.Error("completion request failed", zap.String("endpoint", req.Endpoint), zap.Error(err))
		return "", classify(req.Endpoint, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", ErrTransport, req.Endpoint)
	}
	return strings.TrimSpace(resp.Choices[0].Text), nil
}
