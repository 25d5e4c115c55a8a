package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"mdsum/internal/domain"
)

// Timeout bounds for a single generation call.
const (
	DefaultTimeout = 120 * time.Second
	MaxTimeout     = 300 * time.Second
)

// SGLangConfig configures the native SGLang client.
type SGLangConfig struct {
	Timeout time.Duration
	// HTTPClient overrides the transport. Its own Timeout is ignored in favour of Timeout.
	HTTPClient *http.Client
}

// SGLangClient talks to the native SGLang /generate endpoint. It performs
// exactly one request per call; retrying is left to the caller.
type SGLangClient struct {
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

type sglangSamplingParams struct {
	MaxNewTokens      int      `json:"max_new_tokens"`
	Temperature       float64  `json:"temperature"`
	TopP              float64  `json:"top_p,omitempty"`
	RepetitionPenalty float64  `json:"repetition_penalty,omitempty"`
	Stop              []string `json:"stop,omitempty"`
}

type sglangRequest struct {
	Text           string               `json:"text"`
	SamplingParams sglangSamplingParams `json:"sampling_params"`
}

type sglangResponse struct {
	Text string `json:"text"`
}

// NewSGLangClient creates a client. A zero timeout means DefaultTimeout;
// timeouts above MaxTimeout are clamped.
func NewSGLangClient(cfg SGLangConfig, logger *zap.Logger) *SGLangClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &SGLangClient{
		client:  client,
		timeout: clampTimeout(cfg.Timeout),
		logger:  logger,
	}
}

// Name returns the identifier of this backend.
func (c *SGLangClient) Name() string { return "sglang" }

// Generate posts the prompt to req.Endpoint and returns the trimmed text.
func (c *SGLangClient) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(sglangRequest{
		Text: req.Prompt,
		SamplingParams: sglangSamplingParams{
			MaxNewTokens:      req.MaxTokens,
			Temperature:       req.Sampling.Temperature,
			TopP:              req.Sampling.TopP,
			RepetitionPenalty: req.Sampling.RepetitionPenalty,
			Stop:              req.Sampling.Stop,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal sglang request: %w", err)
	}

	url := strings.TrimRight(req.Endpoint, "/") + "/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request for %s: %v", ErrTransport, req.Endpoint, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("sglang request failed", zap.String("endpoint", req.Endpoint), zap.Error(err))
		return "", classify(req.Endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: %s returned %s: %s", ErrTransport, req.Endpoint, resp.Status, strings.TrimSpace(string(msg)))
	}

	var out sglangResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", classify(req.Endpoint, fmt.Errorf("decode sglang response: %w", err))
	}

	c.logger.Debug("sglang response received",
		zap.String("endpoint", req.Endpoint),
		zap.Int("chars", len(out.Text)),
		zap.Duration("elapsed", time.Since(start)))
	return strings.TrimSpace(out.Text), nil
}

func clampTimeout(t time.Duration) time.Duration {
	if t <= 0 {
		return DefaultTimeout
	}
	if t > MaxTimeout {
		return MaxTimeout
	}
	return t
}
