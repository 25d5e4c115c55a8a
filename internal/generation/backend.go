package generation

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"mdsum/internal/domain"
)

// BackendOptions selects and tunes a generator.
type BackendOptions struct {
	Type    string
	Model   string
	APIKey  string
	Timeout time.Duration
	// RequestsPerSecond limits each endpoint; zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// NewBackend builds the generator named by opts.Type ("sglang", "openai" or
// "extractive"), rate limited per endpoint when configured.
func NewBackend(opts BackendOptions, logger *zap.Logger) (domain.Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var gen domain.Generator
	switch opts.Type {
	case "sglang", "":
		gen = NewSGLangClient(SGLangConfig{Timeout: opts.Timeout}, logger)
	case "openai":
		gen = NewOpenAIClient(OpenAIConfig{APIKey: opts.APIKey, Model: opts.Model, Timeout: opts.Timeout}, logger)
	case "extractive":
		return NewExtractive(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", opts.Type)
	}
	logger.Debug("generation backend ready",
		zap.String("backend", gen.Name()),
		zap.Duration("timeout", clampTimeout(opts.Timeout)),
		zap.Float64("rps", opts.RequestsPerSecond))
	return NewRateLimited(gen, opts.RequestsPerSecond, opts.Burst), nil
}
