package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"mdsum/internal/domain"
	"mdsum/internal/summarizer"
)

// Backend types.
const (
	BackendSGLang     = "sglang"
	BackendOpenAI     = "openai"
	BackendExtractive = "extractive"
)

// Catalog store types.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

const maxTimeoutSecs = 300

// BackendConfig selects and configures the text generation backend.
type BackendConfig struct {
	Type              string   `yaml:"type"`
	Endpoints         []string `yaml:"endpoints"`
	Model             string   `yaml:"model"`
	APIKeyEnv         string   `yaml:"api_key_env"`
	TimeoutSecs       int      `yaml:"timeout_secs"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
}

// SamplingConfig is passed through to the backend on every call.
type SamplingConfig struct {
	Temperature       float64  `yaml:"temperature"`
	TopP              float64  `yaml:"top_p"`
	RepetitionPenalty float64  `yaml:"repetition_penalty"`
	Stop              []string `yaml:"stop"`
}

// SummarizerConfig tunes the map-reduce pipeline.
type SummarizerConfig struct {
	AutoChunk           bool    `yaml:"auto_chunk"`
	MaxTokens           int     `yaml:"max_tokens"`
	TokensPerChar       float64 `yaml:"tokens_per_char"`
	PromptOverhead      int     `yaml:"prompt_overhead"`
	SingleShotCeiling   int     `yaml:"single_shot_ceiling"`
	ReduceCeiling       int     `yaml:"reduce_ceiling"`
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
	ChunkMaxTokens      int     `yaml:"chunk_max_tokens"`
	MaxConcurrency      int     `yaml:"max_concurrency"`
	MinReduceChars      int     `yaml:"min_reduce_chars"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// CatalogConfig selects where the document catalog is persisted.
type CatalogConfig struct {
	Store            string `yaml:"store"`
	Path             string `yaml:"path"`
	SummaryMaxTokens int    `yaml:"summary_max_tokens"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	UploadDir  string `yaml:"upload_dir"`
	SummaryDir string `yaml:"summary_dir"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Backend    BackendConfig    `yaml:"backend"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			if err := applyEnv(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/mdsum/config.yaml.
// If neither exists, it writes defaults to ~/.config/mdsum/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// LoadEnv reads a .env file into the process environment. A missing file is not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first setting that cannot work.
func (c *AppConfig) Validate() error {
	switch c.Backend.Type {
	case BackendSGLang, BackendOpenAI:
		if len(c.Backend.Endpoints) == 0 {
			return fmt.Errorf("backend %q needs at least one endpoint", c.Backend.Type)
		}
	case BackendExtractive:
	default:
		return fmt.Errorf("unknown backend type %q", c.Backend.Type)
	}
	switch c.Catalog.Store {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("unknown catalog store %q", c.Catalog.Store)
	}
	s := c.Summarizer
	if s.ChunkSize <= 0 || s.MaxTokens <= 0 || s.ChunkMaxTokens <= 0 {
		return errors.New("summarizer sizes must be positive")
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return fmt.Errorf("chunk_overlap %d must be in [0, chunk_size)", s.ChunkOverlap)
	}
	return nil
}

// Timeout returns the per-call backend timeout.
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSecs) * time.Second
}

// APIKey resolves the backend API key from the configured environment variable.
func (c *AppConfig) APIKey() string {
	if c.Backend.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Backend.APIKeyEnv)
}

// SummarizerOptions converts the YAML tuning into the pipeline config.
func (c *AppConfig) SummarizerOptions() summarizer.Config {
	s := c.Summarizer
	return summarizer.Config{
		AutoChunk:           s.AutoChunk,
		TokensPerChar:       s.TokensPerChar,
		PromptOverhead:      s.PromptOverhead,
		SingleShotCeiling:   s.SingleShotCeiling,
		ReduceCeiling:       s.ReduceCeiling,
		ChunkSize:           s.ChunkSize,
		ChunkOverlap:        s.ChunkOverlap,
		ChunkMaxTokens:      s.ChunkMaxTokens,
		MaxConcurrency:      s.MaxConcurrency,
		MinReduceChars:      s.MinReduceChars,
		SimilarityThreshold: s.SimilarityThreshold,
		Sampling: domain.Sampling{
			Temperature:       c.Sampling.Temperature,
			TopP:              c.Sampling.TopP,
			RepetitionPenalty: c.Sampling.RepetitionPenalty,
			Stop:              c.Sampling.Stop,
		},
	}
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mdsum", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	s := summarizer.DefaultConfig()
	cfg := &AppConfig{
		Backend: BackendConfig{
			Type:        BackendSGLang,
			Endpoints:   []string{"http://localhost:30000"},
			Model:       "default",
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 120,
			Burst:       1,
		},
		Sampling: SamplingConfig{
			Temperature:       s.Sampling.Temperature,
			TopP:              s.Sampling.TopP,
			RepetitionPenalty: s.Sampling.RepetitionPenalty,
			Stop:              s.Sampling.Stop,
		},
		Summarizer: SummarizerConfig{
			AutoChunk:           s.AutoChunk,
			MaxTokens:           8192,
			TokensPerChar:       s.TokensPerChar,
			PromptOverhead:      s.PromptOverhead,
			SingleShotCeiling:   s.SingleShotCeiling,
			ReduceCeiling:       s.ReduceCeiling,
			ChunkSize:           s.ChunkSize,
			ChunkOverlap:        s.ChunkOverlap,
			ChunkMaxTokens:      s.ChunkMaxTokens,
			MinReduceChars:      s.MinReduceChars,
			SimilarityThreshold: s.SimilarityThreshold,
		},
		Catalog: CatalogConfig{
			Store:            StoreJSON,
			Path:             "summary_index.json",
			SummaryMaxTokens: 2048,
		},
		Server: ServerConfig{
			Addr:       ":8000",
			UploadDir:  "uploads",
			SummaryDir: "summaries",
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	d := defaultConfig()
	if cfg.Backend.Type == "" {
		cfg.Backend.Type = d.Backend.Type
	}
	if cfg.Backend.TimeoutSecs <= 0 {
		cfg.Backend.TimeoutSecs = d.Backend.TimeoutSecs
	}
	if cfg.Backend.TimeoutSecs > maxTimeoutSecs {
		cfg.Backend.TimeoutSecs = maxTimeoutSecs
	}
	if cfg.Backend.Type == BackendExtractive && len(cfg.Backend.Endpoints) == 0 {
		cfg.Backend.Endpoints = []string{"local"}
	}
	if cfg.Summarizer.MaxTokens <= 0 {
		cfg.Summarizer.MaxTokens = d.Summarizer.MaxTokens
	}
	if cfg.Catalog.Store == "" {
		cfg.Catalog.Store = d.Catalog.Store
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = d.Catalog.Path
	}
	if cfg.Catalog.SummaryMaxTokens <= 0 {
		cfg.Catalog.SummaryMaxTokens = d.Catalog.SummaryMaxTokens
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = d.Server.UploadDir
	}
	if cfg.Server.SummaryDir == "" {
		cfg.Server.SummaryDir = d.Server.SummaryDir
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}

// applyEnv overrides settings from MDSUM_* variables.
func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("MDSUM_BACKEND"); v != "" {
		cfg.Backend.Type = v
	}
	if v := os.Getenv("MDSUM_ENDPOINTS"); v != "" {
		var eps []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				eps = append(eps, e)
			}
		}
		cfg.Backend.Endpoints = eps
	}
	if v := os.Getenv("MDSUM_MODEL"); v != "" {
		cfg.Backend.Model = v
	}
	if v := os.Getenv("MDSUM_TIMEOUT_SECS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MDSUM_TIMEOUT_SECS: %w", err)
		}
		cfg.Backend.TimeoutSecs = n
	}
	if v := os.Getenv("MDSUM_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("MDSUM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MDSUM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	applyConfigDefaults(cfg)
	return nil
}
