package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	TokenizerHF       = "hf"
	TokenizerTiktoken = "tiktoken"

	SummarizerHuggingFace = "huggingface"
	SummarizerOpenAI      = "openai"
	SummarizerOllama      = "ollama"

	ChunkStrategyTokens    = "tokens"
	ChunkStrategySentences = "sentences"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPAddr     string  `env:"HTTP_ADDR"     envDefault:":8080"`
	MCPAddr      string  `env:"MCP_ADDR"`
	Token        string  `env:"TOKEN"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`

	Fetch      Fetch
	Tokenizer  Tokenizer
	Chunk      Chunk
	Summarizer Summarizer
	Pipeline   Pipeline
	Runner     Runner
}

type Fetch struct {
	Timeout   time.Duration `env:"FETCH_TIMEOUT"    envDefault:"20s"`
	UserAgent string        `env:"FETCH_USER_AGENT"`
}

type Tokenizer struct {
	Backend  string `env:"TOKENIZER"          envDefault:"hf"`
	File     string `env:"TOKENIZER_FILE"`
	Model    string `env:"TOKENIZER_MODEL"    envDefault:"facebook/bart-large-cnn"`
	Encoding string `env:"TOKENIZER_ENCODING" envDefault:"cl100k_base"`
}

type Chunk struct {
	MaxTokens int    `env:"CHUNK_MAX_TOKENS" envDefault:"1024"`
	Strategy  string `env:"CHUNK_STRATEGY"   envDefault:"tokens"`
}

type Summarizer struct {
	Backend        string `env:"SUMMARIZER"              envDefault:"huggingface"`
	MaxLength      int    `env:"SUMMARY_MAX_LENGTH"      envDefault:"130"`
	MinLength      int    `env:"SUMMARY_MIN_LENGTH"      envDefault:"30"`
	AdaptiveBounds bool   `env:"SUMMARY_ADAPTIVE_BOUNDS" envDefault:"true"`

	HFAPIToken string `env:"HF_API_TOKEN"`
	HFBaseURL  string `env:"HF_BASE_URL"  envDefault:"https://router.huggingface.co/hf-inference/models"`
	HFModel    string `env:"HF_MODEL"     envDefault:"facebook/bart-large-cnn"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL"   envDefault:"gpt-4o-mini"`

	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaModel   string `env:"OLLAMA_MODEL"    envDefault:"llama3.2"`
}

type Pipeline struct {
	Workers int `env:"PIPELINE_WORKERS" envDefault:"1"`
}

type Runner struct {
	QueueSize   int           `env:"RUNNER_QUEUE_SIZE"   envDefault:"64"`
	MinInterval time.Duration `env:"RUNNER_MIN_INTERVAL" envDefault:"0s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.Token = strings.TrimSpace(c.Token)
	c.Tokenizer.Backend = strings.ToLower(strings.TrimSpace(c.Tokenizer.Backend))
	c.Chunk.Strategy = strings.ToLower(strings.TrimSpace(c.Chunk.Strategy))
	c.Summarizer.Backend = strings.ToLower(strings.TrimSpace(c.Summarizer.Backend))
	c.Summarizer.OpenAIAPIKey = strings.TrimSpace(c.Summarizer.OpenAIAPIKey)
	c.Summarizer.HFAPIToken = strings.TrimSpace(c.Summarizer.HFAPIToken)
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Tokenizer.Backend {
	case TokenizerHF, TokenizerTiktoken:
	default:
		errs = append(errs, fmt.Errorf("TOKENIZER must be %q or %q (got %q)",
			TokenizerHF, TokenizerTiktoken, c.Tokenizer.Backend))
	}

	switch c.Chunk.Strategy {
	case ChunkStrategyTokens, ChunkStrategySentences:
	default:
		errs = append(errs, fmt.Errorf("CHUNK_STRATEGY must be %q or %q (got %q)",
			ChunkStrategyTokens, ChunkStrategySentences, c.Chunk.Strategy))
	}

	if c.Chunk.MaxTokens <= 0 {
		errs = append(errs, errors.New("CHUNK_MAX_TOKENS must be positive"))
	}

	switch c.Summarizer.Backend {
	case SummarizerHuggingFace, SummarizerOllama:
	case SummarizerOpenAI:
		if c.Summarizer.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when SUMMARIZER is openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("SUMMARIZER must be one of %q, %q, %q (got %q)",
			SummarizerHuggingFace, SummarizerOpenAI, SummarizerOllama, c.Summarizer.Backend))
	}

	if c.Summarizer.MaxLength <= 0 {
		errs = append(errs, errors.New("SUMMARY_MAX_LENGTH must be positive"))
	}
	if c.Summarizer.MinLength < 0 {
		errs = append(errs, errors.New("SUMMARY_MIN_LENGTH cannot be negative"))
	}
	if c.Summarizer.MinLength > c.Summarizer.MaxLength {
		errs = append(errs, errors.New("SUMMARY_MIN_LENGTH cannot exceed SUMMARY_MAX_LENGTH"))
	}

	if c.Pipeline.Workers <= 0 {
		errs = append(errs, errors.New("PIPELINE_WORKERS must be positive"))
	}
	if c.Runner.QueueSize <= 0 {
		errs = append(errs, errors.New("RUNNER_QUEUE_SIZE must be positive"))
	}
	if c.Runner.MinInterval < 0 {
		errs = append(errs, errors.New("RUNNER_MIN_INTERVAL cannot be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
