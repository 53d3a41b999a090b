package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/flowgen-backend/internal/platform/envutil"
	"github.com/yungbote/flowgen-backend/internal/platform/gemini"
	"github.com/yungbote/flowgen-backend/internal/platform/qdrant"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ModelsConfig holds one provider's model ids.
type ModelsConfig struct {
	Primary           string `yaml:"primary"`
	Fallback          string `yaml:"fallback"`
	SecondaryFallback string `yaml:"secondary_fallback"`
	Embed             string `yaml:"embed"`
}

type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	VectorDim  int    `yaml:"vector_dim"`
}

type Config struct {
	Port          string `yaml:"port"`
	LogMode       string `yaml:"log_mode"`
	AllowedOrigin string `yaml:"allowed_origin"`

	Provider      string       `yaml:"provider"`
	GeminiAPIKey  string       `yaml:"gemini_api_key"`
	OpenAIAPIKey  string       `yaml:"openai_api_key"`
	OpenAIBaseURL string       `yaml:"openai_base_url"`
	Gemini        ModelsConfig `yaml:"gemini"`
	OpenAI        ModelsConfig `yaml:"openai"`

	MaxRetries       int `yaml:"max_retries"`
	RetryBaseDelayMS int `yaml:"retry_base_delay_ms"`
	TopK             int `yaml:"top_k"`

	Qdrant QdrantConfig `yaml:"qdrant"`

	RedisAddr            string `yaml:"redis_addr"`
	EmbedCacheTTLSeconds int    `yaml:"embed_cache_ttl_seconds"`
	DatabaseURL          string `yaml:"database_url"`
	OtelEnabled          bool   `yaml:"otel_enabled"`

	SeedConcurrency int     `yaml:"seed_concurrency"`
	SeedEmbedRPS    float64 `yaml:"seed_embed_rps"`
}

func DefaultConfig() Config {
	return Config{
		Port:          "8080",
		LogMode:       "development",
		AllowedOrigin: "*",
		Provider:      ProviderGemini,
		Gemini: ModelsConfig{
			Primary:           "gemini-2.0-pro-exp",
			Fallback:          "gemini-2.0-flash",
			SecondaryFallback: "gemini-1.5-flash",
			Embed:             gemini.DefaultEmbedModel,
		},
		OpenAI: ModelsConfig{
			Primary:  "gpt-4.1",
			Fallback: "gpt-4.1-mini",
			Embed:    "text-embedding-3-small",
		},
		MaxRetries:       3,
		RetryBaseDelayMS: 1000,
		TopK:             3,
		Qdrant: QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "ai_workflow_examples",
			VectorDim:  768,
		},
		EmbedCacheTTLSeconds: 86400,
		SeedConcurrency:      4,
		SeedEmbedRPS:         5,
	}
}

// LoadConfig applies defaults, then the YAML file at path (or
// FLOWGEN_CONFIG_FILE when path is empty), then environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(path) == "" {
		path = envutil.String("FLOWGEN_CONFIG_FILE", "")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.AllowedOrigin = envutil.String("AI_WORKFLOW_ALLOWED_ORIGIN", cfg.AllowedOrigin)

	cfg.Provider = envutil.String("MODEL_PROVIDER", cfg.Provider)
	cfg.GeminiAPIKey = envutil.String("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.OpenAIAPIKey = envutil.String("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = envutil.String("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	applyModelsEnv("GEMINI", &cfg.Gemini)
	applyModelsEnv("OPENAI", &cfg.OpenAI)

	cfg.MaxRetries = envutil.Int("GEMINI_MAX_RETRIES", cfg.MaxRetries)
	cfg.RetryBaseDelayMS = envutil.Int("GEMINI_RETRY_BASE_DELAY_MS", cfg.RetryBaseDelayMS)
	cfg.TopK = envutil.Int("RETRIEVAL_TOP_K", cfg.TopK)

	cfg.Qdrant.URL = envutil.String("QDRANT_URL", cfg.Qdrant.URL)
	cfg.Qdrant.APIKey = envutil.String("QDRANT_API_KEY", cfg.Qdrant.APIKey)
	cfg.Qdrant.Collection = envutil.String("QDRANT_COLLECTION", cfg.Qdrant.Collection)
	cfg.Qdrant.VectorDim = envutil.Int("QDRANT_VECTOR_DIM", cfg.Qdrant.VectorDim)

	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)
	cfg.EmbedCacheTTLSeconds = envutil.Int("EMBED_CACHE_TTL_SECONDS", cfg.EmbedCacheTTLSeconds)
	cfg.DatabaseURL = envutil.String("DATABASE_URL", cfg.DatabaseURL)
	cfg.OtelEnabled = envutil.Bool("OTEL_ENABLED", cfg.OtelEnabled)

	cfg.SeedConcurrency = envutil.Int("SEED_CONCURRENCY", cfg.SeedConcurrency)
	cfg.SeedEmbedRPS = envutil.Float("SEED_EMBED_RPS", cfg.SeedEmbedRPS)
}

func applyModelsEnv(prefix string, m *ModelsConfig) {
	m.Primary = envutil.String(prefix+"_MODEL", m.Primary)
	m.Fallback = envutil.String(prefix+"_FALLBACK_MODEL", m.Fallback)
	m.SecondaryFallback = envutil.String(prefix+"_SECONDARY_FALLBACK_MODEL", m.SecondaryFallback)
	m.Embed = envutil.String(prefix+"_EMBED_MODEL", m.Embed)
}

func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported MODEL_PROVIDER %q", c.Provider)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be >= 1, got %d", c.MaxRetries)
	}
	if c.RetryBaseDelayMS < 0 {
		return fmt.Errorf("retry base delay must be >= 0, got %d", c.RetryBaseDelayMS)
	}
	return nil
}

// Models returns the active provider's model ids.
func (c Config) Models() ModelsConfig {
	if c.Provider == ProviderOpenAI {
		return c.OpenAI
	}
	return c.Gemini
}

// APIKey returns the active provider's key; empty means unconfigured.
func (c Config) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

func (c Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMS) * time.Millisecond
}

func (c Config) EmbedCacheTTL() time.Duration {
	return time.Duration(c.EmbedCacheTTLSeconds) * time.Second
}

func (c Config) QdrantStoreConfig() qdrant.Config {
	return qdrant.Config{
		URL:        strings.TrimSpace(c.Qdrant.URL),
		APIKey:     strings.TrimSpace(c.Qdrant.APIKey),
		Collection: strings.TrimSpace(c.Qdrant.Collection),
		VectorDim:  c.Qdrant.VectorDim,
	}
}
