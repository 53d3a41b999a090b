package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"FLOWGEN_CONFIG_FILE", "PORT", "LOG_MODE", "AI_WORKFLOW_ALLOWED_ORIGIN", "MODEL_PROVIDER",
	"GEMINI_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"GEMINI_MODEL", "GEMINI_FALLBACK_MODEL", "GEMINI_SECONDARY_FALLBACK_MODEL", "GEMINI_EMBED_MODEL",
	"OPENAI_MODEL", "OPENAI_FALLBACK_MODEL", "OPENAI_SECONDARY_FALLBACK_MODEL", "OPENAI_EMBED_MODEL",
	"GEMINI_MAX_RETRIES", "GEMINI_RETRY_BASE_DELAY_MS", "RETRIEVAL_TOP_K",
	"QDRANT_URL", "QDRANT_API_KEY", "QDRANT_COLLECTION", "QDRANT_VECTOR_DIM",
	"REDIS_ADDR", "EMBED_CACHE_TTL_SECONDS", "DATABASE_URL", "OTEL_ENABLED",
	"SEED_CONCURRENCY", "SEED_EMBED_RPS",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, ModelsConfig{
		Primary:           "gemini-2.0-pro-exp",
		Fallback:          "gemini-2.0-flash",
		SecondaryFallback: "gemini-1.5-flash",
		Embed:             "text-embedding-004",
	}, cfg.Models())
	assert.Equal(t, time.Second, cfg.RetryBaseDelay())
	assert.Equal(t, 24*time.Hour, cfg.EmbedCacheTTL())
	assert.Equal(t, "ai_workflow_examples", cfg.QdrantStoreConfig().Collection)
	assert.Empty(t, cfg.APIKey())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "flowgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
top_k: 5
gemini:
  primary: file-model
qdrant:
  collection: from-file
  vector_dim: 1536
`), 0o600))

	t.Setenv("QDRANT_COLLECTION", "from-env")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GEMINI_RETRY_BASE_DELAY_MS", "250")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, "file-model", cfg.Gemini.Primary)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Fallback)
	assert.Equal(t, "from-env", cfg.Qdrant.Collection)
	assert.Equal(t, 1536, cfg.Qdrant.VectorDim)
	assert.Equal(t, "g-key", cfg.APIKey())
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay())
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "flowgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_mode: production\n"), 0o600))
	t.Setenv("FLOWGEN_CONFIG_FILE", path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.LogMode)
}

func TestLoadConfigOpenAIProvider(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MODEL_PROVIDER", " OpenAI ")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-x")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-x", cfg.Models().Primary)
	assert.Equal(t, "sk-test", cfg.APIKey())
}

func TestLoadConfigErrors(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [unclosed"), 0o600))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	t.Setenv("MODEL_PROVIDER", "anthropic")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "unsupported MODEL_PROVIDER")

	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("GEMINI_MAX_RETRIES", "0")
	_, err = LoadConfig("")
	assert.Error(t, err)
}
