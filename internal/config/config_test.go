package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load("configs/missing.yaml")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "csv", cfg.Catalog.Source)
	assert.Equal(t, 10, cfg.RAG.Candidates)
	assert.Equal(t, 4, cfg.RAG.TestResults)
	assert.Equal(t, 2, cfg.Chat.MaxResults)
	assert.Equal(t, "gemini", cfg.Embedding.Provider)
	assert.Empty(t, cfg.EmbeddingAPIKey())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  addr: ":9090"
  request_timeout: 5s
rag:
  candidates: 20
embedding:
  provider: openai
chat:
  generate_replies: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REDIS_URL", "localhost:6379")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 20, cfg.RAG.Candidates)
	assert.True(t, cfg.Chat.GenerateReplies)
	assert.Equal(t, "sk-test", cfg.EmbeddingAPIKey())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0o644))
	// godotenv 不覆盖已存在的变量，先清空再交给测试框架恢复
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Gemini.APIKey)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Catalog.Source = "s3"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Catalog.Source = "postgres"
	bad.Catalog.DatabaseURL = ""
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Embedding.Provider = "cohere"
	assert.Error(t, bad.Validate())
}
