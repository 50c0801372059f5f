package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	RAG       RAGConfig       `mapstructure:"rag"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Persona   PersonaConfig   `mapstructure:"persona"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CatalogConfig struct {
	// Source 为 csv 或 postgres
	Source      string `mapstructure:"source"`
	CSVPath     string `mapstructure:"csv_path"`
	DatabaseURL string `mapstructure:"database_url"`
	Table       string `mapstructure:"table"`
}

type RAGConfig struct {
	VectorsDir  string `mapstructure:"vectors_dir"`
	Collection  string `mapstructure:"collection"`
	Candidates  int    `mapstructure:"candidates"`
	TestResults int    `mapstructure:"test_results"`
	Workers     int    `mapstructure:"workers"`
}

type RecommendConfig struct {
	DefaultCount int `mapstructure:"default_count"`
}

type ChatConfig struct {
	MaxResults      int  `mapstructure:"max_results"`
	GenerateReplies bool `mapstructure:"generate_replies"`
}

type EmbeddingConfig struct {
	// Provider 为 gemini 或 openai
	Provider string `mapstructure:"provider"`
}

type GeminiConfig struct {
	APIKey          string   `mapstructure:"api_key"`
	ChatModels      []string `mapstructure:"chat_models"`
	EmbeddingModel  string   `mapstructure:"embedding_model"`
	Temperature     float32  `mapstructure:"temperature"`
	MaxOutputTokens int32    `mapstructure:"max_output_tokens"`
	RPMLimit        int      `mapstructure:"rpm_limit"`
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	ChatModel      string `mapstructure:"chat_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type PersonaConfig struct {
	File string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit_rps", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("catalog.source", "csv")
	v.SetDefault("catalog.csv_path", "data/wine21_all_data.csv")
	v.SetDefault("catalog.database_url", "")
	v.SetDefault("catalog.table", "wines")

	v.SetDefault("rag.vectors_dir", "data/vector_store")
	v.SetDefault("rag.collection", "wines")
	v.SetDefault("rag.candidates", 10)
	v.SetDefault("rag.test_results", 4)
	v.SetDefault("rag.workers", 8)

	v.SetDefault("recommend.default_count", 2)

	v.SetDefault("chat.max_results", 2)
	v.SetDefault("chat.generate_replies", false)

	v.SetDefault("embedding.provider", "gemini")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.chat_models", []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"})
	v.SetDefault("gemini.embedding_model", "text-embedding-004")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.max_output_tokens", 1024)
	v.SetDefault("gemini.rpm_limit", 60)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("persona.file", "")
}

// Load 读取配置文件，文件不存在时只用默认值与环境变量
func Load(path string) (*Config, error) {
	// .env 可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// 环境变量覆盖
	overrides := map[string]string{
		"GEMINI_API_KEY": "gemini.api_key",
		"OPENAI_API_KEY": "openai.api_key",
		"DATABASE_URL":   "catalog.database_url",
		"REDIS_URL":      "redis.addr",
	}
	for env, key := range overrides {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate API key 缺失不算错误，只会让索引不可用
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case "csv":
		if c.Catalog.CSVPath == "" {
			return fmt.Errorf("catalog.csv_path is required for csv source")
		}
	case "postgres":
		if c.Catalog.DatabaseURL == "" {
			return fmt.Errorf("catalog.database_url is required for postgres source (set in config or DATABASE_URL env)")
		}
	default:
		return fmt.Errorf("catalog.source must be csv or postgres, got %q", c.Catalog.Source)
	}

	switch c.Embedding.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("embedding.provider must be gemini or openai, got %q", c.Embedding.Provider)
	}

	if c.RAG.Candidates <= 0 {
		return fmt.Errorf("rag.candidates must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	return nil
}

// EmbeddingAPIKey 当前 embedding 提供方的凭据
func (c *Config) EmbeddingAPIKey() string {
	if c.Embedding.Provider == "openai" {
		return c.OpenAI.APIKey
	}
	return c.Gemini.APIKey
}
