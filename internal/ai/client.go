package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/genai"

	"github.com/liao/sommelier/internal/wine"
)

// GeminiClient 负责回复生成与 embedding
type GeminiClient struct {
	client     *genai.Client
	chatModels []string // 多模型轮换
	modelIdx   atomic.Int64
	embedModel string
	temp       float32
	maxTokens  int32

	// 限流，rpmLimit <= 0 表示不限
	rpmLimit int
	mu       sync.Mutex
	tokens   int
	lastTick time.Time
}

type GeminiOptions struct {
	APIKey          string
	ChatModels      []string
	EmbeddingModel  string
	Temperature     float32
	MaxOutputTokens int32
	RPMLimit        int
}

func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if len(opts.ChatModels) == 0 {
		return nil, fmt.Errorf("gemini: at least one chat model is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:     client,
		chatModels: opts.ChatModels,
		embedModel: opts.EmbeddingModel,
		temp:       opts.Temperature,
		maxTokens:  opts.MaxOutputTokens,
		rpmLimit:   opts.RPMLimit,
		tokens:     opts.RPMLimit,
		lastTick:   time.Now(),
	}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

// currentModel 获取当前模型
func (c *GeminiClient) currentModel() string {
	idx := c.modelIdx.Load() % int64(len(c.chatModels))
	return c.chatModels[idx]
}

// rotateModel 切换到下一个模型
func (c *GeminiClient) rotateModel() string {
	newIdx := c.modelIdx.Add(1) % int64(len(c.chatModels))
	model := c.chatModels[newIdx]
	slog.Info("rotating to next model", "model", model)
	return model
}

// Generate 生成回复，429 时自动切换模型
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	if err := c.waitForToken(ctx); err != nil {
		return "", err
	}

	contents := []*genai.Content{genai.NewContentFromText(userMsg, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.temp),
		MaxOutputTokens:   c.maxTokens,
	}

	// 每个模型最多重试 2 次
	totalAttempts := len(c.chatModels) * 2
	var lastErr error
	for attempt := 0; attempt < totalAttempts; attempt++ {
		model := c.currentModel()
		resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			lastErr = err
			backoff := time.Duration(1<<attempt) * time.Second
			if isQuotaError(err) {
				slog.Warn("model quota exceeded, switching", "model", model, "attempt", attempt+1)
				c.rotateModel()
				backoff = time.Second
			} else {
				slog.Warn("generate failed, retrying", "model", model, "attempt", attempt+1, "error", err)
			}
			if err := sleep(ctx, backoff); err != nil {
				return "", err
			}
			continue
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			lastErr = fmt.Errorf("empty response from %s", model)
			continue
		}
		slog.Debug("generated reply", "model", model)
		return text, nil
	}
	return "", fmt.Errorf("%w: all models exhausted after %d attempts: %w", wine.ErrGeneration, totalAttempts, lastErr)
}

// Embed 生成文本嵌入向量
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.waitForToken(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := c.client.Models.EmbedContent(ctx, c.embedModel,
			[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
		if err != nil {
			lastErr = err
			slog.Warn("embed failed, retrying", "attempt", attempt+1, "error", err)
			if err := sleep(ctx, time.Duration(1<<attempt)*time.Second); err != nil {
				return nil, err
			}
			continue
		}
		if len(resp.Embeddings) == 0 {
			return nil, fmt.Errorf("empty embedding response")
		}
		return resp.Embeddings[0].Values, nil
	}
	return nil, fmt.Errorf("embed failed after 3 attempts: %w", lastErr)
}

// EmbedFunc 返回一个可用于 chromem-go 的 embedding 函数
func (c *GeminiClient) EmbedFunc() func(ctx context.Context, text string) ([]float32, error) {
	return c.Embed
}

// waitForToken 简单令牌桶限流
func (c *GeminiClient) waitForToken(ctx context.Context) error {
	if c.rpmLimit <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(c.lastTick)
	if elapsed >= time.Minute {
		c.tokens = c.rpmLimit
		c.lastTick = now
	}

	if c.tokens > 0 {
		c.tokens--
		return nil
	}

	wait := time.Minute - elapsed
	c.mu.Unlock()
	slog.Info("rate limit reached, waiting", "duration", wait)
	select {
	case <-ctx.Done():
		c.mu.Lock()
		return ctx.Err()
	case <-time.After(wait):
	}
	c.mu.Lock()
	c.tokens = c.rpmLimit - 1
	c.lastTick = time.Now()
	return nil
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
