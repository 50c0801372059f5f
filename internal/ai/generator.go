package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/liao/sommelier/internal/wine"
)

// Generator 给定 system prompt 与用户消息生成自由文本
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMsg string) (string, error)
}

// Embedder 生成文本向量
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// FallbackGenerator 主模型失败时改用备用模型
type FallbackGenerator struct {
	primary  Generator
	fallback Generator
}

// NewFallbackGenerator fallback 可以为 nil
func NewFallbackGenerator(primary, fallback Generator) *FallbackGenerator {
	return &FallbackGenerator{primary: primary, fallback: fallback}
}

func (g *FallbackGenerator) Generate(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	text, err := g.primary.Generate(ctx, systemPrompt, userMsg)
	if err == nil {
		return text, nil
	}
	// 超时或取消不再尝试备用模型
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if g.fallback == nil {
		return "", asGenerationError(err)
	}

	slog.WarnContext(ctx, "primary generator failed, using fallback", "error", err)
	text, ferr := g.fallback.Generate(ctx, systemPrompt, userMsg)
	if ferr != nil {
		return "", asGenerationError(errors.Join(err, ferr))
	}
	return text, nil
}

func asGenerationError(err error) error {
	if errors.Is(err, wine.ErrGeneration) {
		return err
	}
	return fmt.Errorf("%w: %w", wine.ErrGeneration, err)
}
