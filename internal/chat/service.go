package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liao/sommelier/internal/ai"
	"github.com/liao/sommelier/internal/cache"
	"github.com/liao/sommelier/internal/persona"
	"github.com/liao/sommelier/internal/wine"
)

// Recommender 检索管道
type Recommender interface {
	Recommend(ctx context.Context, query string, profile *wine.TasteProfile, maxResults int) ([]wine.Record, error)
}

// Cache 回复缓存，未命中返回 false
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Request 一次对话请求
type Request struct {
	Message             string             `json:"message"`
	TasteProfile        *wine.TasteProfile `json:"taste_profile,omitempty"`
	LastRecommendations []wine.Record      `json:"last_recommendations,omitempty"`
}

// intentWords 出现这些词时视为新的推荐请求而不是追问
var intentWords = []string{"추천", "찾아", "골라", "recommend"}

type Options struct {
	MaxResults      int
	GenerateReplies bool
}

type Service struct {
	recommender Recommender
	generator   ai.Generator
	persona     *persona.Persona
	cache       Cache
	opts        Options
}

// NewService generator 与 cache 都可以为 nil
func NewService(r Recommender, g ai.Generator, p *persona.Persona, c Cache, opts Options) *Service {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 2
	}
	if p == nil {
		p = persona.Default()
	}
	return &Service{recommender: r, generator: g, persona: p, cache: c, opts: opts}
}

// Ask 处理一次对话
// 检索失败与超时向上返回，生成失败降级为 error 回复
func (s *Service) Ask(ctx context.Context, req Request) (Reply, error) {
	if len(req.LastRecommendations) > 0 && s.generator != nil && !HasRecommendIntent(req.Message) {
		return s.followUp(ctx, req)
	}

	key := cache.Key("chat", req)
	if s.cache != nil {
		var cached Reply
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			slog.WarnContext(ctx, "reply cache read failed", "error", err)
		}
		if hit {
			slog.DebugContext(ctx, "reply cache hit", "key", key)
			return cached, nil
		}
	}

	wines, err := s.recommender.Recommend(ctx, req.Message, req.TasteProfile, s.opts.MaxResults)
	if err != nil {
		return Reply{}, fmt.Errorf("recommend wines: %w", err)
	}
	if len(wines) == 0 {
		return NotFoundReply(), nil
	}

	text := fmt.Sprintf("검색하신 '%s'에 맞는 와인을 추천해드립니다.", req.Message)
	if s.opts.GenerateReplies && s.generator != nil {
		generated, err := s.generate(ctx, ai.BuildSystemPrompt(s.persona.FormatStyleForPrompt(), wines), req.Message)
		if err != nil {
			if ctx.Err() != nil {
				return Reply{}, ctx.Err()
			}
			slog.WarnContext(ctx, "reply generation failed", "error", err)
			return ErrorReply(s.persona.ErrorText()), nil
		}
		text = generated
	}

	reply := RecommendationReply(text, wines)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, reply); err != nil {
			slog.WarnContext(ctx, "reply cache write failed", "error", err)
		}
	}
	return reply, nil
}

func (s *Service) followUp(ctx context.Context, req Request) (Reply, error) {
	prompt := ai.BuildFollowUpPrompt(s.persona.FormatStyleForPrompt(), req.LastRecommendations)
	text, err := s.generate(ctx, prompt, req.Message)
	if err != nil {
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		slog.WarnContext(ctx, "follow-up generation failed", "error", err)
		return ErrorReply(s.persona.ErrorText()), nil
	}
	return TextReply(text), nil
}

func (s *Service) generate(ctx context.Context, system, user string) (string, error) {
	text, err := s.generator.Generate(ctx, system, user)
	if err != nil {
		if !errors.Is(err, wine.ErrGeneration) {
			err = fmt.Errorf("%w: %w", wine.ErrGeneration, err)
		}
		return "", err
	}
	text = ai.FilterAIPatterns(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply after filtering", wine.ErrGeneration)
	}
	return text, nil
}

// HasRecommendIntent 消息是否要求新的推荐
func HasRecommendIntent(message string) bool {
	m := strings.ToLower(message)
	for _, w := range intentWords {
		if strings.Contains(m, w) {
			return true
		}
	}
	return false
}
