package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/liao/sommelier/internal/wine"
)

// OpenAIClient OpenAI 的生成与 embedding，可作为备用或 embedding 提供方
type OpenAIClient struct {
	client     openai.Client
	chatModel  string
	embedModel string
}

func NewOpenAIClient(apiKey, chatModel, embedModel string) *OpenAIClient {
	return &OpenAIClient{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMsg),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai chat completion: %w", wine.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", wine.ErrGeneration)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: openai returned empty content", wine.ErrGeneration)
	}
	slog.Debug("generated reply", "model", c.chatModel)
	return text, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	values := resp.Data[0].Embedding
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

// EmbedFunc 返回一个可用于 chromem-go 的 embedding 函数
func (c *OpenAIClient) EmbedFunc() func(ctx context.Context, text string) ([]float32, error) {
	return c.Embed
}
