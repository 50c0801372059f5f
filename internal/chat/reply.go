package chat

import (
	"encoding/json"
	"fmt"

	"github.com/liao/sommelier/internal/wine"
)

type ReplyType string

const (
	TypeRecommendation ReplyType = "recommendation"
	TypeText           ReplyType = "text"
	TypeError          ReplyType = "error"
)

// NotFoundText 过滤后没有任何酒款时的提示
const NotFoundText = "조건에 맞는 와인을 찾지 못했습니다"

// Reply 对话回复，按 Type 区分三种形态
type Reply struct {
	Type            ReplyType                 `json:"type"`
	Text            string                    `json:"text"`
	Characteristics map[string]Characteristic `json:"characteristics,omitempty"`
	Wines           []wine.Record             `json:"wines,omitempty"`
}

func RecommendationReply(text string, wines []wine.Record) Reply {
	r := Reply{Type: TypeRecommendation, Text: text, Wines: wines}
	if len(wines) > 0 {
		r.Characteristics = Summarize(wines)
	}
	return r
}

func NotFoundReply() Reply {
	return Reply{Type: TypeRecommendation, Text: NotFoundText, Wines: []wine.Record{}}
}

func TextReply(text string) Reply {
	return Reply{Type: TypeText, Text: text}
}

func ErrorReply(text string) Reply {
	return Reply{Type: TypeError, Text: text}
}

// MarshalJSON 推荐回复总是带 characteristics 与 wines，其余只有 type 与 text
func (r Reply) MarshalJSON() ([]byte, error) {
	if r.Type != TypeRecommendation {
		return json.Marshal(struct {
			Type ReplyType `json:"type"`
			Text string    `json:"text"`
		}{r.Type, r.Text})
	}

	wines := r.Wines
	if wines == nil {
		wines = []wine.Record{}
	}
	chars := r.Characteristics
	if chars == nil {
		chars = map[string]Characteristic{}
	}
	return json.Marshal(struct {
		Type            ReplyType                 `json:"type"`
		Text            string                    `json:"text"`
		Characteristics map[string]Characteristic `json:"characteristics"`
		Wines           []wine.Record             `json:"wines"`
	}{r.Type, r.Text, chars, wines})
}

// Encode 编码为 /chat/ask 的 response 字段
func (r Reply) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode reply: %w", err)
	}
	return string(data), nil
}
