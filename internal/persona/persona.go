package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Persona 回复生成使用的侍酒师口吻
type Persona struct {
	Name  string       `json:"name"`
	Style StyleProfile `json:"style"`
	// ErrorMessage 生成失败时返回给用户的文案
	ErrorMessage string `json:"error_message"`
}

type StyleProfile struct {
	TypicalLength    string   `json:"typical_length"`
	Catchphrases     []string `json:"catchphrases"`
	ResponseStyle    string   `json:"response_style"`
	Formality        string   `json:"formality"`
	NegativePatterns []string `json:"negative_patterns"`
	GreetingExamples []string `json:"greeting_examples"`
}

const defaultErrorMessage = "죄송합니다. 답변을 준비하는 중에 문제가 발생했습니다. 잠시 후 다시 시도해주세요."

// Default 未配置人设文件时使用
func Default() *Persona {
	return &Persona{
		Name: "소믈리에",
		Style: StyleProfile{
			TypicalLength: "3~5문장",
			ResponseStyle: "친절하고 차분한 설명",
			Formality:     "존댓말",
			NegativePatterns: []string{
				"확인되지 않은 가격이나 빈티지 정보를 말하기",
				"과음을 권하기",
			},
		},
		ErrorMessage: defaultErrorMessage,
	}
}

func LoadFromFile(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	var p Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal persona: %w", err)
	}
	return &p, nil
}

// ErrorText 生成失败时的提示，未配置时使用默认文案
func (p *Persona) ErrorText() string {
	if p == nil || strings.TrimSpace(p.ErrorMessage) == "" {
		return defaultErrorMessage
	}
	return p.ErrorMessage
}

// FormatStyleForPrompt 将风格档案格式化为 prompt 文本
func (p *Persona) FormatStyleForPrompt() string {
	if p == nil {
		return ""
	}
	s := p.Style
	var b strings.Builder

	if p.Name != "" {
		fmt.Fprintf(&b, "- 호칭: %s\n", p.Name)
	}
	if s.TypicalLength != "" {
		fmt.Fprintf(&b, "- 답변 길이: %s\n", s.TypicalLength)
	}
	if len(s.Catchphrases) > 0 {
		fmt.Fprintf(&b, "- 자주 쓰는 표현: %s\n", strings.Join(quoteAll(s.Catchphrases), ", "))
	}
	if s.ResponseStyle != "" {
		fmt.Fprintf(&b, "- 어조: %s\n", s.ResponseStyle)
	}
	if s.Formality != "" {
		fmt.Fprintf(&b, "- 격식: %s\n", s.Formality)
	}
	if len(s.GreetingExamples) > 0 {
		fmt.Fprintf(&b, "- 인사 예시: %s\n", strings.Join(quoteAll(s.GreetingExamples), ", "))
	}
	if len(s.NegativePatterns) > 0 {
		b.WriteString("\n절대 하지 않는 것:\n")
		for _, n := range s.NegativePatterns {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}

func quoteAll(ss []string) []string {
	result := make([]string, len(ss))
	for i, s := range ss {
		result[i] = "\"" + s + "\""
	}
	return result
}
