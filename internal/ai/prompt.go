package ai

import (
	"fmt"
	"strings"

	"github.com/liao/sommelier/internal/wine"
)

// BuildSystemPrompt 组装推荐回复用的 System Prompt
func BuildSystemPrompt(style string, wines []wine.Record) string {
	var b strings.Builder

	// 身份定义
	b.WriteString("당신은 와인 전문가 소믈리에입니다. 사용자의 질문을 분석하여 와인을 추천해주세요.\n")
	b.WriteString("추천할 때는 반드시 와인의 특성(당도, 산도, 바디, 타닌)을 설명하고, 구체적인 와인을 추천해주세요.\n\n")

	// 风格档案
	if style != "" {
		b.WriteString("## 말투\n")
		b.WriteString(style)
		b.WriteString("\n")
	}

	// 候选酒款
	if len(wines) > 0 {
		b.WriteString("## 추천 후보 와인\n")
		for i, w := range wines {
			fmt.Fprintf(&b, "%d. %s\n", i+1, describe(w))
		}
		b.WriteString("\n")
	}

	// 规则
	b.WriteString("## 답변 규칙\n")
	b.WriteString("1. 위 후보 목록에 있는 와인만 언급하세요\n")
	b.WriteString("2. 목록에 없는 가격이나 수상 경력을 지어내지 마세요\n")
	b.WriteString("3. 3~5문장 이내로 답하세요\n")
	b.WriteString("4. 목록이나 마크다운 서식 없이 대화체로 답하세요\n")

	return b.String()
}

// BuildFollowUpPrompt 针对上一轮推荐的追问
func BuildFollowUpPrompt(style string, previous []wine.Record) string {
	var b strings.Builder
	b.WriteString("당신은 와인 전문가 소믈리에입니다. 사용자가 직전에 추천받은 와인에 대해 추가로 질문하고 있습니다.\n\n")
	if style != "" {
		b.WriteString("## 말투\n")
		b.WriteString(style)
		b.WriteString("\n")
	}
	b.WriteString("## 직전 추천 와인\n")
	for i, w := range previous {
		fmt.Fprintf(&b, "%d. %s\n", i+1, describe(w))
	}
	b.WriteString("\n## 답변 규칙\n")
	b.WriteString("1. 위 와인 정보만 근거로 답하세요\n")
	b.WriteString("2. 모르는 내용은 모른다고 답하세요\n")
	b.WriteString("3. 3~5문장 이내의 대화체로 답하세요\n")
	return b.String()
}

func describe(w wine.Record) string {
	var parts []string
	parts = append(parts, w.NameKo)
	if w.NameEn != "" && w.NameEn != w.NameKo {
		parts = append(parts, "("+w.NameEn+")")
	}
	line := strings.Join(parts, " ")
	line += fmt.Sprintf(" - %s, %s %s", w.WineType, w.Country, w.Region)
	line += fmt.Sprintf(", 당도 %d/산도 %d/바디 %d/타닌 %d", w.Sweetness, w.Acidity, w.Body, w.Tannin)
	if w.HasPrice() {
		line += fmt.Sprintf(", %d원", *w.Price)
	}
	if w.Aroma != "" {
		line += ", 아로마: " + w.Aroma
	}
	if w.FoodMatching != "" {
		line += ", 페어링: " + w.FoodMatching
	}
	return line
}

// FilterAIPatterns 过滤明显的 AI 味表达
func FilterAIPatterns(reply string) string {
	aiPatterns := []string{
		"AI로서",
		"AI 언어 모델로서",
		"저는 AI이기 때문에",
		"도움이 되셨기를 바랍니다.",
		"도움이 되었기를 바랍니다.",
		"추가 질문이 있으시면 언제든지 물어보세요.",
		"궁금한 점이 있으시면 언제든지 말씀해 주세요.",
	}
	for _, p := range aiPatterns {
		reply = strings.ReplaceAll(reply, p, "")
	}
	return strings.TrimSpace(reply)
}
