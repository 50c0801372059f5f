package chat

import (
	"fmt"

	"github.com/liao/sommelier/internal/wine"
)

// Characteristic 某一属性在推荐集合上的平均值与定性标签
type Characteristic struct {
	Level   string  `json:"level"`
	Average float64 `json:"average"`
	Summary string  `json:"summary"`
}

// Summarize 计算四项属性均值并分档，调用方需保证 wines 非空
func Summarize(wines []wine.Record) map[string]Characteristic {
	if len(wines) == 0 {
		panic("chat: Summarize called with no wines")
	}

	var s, a, b, t float64
	for _, w := range wines {
		s += float64(w.Sweetness)
		a += float64(w.Acidity)
		b += float64(w.Body)
		t += float64(w.Tannin)
	}
	n := float64(len(wines))

	return map[string]Characteristic{
		wine.SweetnessScale.Name: characteristic(wine.SweetnessScale, s/n),
		wine.AcidityScale.Name:   characteristic(wine.AcidityScale, a/n),
		wine.BodyScale.Name:      characteristic(wine.BodyScale, b/n),
		wine.TanninScale.Name:    characteristic(wine.TanninScale, t/n),
	}
}

func characteristic(scale wine.Scale, mean float64) Characteristic {
	level := scale.Label(mean)
	return Characteristic{
		Level:   level,
		Average: mean,
		Summary: fmt.Sprintf("%s (평균 %.1f/5)", level, mean),
	}
}
