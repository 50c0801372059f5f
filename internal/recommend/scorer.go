package recommend

import (
	"sort"

	"github.com/liao/sommelier/internal/rag"
	"github.com/liao/sommelier/internal/wine"
)

const (
	// DefaultCount 未指定数量时返回的条数
	DefaultCount = 2

	priceScale = 1_000_000
	foodBonus  = 0.1
)

// weights 依次对应 당도/산도/바디/타닌/价格
var weights = [5]float64{1, 1, 1, 1, 0.5}

// Catalog 打分只需要只读目录
type Catalog interface {
	All() []wine.Record
	MaxPrice() int
}

// Scored 一条打分结果
type Scored struct {
	Wine  wine.Record `json:"wine"`
	Score float64     `json:"score"`
}

// Scorer 本地口味向量打分，不经过向量索引
type Scorer struct {
	catalog   Catalog
	matchType rag.TypeMatcher
}

func NewScorer(c Catalog) *Scorer {
	return &Scorer{catalog: c, matchType: rag.ExactMembership}
}

// Score 过滤后按加权相似度降序返回前 n 条，同分保持目录顺序
func (s *Scorer) Score(profile wine.TasteProfile, n int) []Scored {
	if n <= 0 {
		n = DefaultCount
	}
	p := profile.WithDefaults()
	user := userVector(p, s.catalog.MaxPrice())

	var scored []Scored
	for _, w := range s.catalog.All() {
		if !s.matchType(w.WineType, p.PreferredTypes) {
			continue
		}
		if !rag.WithinExact(w, *p.PriceRange) {
			continue
		}
		if p.Dislikes(w) {
			continue
		}

		score := weightedSimilarity(user, wineVector(w))
		if p.LikesFood(w) {
			score *= 1 + foodBonus
		}
		scored = append(scored, Scored{Wine: w, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

func wineVector(w wine.Record) [5]float64 {
	return [5]float64{
		float64(w.Sweetness),
		float64(w.Acidity),
		float64(w.Body),
		float64(w.Tannin),
		float64(w.PriceValue()) / priceScale,
	}
}

// userVector 价格维度按目录最高价归一化，目录没有价格时为 0
func userVector(p wine.TasteProfile, maxPrice int) [5]float64 {
	var price float64
	if maxPrice > 0 {
		price = p.PriceRange.Mean() / float64(maxPrice)
	}
	return [5]float64{
		float64(*p.PreferredSweetness),
		float64(*p.PreferredAcidity),
		float64(*p.PreferredBody),
		float64(*p.PreferredTannin),
		price,
	}
}

func weightedSimilarity(user, w [5]float64) float64 {
	var sum, total float64
	for i, weight := range weights {
		sum += weight * ScalarCosine(user[i], w[i])
		total += weight
	}
	return sum / total
}

// ScalarCosine 一维余弦相似度：同号为 1，异号为 -1，任一为 0 时为 0
func ScalarCosine(a, b float64) float64 {
	switch {
	case a == 0 || b == 0:
		return 0
	case (a > 0) == (b > 0):
		return 1
	default:
		return -1
	}
}
