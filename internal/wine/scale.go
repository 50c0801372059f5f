package wine

// Scale 把 1-5 数值映射为三档定性标签
type Scale struct {
	Name   string
	High   string
	Medium string
	Low    string
}

var (
	SweetnessScale = Scale{Name: "당도", High: "높음", Medium: "중간", Low: "낮음"}
	AcidityScale   = Scale{Name: "산도", High: "높음", Medium: "중간", Low: "낮음"}
	BodyScale      = Scale{Name: "바디", High: "무거움", Medium: "중간", Low: "가벼움"}
	TanninScale    = Scale{Name: "타닌", High: "강함", Medium: "중간", Low: "약함"}
)

// Label 阈值为开区间：>3 为高，>2 为中，其余为低
func (s Scale) Label(mean float64) string {
	switch {
	case mean > 3:
		return s.High
	case mean > 2:
		return s.Medium
	default:
		return s.Low
	}
}
