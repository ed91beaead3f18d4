// 包 colorscale：数值 → 离散色带映射，纯函数
package colorscale

import (
	"math"

	"choromap/internal/measure"
)

const (
	DomainMin = 20.0
	DomainMax = 90.0
	// NoData：无数据颜色，与任何色带颜色不同
	NoData = "#444"
)

// Palette：由低到高四个色带
var Palette = [4]string{"#fee5d9", "#fcae91", "#fb6a4a", "#cb181d"}

// Scale：色带与值域
// 约束：值域边界为固定策略常量，不随数据变化；越界值夹取而非拒绝
type Scale struct {
	Min, Max float64
	Palette  [4]string
	NoData   string
}

func Default() Scale {
	return Scale{Min: DomainMin, Max: DomainMax, Palette: Palette, NoData: NoData}
}

// Band：返回色带下标；缺失值返回 false
// 背景：bandIndex = floor((clamp(v)-min)/bandWidth)，再夹取到 [0, len-1]，保证上边界落入最后一档
func (s Scale) Band(v measure.Value) (int, bool) {
	f, ok := v.Float()
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	n := len(s.Palette)
	c := math.Min(math.Max(f, s.Min), s.Max)
	width := (s.Max - s.Min) / float64(n)
	idx := int(math.Floor((c - s.Min) / width))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return idx, true
}

// ColorFor：数值对应颜色；缺失值返回无数据颜色
func (s Scale) ColorFor(v measure.Value) string {
	idx, ok := s.Band(v)
	if !ok {
		return s.NoData
	}
	return s.Palette[idx]
}
