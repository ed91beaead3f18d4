// 包 appstate：样式计算共享的应用状态
// 约束：只在状态循环内读写；Measure 由指标选择器写入，Index 在地理数据到达时写入一次，其余组件只读
package appstate

import (
	"choromap/internal/colorscale"
	"choromap/internal/measure"
	"choromap/internal/region"
)

type State struct {
	Measure  measure.Key
	Index    *region.Index
	Measures *measure.Store
	Scale    colorscale.Scale
}

// New：以默认色带与空数据构造；def 非法时回退到第一个指标
func New(def measure.Key) *State {
	if !measure.Valid(def) {
		def = measure.Keys[0]
	}
	return &State{Measure: def, Measures: measure.NewStore(), Scale: colorscale.Default()}
}

// Value：区域在当前指标下的数值
func (s *State) Value(regionID string) measure.Value {
	if s.Measures == nil {
		return measure.Missing
	}
	return s.Measures.Get(regionID, s.Measure)
}

// Fill：区域在当前指标下的填充色
func (s *State) Fill(regionID string) string {
	return s.Scale.ColorFor(s.Value(regionID))
}
