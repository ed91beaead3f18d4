package app

import (
	"choromap/internal/appstate"
	"choromap/internal/logger"
	"choromap/internal/measure"
)

// Restyler：指标切换后重新着色，由高亮控制器实现
type Restyler interface{ Refresh() }

// Selector：指标选择器
type Selector struct {
	st *appstate.State
	rs Restyler
}

func NewSelector(st *appstate.State, rs Restyler) *Selector { return &Selector{st: st, rs: rs} }

// Select：校验并切换当前指标，随后重新计算全部样式
// 返回：未知指标忽略并返回 false，状态不变
func (s *Selector) Select(k measure.Key) bool {
	if !measure.Valid(k) {
		logger.L().Warn("measure_unknown", "key", k)
		return false
	}
	s.st.Measure = k
	s.rs.Refresh()
	logger.L().Debug("measure_selected", "key", k)
	return true
}
