package app

import (
	"choromap/internal/measure"
	"choromap/internal/region"
)

// Event：驱动状态机的输入；由 App.handle 统一消费
type Event interface{ Type() string }

type MeasureChanged struct{ Key measure.Key }

type QueryChanged struct{ Text string }

type KeyPressed struct{ Key string }

type SuggestionCommitted struct{ Name string }

type PointerOver struct{ Handle region.Handle }

type PointerOut struct{ Handle region.Handle }

// PointerAt：渲染端不做命中测试时上报的指针坐标
type PointerAt struct{ Point region.Point }

// Reset：全图视野按钮
type Reset struct{}

// MeasuresLoaded：指标数据加载完成；Err 非空表示数据源不可用
type MeasuresLoaded struct {
	Rows []measure.Row
	Err  error
}

// RegionsLoaded：区域要素加载完成；Err 非空表示数据源不可用
type RegionsLoaded struct {
	Features []region.Feature
	Err      error
}

func (MeasureChanged) Type() string      { return "measure" }
func (QueryChanged) Type() string        { return "query" }
func (KeyPressed) Type() string          { return "key" }
func (SuggestionCommitted) Type() string { return "commit" }
func (PointerOver) Type() string         { return "pointer_over" }
func (PointerOut) Type() string          { return "pointer_out" }
func (PointerAt) Type() string           { return "pointer_at" }
func (Reset) Type() string               { return "reset" }
func (MeasuresLoaded) Type() string      { return "measures_loaded" }
func (RegionsLoaded) Type() string       { return "regions_loaded" }
