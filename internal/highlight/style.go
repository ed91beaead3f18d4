package highlight

import "choromap/internal/region"

// State：单个形状的高亮状态
type State int

const (
	Normal State = iota
	Hovered
	Matched
	Dimmed
)

func (s State) String() string {
	switch s {
	case Hovered:
		return "hovered"
	case Matched:
		return "matched"
	case Dimmed:
		return "dimmed"
	default:
		return "normal"
	}
}

// Style：渲染面的样式指令
type Style struct {
	FillColor   string  `json:"fillColor"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	BorderColor string  `json:"borderColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

// StyleFor：按状态生成样式，填充色由调用方根据当前指标给出
func StyleFor(st State, fill string) Style {
	switch st {
	case Hovered:
		return Style{FillColor: fill, Weight: 3, Opacity: 1, BorderColor: "#222", FillOpacity: 0.9}
	case Matched:
		return Style{FillColor: fill, Weight: 2, Opacity: 1, BorderColor: "#222", FillOpacity: 0.85}
	case Dimmed:
		return Style{FillColor: fill, Weight: 0.5, Opacity: 0.4, BorderColor: "#999", FillOpacity: 0.2}
	default:
		return Style{FillColor: fill, Weight: 1, Opacity: 1, BorderColor: "#fff", FillOpacity: 0.75}
	}
}

// Surface：渲染面（地图引擎）
type Surface interface {
	SetStyle(h region.Handle, s Style)
	BringToFront(h region.Handle)
	FitBounds(b region.BBox)
}

// Info：信息面板内容
type Info struct {
	RegionID string  `json:"id"`
	Name     string  `json:"name"`
	Measure  string  `json:"measure"`
	Label    string  `json:"label"`
	HasValue bool    `json:"hasValue"`
	Value    float64 `json:"value,omitempty"`
	Display  string  `json:"display"`
}

// InfoPanel：悬停/定位时展示区域信息
type InfoPanel interface {
	ShowInfo(i Info)
	ClearInfo()
}
