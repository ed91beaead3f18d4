// 包 search：区域名自动补全；输入去抖后过滤名称，驱动建议列表与地图上的匹配/淡化
package search

import (
	"choromap/internal/debounce"
	"choromap/internal/logger"
	"choromap/internal/metrics"
)

// 键盘按键
const (
	KeyDown   = "ArrowDown"
	KeyUp     = "ArrowUp"
	KeyEnter  = "Enter"
	KeyEscape = "Escape"
)

// View：建议列表与输入框
type View interface {
	ShowSuggestions(names []string, cursor int)
	HideSuggestions()
	SetQuery(text string)
}

// Highlighter：地图侧的搜索反馈，由高亮控制器实现
type Highlighter interface {
	ApplySearchOverlay(matched, all []string)
	ClearSearchOverlay()
	Focus(name string) bool
}

// Session：一次去抖求值的结果，每次求值重新生成
type Session struct {
	Raw     string
	Term    string
	Matches []string
}

// Engine：搜索状态机
// 约束：求值与按键处理都在状态循环内执行（去抖器需配置 WithDispatch）；地理数据到达前名称为空，搜索无效果
type Engine struct {
	names func() []string
	hl    Highlighter
	view  View
	deb   *debounce.Debouncer
	limit int

	session Session
	visible bool
	cursor  int
}

func New(names func() []string, hl Highlighter, view View, deb *debounce.Debouncer, limit int) *Engine {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Engine{names: names, hl: hl, view: view, deb: deb, limit: limit, cursor: -1}
}

// OnQueryChange：每次输入事件调用；只有去抖窗口内最后一次会求值
func (e *Engine) OnQueryChange(raw string) {
	e.deb.Call(func() { e.evaluate(raw) })
}

// Evaluate：立即求值，跳过去抖
func (e *Engine) Evaluate(raw string) {
	e.deb.Cancel()
	e.evaluate(raw)
}

func (e *Engine) evaluate(raw string) {
	metrics.SearchEvaluationsTotal.Inc()
	term := Normalize(raw)
	e.cursor = -1
	if term == "" {
		e.session = Session{Raw: raw}
		e.hide()
		e.hl.ClearSearchOverlay()
		logger.L().Debug("search_cleared")
		return
	}
	names := e.names()
	sugg, all := Match(term, names, e.limit)
	e.session = Session{Raw: raw, Term: term, Matches: sugg}
	metrics.SearchMatches.Observe(float64(len(all)))
	if len(sugg) > 0 {
		e.visible = true
		e.view.ShowSuggestions(sugg, e.cursor)
	} else {
		e.hide()
	}
	// 区域尚未加载时不进入叠加状态，待加载后按 Session.Raw 重新评估
	if len(names) > 0 {
		e.hl.ApplySearchOverlay(all, names)
	}
	logger.L().Debug("search_eval", "term", term, "matches", len(all), "shown", len(sugg))
}

func (e *Engine) hide() {
	e.visible = false
	e.cursor = -1
	e.view.HideSuggestions()
}

// Key：建议列表上的键盘导航
// 背景：上下移动游标并夹取到 [0, len-1]，不回绕；Enter 提交当前项；Escape 清空列表并恢复高亮
func (e *Engine) Key(k string) {
	n := len(e.session.Matches)
	switch k {
	case KeyDown:
		if !e.visible || n == 0 {
			return
		}
		e.cursor = min(e.cursor+1, n-1)
		e.view.ShowSuggestions(e.session.Matches, e.cursor)
	case KeyUp:
		if !e.visible || n == 0 {
			return
		}
		e.cursor = max(e.cursor-1, 0)
		e.view.ShowSuggestions(e.session.Matches, e.cursor)
	case KeyEnter:
		if !e.visible || e.cursor < 0 || e.cursor >= n {
			return
		}
		e.SelectSuggestion(e.session.Matches[e.cursor])
	case KeyEscape:
		e.deb.Cancel()
		e.session = Session{}
		e.hide()
		e.hl.ClearSearchOverlay()
	}
}

// SelectSuggestion：提交一个名称，地图定位并高亮该区域
// 返回：名称无对应形状时返回 false（列表仍会收起）
func (e *Engine) SelectSuggestion(name string) bool {
	e.deb.Cancel()
	e.view.SetQuery(name)
	e.hide()
	ok := e.hl.Focus(name)
	logger.L().Debug("search_select", "name", name, "found", ok)
	return ok
}

// Reset：回到初始状态（全图视野按钮）
func (e *Engine) Reset() {
	e.deb.Cancel()
	e.session = Session{}
	e.view.SetQuery("")
	e.hide()
}

func (e *Engine) Session() Session { return e.session }
func (e *Engine) Cursor() int      { return e.cursor }
func (e *Engine) Visible() bool    { return e.visible }
