// 包 app：应用装配与状态循环；数据加载、渲染端输入与去抖回调都转换为事件，在同一协程上处理
package app

import (
	"context"
	"time"

	"choromap/internal/appstate"
	"choromap/internal/debounce"
	"choromap/internal/highlight"
	"choromap/internal/logger"
	"choromap/internal/measure"
	"choromap/internal/metrics"
	"choromap/internal/region"
	"choromap/internal/search"
)

// Notifier：样式之外的渲染端通知
type Notifier interface {
	Notice(msg string)
	RegionsReady(count int)
	MeasureSelected(k measure.Key, label string)
}

// Renderer：渲染端的全部能力；websocket hub 实现
type Renderer interface {
	highlight.Surface
	highlight.InfoPanel
	search.View
	Notifier
}

// 数据源不可用时的提示文案
const (
	NoticeMeasuresUnavailable = "Measure data is unavailable; regions are shown without values."
	NoticeRegionsUnavailable  = "Region boundaries are unavailable."
)

type Options struct {
	DefaultMeasure measure.Key
	SearchDebounce time.Duration
	SearchLimit    int
	// Scheduler 为空时使用真实计时器
	Scheduler debounce.Scheduler
}

// App：持有全部核心状态；除 Dispatch/Snapshot/Load 外的方法只在循环协程内调用
type App struct {
	loop   *Loop
	out    Renderer
	st     *appstate.State
	hl     *highlight.Controller
	search *search.Engine
	sel    *Selector

	noticed map[string]bool
}

func New(loop *Loop, out Renderer, opt Options) *App {
	st := appstate.New(opt.DefaultMeasure)
	hl := highlight.New(st, out, out)
	dopts := []debounce.Option{
		debounce.WithDispatch(func(f func()) { loop.Post(f) }),
		debounce.OnCancel(metrics.SearchCancelledTotal.Inc),
	}
	if opt.Scheduler != nil {
		dopts = append(dopts, debounce.WithScheduler(opt.Scheduler))
	}
	deb := debounce.New(opt.SearchDebounce, dopts...)
	a := &App{
		loop:    loop,
		out:     out,
		st:      st,
		hl:      hl,
		sel:     NewSelector(st, hl),
		noticed: make(map[string]bool),
	}
	a.search = search.New(func() []string { return st.Index.Names() }, hl, out, deb, opt.SearchLimit)
	return a
}

// Dispatch：从任意协程投递事件
func (a *App) Dispatch(ev Event) bool {
	return a.loop.Post(func() { a.handle(ev) })
}

// Load：并发拉取两类数据，完成后各自投递加载事件；到达顺序任意
func (a *App) Load(ctx context.Context, measures func(context.Context) ([]measure.Row, error), regions func(context.Context) ([]region.Feature, error)) {
	go func() {
		rows, err := measures(ctx)
		a.Dispatch(MeasuresLoaded{Rows: rows, Err: err})
	}()
	go func() {
		fs, err := regions(ctx)
		a.Dispatch(RegionsLoaded{Features: fs, Err: err})
	}()
}

// handle：唯一的状态转移入口
func (a *App) handle(ev Event) {
	metrics.EventsTotal.WithLabelValues(ev.Type()).Inc()
	switch e := ev.(type) {
	case MeasureChanged:
		if a.sel.Select(e.Key) {
			a.out.MeasureSelected(e.Key, measure.Label(e.Key))
		}
	case QueryChanged:
		a.search.OnQueryChange(e.Text)
	case KeyPressed:
		a.search.Key(e.Key)
	case SuggestionCommitted:
		a.search.SelectSuggestion(e.Name)
	case PointerOver:
		a.hl.PointerOver(e.Handle)
	case PointerOut:
		a.hl.PointerOut(e.Handle)
	case PointerAt:
		a.pointerAt(e.Point)
	case Reset:
		a.search.Reset()
		a.hl.ApplyBaseStyle()
		a.out.ClearInfo()
		a.hl.FitAll()
	case MeasuresLoaded:
		a.measuresLoaded(e)
	case RegionsLoaded:
		a.regionsLoaded(e)
	default:
		logger.L().Debug("event_unknown", "type", ev.Type())
	}
}

// pointerAt：服务端命中测试；命中形状变化时按离开旧形状、进入新形状的顺序处理
func (a *App) pointerAt(pt region.Point) {
	prev, hovering := a.hl.Hovered()
	sh, hit := a.st.Index.At(pt)
	if hit && hovering && sh.Handle == prev {
		return
	}
	if hovering {
		a.hl.PointerOut(prev)
	}
	if hit {
		a.hl.PointerOver(sh.Handle)
	}
}

func (a *App) measuresLoaded(e MeasuresLoaded) {
	if e.Err != nil {
		logger.L().Error("measures_unavailable", "err", e.Err)
		a.noticeOnce(NoticeMeasuresUnavailable)
		return
	}
	n := a.st.Measures.Ingest(e.Rows)
	logger.L().Info("measures_ready", "stored", n, "dropped", len(e.Rows)-n)
	a.hl.Refresh()
}

func (a *App) regionsLoaded(e RegionsLoaded) {
	if e.Err != nil {
		logger.L().Error("regions_unavailable", "err", e.Err)
		a.noticeOnce(NoticeRegionsUnavailable)
		return
	}
	if a.st.Index != nil {
		logger.L().Warn("regions_already_built")
		return
	}
	a.st.Index = region.Build(e.Features)
	a.out.RegionsReady(len(a.st.Index.Shapes()))
	a.hl.ApplyBaseStyle()
	a.hl.FitAll()
	// 地理数据到达前已输入的查询此时才能生效
	if raw := a.search.Session().Raw; raw != "" {
		a.search.Evaluate(raw)
	}
	logger.L().Info("regions_ready", "shapes", len(a.st.Index.Shapes()), "names", len(a.st.Index.Names()))
}

func (a *App) noticeOnce(msg string) {
	if a.noticed[msg] {
		return
	}
	a.noticed[msg] = true
	a.out.Notice(msg)
}

// Snapshot：当前状态快照，供 REST 与新接入的渲染端同步
type Snapshot struct {
	Measure      measure.Key                       `json:"measure"`
	Label        string                            `json:"label"`
	Regions      int                               `json:"regions"`
	Styles       map[region.Handle]highlight.Style `json:"styles"`
	Hovered      *region.Handle                    `json:"hovered,omitempty"`
	SearchActive bool                              `json:"searchActive"`
	Query        string                            `json:"query"`
	Suggestions  []string                          `json:"suggestions"`
	Cursor       int                               `json:"cursor"`
}

// Snapshot：在循环协程上读取状态；可从任意协程调用
func (a *App) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := a.loop.Do(ctx, func() { s = a.snapshot() })
	return s, err
}

func (a *App) snapshot() Snapshot {
	s := Snapshot{
		Measure:      a.st.Measure,
		Label:        measure.Label(a.st.Measure),
		Regions:      len(a.st.Index.Shapes()),
		Styles:       a.hl.Styles(),
		SearchActive: a.hl.SearchActive(),
		Query:        a.search.Session().Raw,
		Cursor:       a.search.Cursor(),
		Suggestions:  []string{},
	}
	if h, ok := a.hl.Hovered(); ok {
		s.Hovered = &h
	}
	if a.search.Visible() {
		s.Suggestions = append(s.Suggestions, a.search.Session().Matches...)
	}
	return s
}

// Regions：区域索引；地理数据未到达时为 nil。索引建成后不再变化，可在循环外只读使用
func (a *App) Regions(ctx context.Context) (*region.Index, error) {
	var ix *region.Index
	err := a.loop.Do(ctx, func() { ix = a.st.Index })
	return ix, err
}

// Measures：只读访问指标存储（自带读写锁，可在循环外读取）
func (a *App) Measures() *measure.Store { return a.st.Measures }
