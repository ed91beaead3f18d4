// 包 highlight：形状样式的唯一决策者，协调悬停、指标切换与搜索匹配三类触发
package highlight

import (
	"choromap/internal/appstate"
	"choromap/internal/logger"
	"choromap/internal/measure"
	"choromap/internal/metrics"
	"choromap/internal/region"
)

// Controller：高亮状态机
// 背景：每个形状有一个“逻辑状态”（Normal/Matched/Dimmed），悬停是叠加其上的临时状态；
// 离开悬停时恢复逻辑状态，因此搜索期间的指针移出不会清掉匹配/淡化效果。
// 约束：非并发安全，只在状态循环内调用；未知名称或句柄一律忽略
type Controller struct {
	st      *appstate.State
	surface Surface
	info    InfoPanel

	logical  map[region.Handle]State
	applied  map[region.Handle]Style
	hovered  region.Handle
	hovering bool
	search   bool
	once     map[region.Handle]func()
}

func New(st *appstate.State, surface Surface, info InfoPanel) *Controller {
	return &Controller{
		st:      st,
		surface: surface,
		info:    info,
		logical: make(map[region.Handle]State),
		applied: make(map[region.Handle]Style),
		once:    make(map[region.Handle]func()),
	}
}

func (c *Controller) apply(sh *region.Shape, st State) {
	s := StyleFor(st, c.st.Fill(sh.RegionID))
	if prev, ok := c.applied[sh.Handle]; ok && prev == s {
		return
	}
	c.applied[sh.Handle] = s
	c.surface.SetStyle(sh.Handle, s)
	metrics.StyleDirectivesTotal.WithLabelValues(st.String()).Inc()
}

func (c *Controller) infoFor(sh *region.Shape) Info {
	v := c.st.Value(sh.RegionID)
	i := Info{
		RegionID: sh.RegionID,
		Name:     sh.Name,
		Measure:  string(c.st.Measure),
		Label:    measure.Label(c.st.Measure),
		Display:  v.String(),
	}
	if f, ok := v.Float(); ok {
		i.HasValue = true
		i.Value = f
	}
	return i
}

// ApplyBaseStyle：所有形状恢复 Normal 并按当前指标重新着色；同时结束搜索叠加与悬停（悬停结束时清空信息面板）
func (c *Controller) ApplyBaseStyle() {
	if c.hovering {
		c.hovering = false
		c.info.ClearInfo()
	}
	c.resetLogical()
	logger.L().Debug("highlight_base_applied", "measure", c.st.Measure, "shapes", len(c.st.Index.Shapes()))
}

// resetLogical：逻辑状态全部回到 Normal；悬停中的形状保持 Hovered 样式
func (c *Controller) resetLogical() {
	metrics.StyleRecomputesTotal.Inc()
	c.search = false
	for _, sh := range c.st.Index.Shapes() {
		delete(c.logical, sh.Handle)
		if c.hovering && c.hovered == sh.Handle {
			continue
		}
		c.apply(sh, Normal)
	}
}

// Refresh：保持各形状当前状态，仅按最新指标与数据重新着色
func (c *Controller) Refresh() {
	metrics.StyleRecomputesTotal.Inc()
	for _, sh := range c.st.Index.Shapes() {
		c.apply(sh, c.State(sh.Handle))
	}
	if c.hovering {
		if sh, ok := c.st.Index.Shape(c.hovered); ok {
			c.info.ShowInfo(c.infoFor(sh))
		}
	}
	logger.L().Debug("highlight_refreshed", "measure", c.st.Measure, "search", c.search)
}

// Hover：设置悬停形状；已有悬停形状时先恢复其逻辑状态
func (c *Controller) Hover(h region.Handle) {
	sh, ok := c.st.Index.Shape(h)
	if !ok {
		return
	}
	if c.hovering && c.hovered != h {
		if prev, ok := c.st.Index.Shape(c.hovered); ok {
			c.apply(prev, c.logical[prev.Handle])
		}
	}
	c.hovered = h
	c.hovering = true
	c.apply(sh, Hovered)
	c.surface.BringToFront(h)
	c.info.ShowInfo(c.infoFor(sh))
}

// Unhover：结束悬停，恢复该形状的逻辑状态（Normal 或搜索中的 Matched/Dimmed）
func (c *Controller) Unhover() {
	if !c.hovering {
		return
	}
	c.hovering = false
	if sh, ok := c.st.Index.Shape(c.hovered); ok {
		c.apply(sh, c.logical[sh.Handle])
	}
	c.info.ClearInfo()
}

// PointerOver：指针进入形状
func (c *Controller) PointerOver(h region.Handle) { c.Hover(h) }

// PointerOut：指针离开形状；触发该形状上的一次性回调
func (c *Controller) PointerOut(h region.Handle) {
	if c.hovering && c.hovered == h {
		c.Unhover()
	}
	c.fireOnce(h)
}

// ApplySearchOverlay：matched 中的名称设为 Matched，其余已知名称设为 Dimmed
// 约束：悬停中的形状只更新逻辑状态，样式待离开悬停时生效
func (c *Controller) ApplySearchOverlay(matched, all []string) {
	c.search = true
	set := make(map[string]struct{}, len(matched))
	for _, n := range matched {
		set[n] = struct{}{}
	}
	for _, name := range all {
		sh, ok := c.st.Index.Lookup(name)
		if !ok {
			continue
		}
		st := Dimmed
		if _, hit := set[name]; hit {
			st = Matched
		}
		c.logical[sh.Handle] = st
		if c.hovering && c.hovered == sh.Handle {
			continue
		}
		c.apply(sh, st)
	}
}

// ClearSearchOverlay：结束搜索叠加，恢复基础样式
// 约束：不打断当前悬停，指针离开时照常走 Unhover
func (c *Controller) ClearSearchOverlay() {
	c.resetLogical()
	logger.L().Debug("highlight_overlay_cleared", "hovering", c.hovering)
}

// Focus：定位到区域，视野适配其边界并悬停高亮；下次指针离开时该区域回到 Normal 并清空信息面板
// 返回：名称未登记时返回 false 且不做任何改动
func (c *Controller) Focus(name string) bool {
	sh, ok := c.st.Index.Lookup(name)
	if !ok {
		logger.L().Debug("highlight_focus_miss", "name", name)
		return false
	}
	h := sh.Handle
	c.surface.FitBounds(sh.Bounds)
	c.Hover(h)
	c.ArmOnce(h, func() {
		if c.hovering && c.hovered == h {
			c.hovering = false
		}
		// 提交的区域回到 Normal，即使搜索叠加仍在
		delete(c.logical, h)
		if sh, ok := c.st.Index.Shape(h); ok {
			c.apply(sh, Normal)
		}
		c.info.ClearInfo()
	})
	return true
}

// FitAll：视野回到全部形状
func (c *Controller) FitAll() {
	if b := c.st.Index.Bounds(); !b.Empty() {
		c.surface.FitBounds(b)
	}
}

// ArmOnce：为形状登记一次性指针离开回调；同一形状重复登记时以最后一次为准
func (c *Controller) ArmOnce(h region.Handle, fn func()) { c.once[h] = fn }

// Armed：形状上是否有待触发的一次性回调
func (c *Controller) Armed(h region.Handle) bool {
	_, ok := c.once[h]
	return ok
}

// fireOnce：先解除再执行，回调内重新登记不会被本次消费
func (c *Controller) fireOnce(h region.Handle) {
	fn, ok := c.once[h]
	if !ok {
		return
	}
	delete(c.once, h)
	fn()
}

// State：形状当前的有效状态（悬停优先于逻辑状态）
func (c *Controller) State(h region.Handle) State {
	if c.hovering && c.hovered == h {
		return Hovered
	}
	return c.logical[h]
}

// Styles：当前全部样式快照，供新接入的渲染客户端同步
func (c *Controller) Styles() map[region.Handle]Style {
	out := make(map[region.Handle]Style, len(c.applied))
	for h, s := range c.applied {
		out[h] = s
	}
	return out
}

func (c *Controller) SearchActive() bool { return c.search }

// Hovered：当前悬停形状
func (c *Controller) Hovered() (region.Handle, bool) { return c.hovered, c.hovering }
