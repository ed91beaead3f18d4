package highlight

import (
	"testing"

	"choromap/internal/appstate"
	"choromap/internal/colorscale"
	"choromap/internal/measure"
	"choromap/internal/region"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recSurface struct {
	styles map[region.Handle]Style
	front  []region.Handle
	fits   []region.BBox
	sets   int
}

func newRecSurface() *recSurface { return &recSurface{styles: map[region.Handle]Style{}} }

func (r *recSurface) SetStyle(h region.Handle, s Style) { r.styles[h] = s; r.sets++ }
func (r *recSurface) BringToFront(h region.Handle)      { r.front = append(r.front, h) }
func (r *recSurface) FitBounds(b region.BBox)           { r.fits = append(r.fits, b) }

type recInfo struct {
	shown   []Info
	cleared int
	current *Info
}

func (r *recInfo) ShowInfo(i Info) { r.shown = append(r.shown, i); r.current = &i }
func (r *recInfo) ClearInfo()      { r.cleared++; r.current = nil }

func box(lon, lat float64) []region.Polygon {
	return []region.Polygon{region.NewPolygon(region.Ring{
		{Lon: lon, Lat: lat}, {Lon: lon + 1, Lat: lat}, {Lon: lon + 1, Lat: lat + 1}, {Lon: lon, Lat: lat + 1}, {Lon: lon, Lat: lat},
	})}
}

func fixture(t *testing.T) (*Controller, *appstate.State, *recSurface, *recInfo) {
	t.Helper()
	st := appstate.New(measure.ForgottenVoters)
	st.Index = region.Build([]region.Feature{
		{ID: "DE2", Name: "Bavaria", Polygons: box(10, 48)},
		{ID: "DED", Name: "Saxony", Polygons: box(12, 51)},
		{ID: "DEE", Name: "Saxony-Anhalt", Polygons: box(11, 52)},
		{ID: "DE9", Name: "", Polygons: box(8, 52)},
	})
	st.Measures.Ingest([]measure.Row{
		{measure.IDColumn: "DE2", "forgottenVoters": "45.2", "lowTrust": "88"},
		{measure.IDColumn: "DED", "forgottenVoters": "71", "lowTrust": "N/A"},
	})
	surf, info := newRecSurface(), &recInfo{}
	c := New(st, surf, info)
	c.ApplyBaseStyle()
	return c, st, surf, info
}

func TestApplyBaseStyleColorsAndIdempotence(t *testing.T) {
	c, _, surf, _ := fixture(t)
	require.Len(t, surf.styles, 4)
	assert.Equal(t, StyleFor(Normal, colorscale.Palette[1]), surf.styles[0])
	assert.Equal(t, StyleFor(Normal, colorscale.Palette[2]), surf.styles[1])
	assert.Equal(t, StyleFor(Normal, colorscale.NoData), surf.styles[2], "无数据区域使用无数据颜色")

	before := map[region.Handle]Style{}
	for h, s := range surf.styles {
		before[h] = s
	}
	c.ApplyBaseStyle()
	assert.Equal(t, before, surf.styles)
	assert.Equal(t, before, c.Styles())
}

func TestHoverThenUnhoverRestoresBase(t *testing.T) {
	c, _, surf, info := fixture(t)
	base := surf.styles[1]

	c.PointerOver(1)
	assert.Equal(t, Hovered, c.State(1))
	assert.Equal(t, StyleFor(Hovered, colorscale.Palette[2]), surf.styles[1])
	assert.Equal(t, []region.Handle{1}, surf.front)
	require.NotNil(t, info.current)
	assert.Equal(t, "Saxony", info.current.Name)
	assert.Equal(t, "71.0", info.current.Display)

	c.PointerOut(1)
	assert.Equal(t, Normal, c.State(1))
	assert.Equal(t, base, surf.styles[1])
	assert.Nil(t, info.current)
}

func TestHoverSupersedesPrevious(t *testing.T) {
	c, _, surf, _ := fixture(t)
	c.Hover(0)
	c.Hover(1)
	assert.Equal(t, Normal, c.State(0))
	assert.Equal(t, StyleFor(Normal, colorscale.Palette[1]), surf.styles[0])
	assert.Equal(t, Hovered, c.State(1))
	h, ok := c.Hovered()
	assert.True(t, ok)
	assert.Equal(t, region.Handle(1), h)

	// 离开一个并未悬停的形状不影响当前悬停
	c.PointerOut(0)
	assert.Equal(t, Hovered, c.State(1))
}

func TestSearchOverlayAndUnhoverKeepsOverlay(t *testing.T) {
	c, st, surf, _ := fixture(t)
	c.ApplySearchOverlay([]string{"Saxony", "Saxony-Anhalt"}, st.Index.Names())
	assert.True(t, c.SearchActive())
	assert.Equal(t, Dimmed, c.State(0))
	assert.Equal(t, Matched, c.State(1))
	assert.Equal(t, Matched, c.State(2))
	assert.Equal(t, Normal, c.State(3), "无名形状不参与搜索")
	assert.Equal(t, StyleFor(Dimmed, colorscale.Palette[1]), surf.styles[0])

	c.PointerOver(0)
	c.PointerOut(0)
	assert.Equal(t, Dimmed, c.State(0), "搜索期间离开悬停应恢复淡化而不是 Normal")
	assert.Equal(t, StyleFor(Dimmed, colorscale.Palette[1]), surf.styles[0])

	c.ClearSearchOverlay()
	assert.False(t, c.SearchActive())
	for h := region.Handle(0); h < 4; h++ {
		assert.Equal(t, Normal, c.State(h))
	}
	assert.Equal(t, StyleFor(Normal, colorscale.Palette[1]), surf.styles[0])
}

func TestOverlayWhileHoveredDefersStyle(t *testing.T) {
	c, st, surf, _ := fixture(t)
	c.Hover(0)
	c.ApplySearchOverlay([]string{"Saxony"}, st.Index.Names())
	assert.Equal(t, Hovered, c.State(0))
	assert.Equal(t, StyleFor(Hovered, colorscale.Palette[1]), surf.styles[0])
	c.Unhover()
	assert.Equal(t, Dimmed, c.State(0))
}

func TestUnknownLookupsAreNoops(t *testing.T) {
	c, _, surf, info := fixture(t)
	n := surf.sets
	c.Hover(99)
	c.PointerOut(99)
	c.Unhover()
	assert.False(t, c.Focus("Atlantis"))
	c.ApplySearchOverlay([]string{"Atlantis"}, []string{"Atlantis"})
	assert.Equal(t, n, surf.sets)
	assert.Empty(t, info.shown)
	assert.Empty(t, surf.fits)
}

func TestFocusArmsOneShotRevert(t *testing.T) {
	c, st, surf, info := fixture(t)
	require.True(t, c.Focus("Saxony"))
	sax, _ := st.Index.Lookup("Saxony")
	assert.Equal(t, []region.BBox{sax.Bounds}, surf.fits)
	assert.Equal(t, Hovered, c.State(sax.Handle))
	assert.True(t, c.Armed(sax.Handle))
	cleared := info.cleared

	c.PointerOut(sax.Handle)
	assert.Equal(t, Normal, c.State(sax.Handle))
	assert.Equal(t, StyleFor(Normal, colorscale.Palette[2]), surf.styles[sax.Handle])
	assert.Nil(t, info.current)
	assert.Greater(t, info.cleared, cleared)
	assert.False(t, c.Armed(sax.Handle), "一次性回调触发后应解除")

	cleared = info.cleared
	c.PointerOver(sax.Handle)
	c.PointerOut(sax.Handle)
	assert.Equal(t, cleared+1, info.cleared, "第二次离开只走普通 Unhover")
}

func TestFocusRevertsToNormalDuringOverlay(t *testing.T) {
	c, st, surf, info := fixture(t)
	c.ApplySearchOverlay([]string{"Saxony", "Saxony-Anhalt"}, st.Index.Names())
	require.True(t, c.Focus("Saxony"))
	c.PointerOut(1)
	assert.Equal(t, Normal, c.State(1), "提交后离开应回到 Normal，而不是 Matched")
	assert.Equal(t, StyleFor(Normal, colorscale.Palette[2]), surf.styles[1])
	assert.Nil(t, info.current)
	assert.Equal(t, Matched, c.State(2), "其他匹配项保持叠加")
	assert.Equal(t, Dimmed, c.State(0))
}

func TestClearOverlayKeepsHover(t *testing.T) {
	c, st, surf, info := fixture(t)
	c.Hover(0)
	c.ApplySearchOverlay([]string{"Saxony"}, st.Index.Names())
	c.ClearSearchOverlay()
	assert.Equal(t, Hovered, c.State(0), "清除叠加不打断悬停")
	assert.Equal(t, StyleFor(Hovered, colorscale.Palette[1]), surf.styles[0])
	require.NotNil(t, info.current)
	assert.Equal(t, "Bavaria", info.current.Name)

	c.PointerOut(0)
	assert.Equal(t, Normal, c.State(0))
	assert.Equal(t, StyleFor(Normal, colorscale.Palette[1]), surf.styles[0], "离开后不应残留悬停样式")
	assert.Nil(t, info.current)
}

func TestBaseStyleEndsHoverAndClearsInfo(t *testing.T) {
	c, _, surf, info := fixture(t)
	c.Hover(1)
	require.NotNil(t, info.current)
	c.ApplyBaseStyle()
	_, hovering := c.Hovered()
	assert.False(t, hovering)
	assert.Nil(t, info.current, "结束悬停时同步清空信息面板")
	assert.Equal(t, StyleFor(Normal, colorscale.Palette[2]), surf.styles[1])
}

func TestRefreshKeepsOverlayOnMeasureChange(t *testing.T) {
	c, st, surf, _ := fixture(t)
	c.ApplySearchOverlay([]string{"Bavaria"}, st.Index.Names())
	st.Measure = measure.LowTrust
	c.Refresh()
	assert.Equal(t, Matched, c.State(0))
	assert.Equal(t, StyleFor(Matched, colorscale.Palette[3]), surf.styles[0])
	assert.Equal(t, StyleFor(Dimmed, colorscale.NoData), surf.styles[1])
}

func TestNoIndexIsInert(t *testing.T) {
	st := appstate.New(measure.ForgottenVoters)
	surf := newRecSurface()
	c := New(st, surf, &recInfo{})
	c.ApplyBaseStyle()
	c.Refresh()
	c.Hover(0)
	c.FitAll()
	assert.False(t, c.Focus("x"))
	assert.Zero(t, surf.sets)
	assert.Empty(t, surf.fits)
}
