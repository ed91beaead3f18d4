package region

// Point：经纬度坐标（WGS84）
type Point struct {
	Lat float64
	Lon float64
}

// Ring：闭合环；Polygon 第一环为外环，其余为洞
type Ring []Point

type Polygon struct {
	Rings []Ring
	BBox  BBox
}

// BBox：包围盒
type BBox struct {
	MinLon float64 `json:"minLon"`
	MinLat float64 `json:"minLat"`
	MaxLon float64 `json:"maxLon"`
	MaxLat float64 `json:"maxLat"`
}

// EmptyBBox：空包围盒，Extend 任何点后即为该点
func EmptyBBox() BBox { return BBox{MinLon: 180, MinLat: 90, MaxLon: -180, MaxLat: -90} }

func (b BBox) Empty() bool { return b.MinLon > b.MaxLon || b.MinLat > b.MaxLat }

func (b *BBox) Extend(p Point) {
	if p.Lon < b.MinLon {
		b.MinLon = p.Lon
	}
	if p.Lat < b.MinLat {
		b.MinLat = p.Lat
	}
	if p.Lon > b.MaxLon {
		b.MaxLon = p.Lon
	}
	if p.Lat > b.MaxLat {
		b.MaxLat = p.Lat
	}
}

func (b *BBox) Union(o BBox) {
	if o.Empty() {
		return
	}
	b.Extend(Point{Lat: o.MinLat, Lon: o.MinLon})
	b.Extend(Point{Lat: o.MaxLat, Lon: o.MaxLon})
}

func (b BBox) Contains(p Point) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Feature：地理要素，来自 GeoJSON 加载器
// 约束：Name 可为空，此时形状照常渲染但不参与搜索
type Feature struct {
	ID       string
	Name     string
	Polygons []Polygon
}

// Handle：形状句柄，由 Index 在构建时按要素顺序分配，之后不再变化
type Handle int

// Shape：单个区域的可渲染形状
type Shape struct {
	Handle   Handle
	RegionID string
	Name     string
	Polygons []Polygon
	Bounds   BBox
}
