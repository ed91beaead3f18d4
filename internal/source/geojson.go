package source

import (
	"fmt"
	"strconv"
	"strings"

	"choromap/internal/logger"
	"choromap/internal/metrics"
	"choromap/internal/region"

	geojson "github.com/paulmach/go.geojson"
)

// 默认属性名（NUTS 数据集）
const (
	DefaultIDProp   = "NUTS_ID"
	DefaultNameProp = "NUTS_NAME"
)

// ParseGeoJSON：解析 FeatureCollection 为区域要素
// 约束：仅支持 Polygon/MultiPolygon；无几何的要素丢弃；缺少名称的要素保留（可渲染、不可搜索）
func ParseGeoJSON(b []byte, idProp, nameProp string) ([]region.Feature, error) {
	if idProp == "" {
		idProp = DefaultIDProp
	}
	if nameProp == "" {
		nameProp = DefaultNameProp
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	out := make([]region.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			metrics.MalformedRecordsTotal.WithLabelValues("feature").Inc()
			continue
		}
		polys := polygons(f.Geometry)
		if len(polys) == 0 {
			metrics.MalformedRecordsTotal.WithLabelValues("feature").Inc()
			continue
		}
		id := propString(f.Properties, idProp)
		if id == "" && f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		out = append(out, region.Feature{
			ID:       id,
			Name:     propString(f.Properties, nameProp),
			Polygons: polys,
		})
	}
	logger.L().Debug("geojson_parsed", "features", len(fc.Features), "kept", len(out))
	return out, nil
}

func propString(props map[string]interface{}, key string) string {
	switch v := props[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func polygons(g *geojson.Geometry) []region.Polygon {
	switch {
	case g.IsPolygon():
		return []region.Polygon{toPolygon(g.Polygon)}
	case g.IsMultiPolygon():
		out := make([]region.Polygon, 0, len(g.MultiPolygon))
		for _, p := range g.MultiPolygon {
			out = append(out, toPolygon(p))
		}
		return out
	}
	return nil
}

func toPolygon(coords [][][]float64) region.Polygon {
	rings := make([]region.Ring, 0, len(coords))
	for _, rc := range coords {
		ring := make(region.Ring, 0, len(rc))
		for _, p := range rc {
			if len(p) < 2 {
				continue
			}
			ring = append(ring, region.Point{Lon: p[0], Lat: p[1]})
		}
		rings = append(rings, ring)
	}
	return region.NewPolygon(rings...)
}

// EncodeShapes：把索引中的形状编码回 FeatureCollection，附带 handle 属性供渲染端回报指针事件
// 约束：几何统一输出为 MultiPolygon；属性名沿用加载时的 idProp/nameProp
func EncodeShapes(shapes []*region.Shape, idProp, nameProp string) ([]byte, error) {
	if idProp == "" {
		idProp = DefaultIDProp
	}
	if nameProp == "" {
		nameProp = DefaultNameProp
	}
	fc := geojson.NewFeatureCollection()
	for _, sh := range shapes {
		coords := make([][][][]float64, 0, len(sh.Polygons))
		for _, p := range sh.Polygons {
			rings := make([][][]float64, 0, len(p.Rings))
			for _, r := range p.Rings {
				ring := make([][]float64, 0, len(r))
				for _, pt := range r {
					ring = append(ring, []float64{pt.Lon, pt.Lat})
				}
				rings = append(rings, ring)
			}
			coords = append(coords, rings)
		}
		f := geojson.NewMultiPolygonFeature(coords...)
		f.SetProperty("handle", int(sh.Handle))
		f.SetProperty(idProp, sh.RegionID)
		f.SetProperty(nameProp, sh.Name)
		fc.AddFeature(f)
	}
	return fc.MarshalJSON()
}
