// 包 region：区域名 ↔ 形状句柄索引，地理数据到达后构建一次
package region

import (
	"strings"

	"choromap/internal/logger"
)

// Index：形状集合与名称索引
// 约束：构建后结构不可变；同名区域后写覆盖先写；Names 保留全部要素名（含重名）并保持输入顺序
type Index struct {
	shapes []*Shape
	byName map[string]*Shape
	names  []string
	bounds BBox
}

// Build：为每个要素创建形状；名称非空的要素登记到名称索引
func Build(features []Feature) *Index {
	ix := &Index{byName: make(map[string]*Shape), bounds: EmptyBBox()}
	for i, f := range features {
		sh := &Shape{
			Handle:   Handle(i),
			RegionID: f.ID,
			Name:     f.Name,
			Polygons: f.Polygons,
			Bounds:   EmptyBBox(),
		}
		for _, p := range f.Polygons {
			sh.Bounds.Union(p.BBox)
		}
		ix.bounds.Union(sh.Bounds)
		ix.shapes = append(ix.shapes, sh)
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		sh.Name = name
		ix.byName[name] = sh
		ix.names = append(ix.names, name)
	}
	logger.L().Debug("region_index_built", "shapes", len(ix.shapes), "names", len(ix.names))
	return ix
}

// Names：可搜索的区域名列表（按要素顺序）；nil 索引返回空
func (ix *Index) Names() []string {
	if ix == nil {
		return nil
	}
	return ix.names
}

// Lookup：按名称查找形状
func (ix *Index) Lookup(name string) (*Shape, bool) {
	if ix == nil {
		return nil, false
	}
	sh, ok := ix.byName[name]
	return sh, ok
}

// Shape：按句柄查找形状
func (ix *Index) Shape(h Handle) (*Shape, bool) {
	if ix == nil || h < 0 || int(h) >= len(ix.shapes) {
		return nil, false
	}
	return ix.shapes[h], true
}

// Shapes：全部形状（含无名形状），按句柄顺序
func (ix *Index) Shapes() []*Shape {
	if ix == nil {
		return nil
	}
	return ix.shapes
}

// Bounds：全部形状的外包框，用于回到全图视野
func (ix *Index) Bounds() BBox {
	if ix == nil {
		return EmptyBBox()
	}
	return ix.bounds
}

// At：命中测试，返回包含该点的形状；多个命中时取句柄最大者（最后绘制、位于最上层）
func (ix *Index) At(pt Point) (*Shape, bool) {
	if ix == nil {
		return nil, false
	}
	for i := len(ix.shapes) - 1; i >= 0; i-- {
		sh := ix.shapes[i]
		if !sh.Bounds.Contains(pt) {
			continue
		}
		for _, p := range sh.Polygons {
			if pointInPoly(pt, p) {
				return sh, true
			}
		}
	}
	return nil, false
}
