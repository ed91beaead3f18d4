package region

// 文档注释：点入多边形判定（Even-Odd）
// 约束：外环命中且不在任何洞内视为命中；边界上的点可能因数值误差落在任一侧
func pointInPoly(pt Point, poly Polygon) bool {
	if len(poly.Rings) == 0 || !poly.BBox.Contains(pt) {
		return false
	}
	if !pointInRing(pt, poly.Rings[0]) {
		return false
	}
	for _, hole := range poly.Rings[1:] {
		if pointInRing(pt, hole) {
			return false
		}
	}
	return true
}

// 射线法
func pointInRing(pt Point, ring Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := pt.Lon, pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// NewPolygon：由环构造多边形并计算包围盒
func NewPolygon(rings ...Ring) Polygon {
	p := Polygon{Rings: rings, BBox: EmptyBBox()}
	for _, r := range rings {
		for _, pt := range r {
			p.BBox.Extend(pt)
		}
	}
	return p
}
