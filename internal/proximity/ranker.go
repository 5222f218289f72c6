// 包 proximity：按球面距离为志愿者排序，供“附近志愿者”列表使用
package proximity

import (
	"math"
	"sort"
	"strconv"

	"volunteer-geo/internal/district"
	"volunteer-geo/internal/metrics"
	"volunteer-geo/internal/volunteer"
)

// EarthRadiusKm：平均地球半径
const EarthRadiusKm = 6371.0

// 球面距离（Haversine），返回千米；任一点非法时返回 NaN
func Haversine(a, b district.GeoPoint) float64 {
	if !a.Valid() || !b.Valid() {
		return math.NaN()
	}
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// 文档注释：按与原点的距离升序排列
// 背景：原点缺失时保持数据集原顺序且距离全部置空；距离未知（NaN 坐标）的记录排在末尾。
// 约束：返回新切片，不修改入参；同距离保持输入顺序；不做取整，格式化留给展示层。
func RankByDistance(records []volunteer.Record, origin *district.GeoPoint) []volunteer.Record {
	out := make([]volunteer.Record, len(records))
	copy(out, records)
	if origin == nil || !origin.Valid() {
		for i := range out {
			out[i].DistanceKm = nil
		}
		return out
	}
	for i := range out {
		d := Haversine(*origin, out[i].ResolvedPoint)
		if math.IsNaN(d) {
			out[i].DistanceKm = nil
			continue
		}
		out[i].DistanceKm = &d
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].DistanceKm, out[j].DistanceKm
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return *di < *dj
	})
	metrics.RankedRecords.Observe(float64(len(out)))
	return out
}

// Nearest：排序后取前 n 条；n<=0 返回全部
func Nearest(records []volunteer.Record, origin *district.GeoPoint, n int) []volunteer.Record {
	out := RankByDistance(records, origin)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// FormatKm：保留一位小数；未知距离返回空串（展示层据此隐藏距离徽标）
func FormatKm(d *float64) string {
	if d == nil || math.IsNaN(*d) {
		return ""
	}
	return strconv.FormatFloat(*d, 'f', 1, 64) + " km"
}
