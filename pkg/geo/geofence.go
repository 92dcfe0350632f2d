package geo

import "math"

// 平均地球半径（米）
const earthRadiusMeters = 6371000.0

// Point 表示一个经纬度坐标
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FenceResult 表示一次围栏判定的结果
type FenceResult struct {
	Within         bool    `json:"within"`
	DistanceMeters float64 `json:"distance_meters"`
}

// IsWithinFence 判断坐标 p 是否落在以 center 为圆心、radiusMeters 为半径的
// 圆形围栏内。任一坐标超出合法范围、非有限数值，或半径非法时，返回
// Within=false、DistanceMeters=+Inf，调用方可以与真实的出界结果统一处理。
func IsWithinFence(p, center Point, radiusMeters float64) FenceResult {
	if !Valid(p) || !Valid(center) || radiusMeters < 0 || math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) {
		return FenceResult{Within: false, DistanceMeters: math.Inf(1)}
	}

	distance := Distance(p, center)
	return FenceResult{
		Within:         distance <= radiusMeters,
		DistanceMeters: distance,
	}
}

// Distance 用 haversine 公式计算两点间的大圆距离（米），输入须为合法坐标
func Distance(p, q Point) float64 {
	lat1 := p.Latitude * math.Pi / 180
	lat2 := q.Latitude * math.Pi / 180
	dLat := (q.Latitude - p.Latitude) * math.Pi / 180
	dLon := (q.Longitude - p.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Valid 检查坐标是否为有限数值且纬度、经度都在合法范围内
func Valid(p Point) bool {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) ||
		math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}
