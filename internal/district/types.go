package district

import (
	"fmt"
	"math"
)

// 文档注释：地理点（WGS84 经纬度，单位：度）
// 约束：值类型，计算后不可变；不做投影换算。
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid：坐标均为有限数值且落在经纬度范围内
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Confidence：解析置信等级，按回退层级递减
type Confidence int

const (
	Exact Confidence = iota
	Fuzzy
	FirstWord
	NearUser
	Default
)

func (c Confidence) String() string {
	switch c {
	case Exact:
		return "exact"
	case Fuzzy:
		return "fuzzy"
	case FirstWord:
		return "first_word"
	case NearUser:
		return "near_user"
	default:
		return "default"
	}
}

// Matched：是否命中地名表（非兜底）
func (c Confidence) Matched() bool { return c <= FirstWord }

func (c Confidence) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Confidence) UnmarshalText(b []byte) error {
	switch string(b) {
	case "exact":
		*c = Exact
	case "fuzzy":
		*c = Fuzzy
	case "first_word":
		*c = FirstWord
	case "near_user":
		*c = NearUser
	case "default":
		*c = Default
	default:
		return fmt.Errorf("unknown confidence %q", b)
	}
	return nil
}

// Match：地名表命中结果（未加抖动），可安全缓存
type Match struct {
	Key        string     `json:"key"`
	Point      GeoPoint   `json:"point"`
	Confidence Confidence `json:"confidence"`
}

// Resolution：一次解析的完整输出；Key 为空表示兜底坐标
type Resolution struct {
	Point      GeoPoint   `json:"point"`
	Confidence Confidence `json:"confidence"`
	Key        string     `json:"key,omitempty"`
}
