// 包 volunteer：志愿者记录结构、旧字段名归并与内置默认名单
package volunteer

import (
	"fmt"
	"strconv"
	"strings"

	"volunteer-geo/internal/district"
)

// Unknown：缺失姓名/区县/选区时的占位
const Unknown = "Unknown"

// 文档注释：志愿者记录（每次加载时新建，不回写数据源）
// 背景：ResolvedPoint 由区县解析器派生，仅作展示近似；DistanceKm 在用户位置可用前为 nil。
type Record struct {
	ID            string              `json:"id" db:"id"`
	Name          string              `json:"name" db:"name"`
	Mobile        string              `json:"mobile,omitempty" db:"mobile"`
	District      string              `json:"district" db:"district"`
	Constituency  string              `json:"constituency" db:"vidhan_sabha"`
	ResolvedPoint district.GeoPoint   `json:"resolved_point" db:"-"`
	Confidence    district.Confidence `json:"confidence" db:"-"`
	DistanceKm    *float64            `json:"distance_km" db:"-"`
}

// Raw：原始数据集中的一行（字段名随表单导出版本而变化）
type Raw map[string]any

// 各字段的历史列名，按优先级排列（表单导出列号、中文问题原文、旧版默认数据、入库列名）
var (
	nameFields         = []string{"Column2", "आपका पूरा नाम क्या है? ", "Name", "name"}
	mobileFields       = []string{"Column3", "आपका मोबाइल नंबर ", "Mobile Number", "mobile"}
	districtFields     = []string{"Column4", "Column12", "जिला ", "District", "district"}
	constituencyFields = []string{"Column5", "आपकी विधानसभा (Vidhan Sabha) कौन सी है? ", "Vidhan Sabha", "vidhan_sabha"}
)

// Field：按候选列名顺序取第一个非空值，非字符串值转为文本
func (r Raw) Field(names ...string) string {
	for _, n := range names {
		v, ok := r[n]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(stringify(v)); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// 文档注释：将原始行归并为统一记录（不含坐标）
// 约束：姓名/区县/选区缺失时以 Unknown 占位；手机号缺失保持空串。
func FromRaw(r Raw) Record {
	return Record{
		Name:         orUnknown(r.Field(nameFields...)),
		Mobile:       r.Field(mobileFields...),
		District:     orUnknown(r.Field(districtFields...)),
		Constituency: orUnknown(r.Field(constituencyFields...)),
	}
}

// HasName：是否带有真实姓名（入库前过滤用）
func (r Raw) HasName() bool { return r.Field(nameFields...) != "" }
