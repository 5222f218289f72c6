package volunteer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"volunteer-geo/internal/district"
	"volunteer-geo/internal/logger"
)

// 内置默认名单：数据集缺失或为空时使用
var defaultRoster = []Raw{
	{"Name": "Rahul Yadav", "Mobile Number": "9876543210", "District": "Lucknow", "Vidhan Sabha": "Lucknow Central"},
	{"Name": "Amit Singh", "Mobile Number": "8765432109", "District": "Kanpur", "Vidhan Sabha": "Kanpur Cantt"},
	{"Name": "Priya Patel", "Mobile Number": "7654321098", "District": "Varanasi", "Vidhan Sabha": "Varanasi North"},
	{"Name": "Vikas Kumar", "Mobile Number": "6543210987", "District": "Agra", "Vidhan Sabha": "Agra South"},
	{"Name": "Sneha Gupta", "Mobile Number": "5432109876", "District": "Prayagraj", "Vidhan Sabha": "Allahabad North"},
	{"Name": "Mohd. Imran", "Mobile Number": "9812345678", "District": "Moradabad", "Vidhan Sabha": "Moradabad Nagar"},
	{"Name": "Rajesh Verma", "Mobile Number": "8923456789", "District": "Gorakhpur", "Vidhan Sabha": "Gorakhpur Urban"},
	{"Name": "Anita Singh", "Mobile Number": "7834567890", "District": "Meerut", "Vidhan Sabha": "Meerut City"},
	{"Name": "Suresh Yadav", "Mobile Number": "6745678901", "District": "Azamgarh", "Vidhan Sabha": "Azamgarh Sadar"},
	{"Name": "Deepak Sharma", "Mobile Number": "9956789012", "District": "Ghaziabad", "Vidhan Sabha": "Ghaziabad"},
}

// DefaultRoster：返回内置默认名单的副本
func DefaultRoster() []Raw {
	out := make([]Raw, len(defaultRoster))
	for i, r := range defaultRoster {
		c := make(Raw, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

// 文档注释：读取 JSON 数据集（表单导出的对象数组）
// 背景：导出文件开头带有若干表头行，由 skipRows 指定跳过数量；空行（null）先过滤再跳过。
// 约束：文件不存在返回 fs.ErrNotExist 包装错误，由调用方决定是否回退默认名单。
func LoadFile(path string, skipRows int) ([]Raw, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read volunteer dataset: %w", err)
	}
	var rows []Raw
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("parse volunteer dataset: %w", err)
	}
	out := rows[:0]
	for _, r := range rows {
		if r != nil {
			out = append(out, r)
		}
	}
	if skipRows > 0 {
		if skipRows >= len(out) {
			return nil, nil
		}
		out = out[skipRows:]
	}
	return out, nil
}

// LoadOrDefault：读取数据集，缺失或为空时回退内置默认名单
func LoadOrDefault(path string, skipRows int) []Raw {
	if path == "" {
		return DefaultRoster()
	}
	rows, err := LoadFile(path, skipRows)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.L().Info("roster_file_missing", "path", path)
		} else {
			logger.L().Error("roster_file_error", "path", path, "err", err)
		}
		return DefaultRoster()
	}
	if len(rows) == 0 {
		logger.L().Info("roster_file_empty", "path", path)
		return DefaultRoster()
	}
	return rows
}

// Prepare：归并原始行并分配 id（不含坐标）；缺少 id 的行生成新的 UUID
func Prepare(rows []Raw) []Record {
	out := make([]Record, 0, len(rows))
	for _, raw := range rows {
		rec := FromRaw(raw)
		rec.ID = raw.Field("id", "ID")
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		out = append(out, rec)
	}
	return out
}

// 文档注释：把原始行转换为带近似坐标的记录
// 背景：先按区县匹配，未命中再按选区（Vidhan Sabha）匹配，二者均未命中才走近用户/全局兜底；保持数据集原顺序。
// 约束：Unknown 占位不参与匹配。
func Build(rows []Raw, r *district.Resolver, user *district.GeoPoint) []Record {
	out := Prepare(rows)
	for i := range out {
		Locate(&out[i], r.Match, r, user)
	}
	return out
}

// MatchFunc：地名表匹配步骤（可由外部缓存包装）
type MatchFunc func(name string) (district.Match, bool)

// Locate：为单条记录计算近似坐标（区县优先，选区其次）
func Locate(rec *Record, match MatchFunc, r *district.Resolver, user *district.GeoPoint) {
	var (
		m  district.Match
		ok bool
	)
	for _, name := range []string{rec.District, rec.Constituency} {
		if name == "" || name == Unknown {
			continue
		}
		if m, ok = match(name); ok {
			break
		}
	}
	res := r.Place(m, ok, user)
	rec.ResolvedPoint = res.Point
	rec.Confidence = res.Confidence
	rec.DistanceKm = nil
}
