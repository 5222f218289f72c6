package district

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// 文档注释：静态地名表（区/选区 → 近似坐标）
// 背景：志愿者数据中的区县名为人工填写，含英文、天城文与常见错拼；每种写法都是独立键并指向同一坐标。
// 约束：键在表内唯一且已规范化；遍历顺序即声明顺序，模糊匹配按此顺序取第一个命中。
type Gazetteer struct {
	keys   []string
	points map[string]GeoPoint
}

type entry struct {
	key string
	pt  GeoPoint
}

var (
	ghaziabad  = GeoPoint{Lat: 28.6692, Lng: 77.4538}
	noida      = GeoPoint{Lat: 28.5355, Lng: 77.3910}
	delhi      = GeoPoint{Lat: 28.7041, Lng: 77.1025}
	kanpur     = GeoPoint{Lat: 26.4499, Lng: 80.3319}
	lucknow    = GeoPoint{Lat: 26.8467, Lng: 80.9462}
	varanasi   = GeoPoint{Lat: 25.3176, Lng: 82.9739}
	prayagraj  = GeoPoint{Lat: 25.4358, Lng: 81.8463}
	agra       = GeoPoint{Lat: 27.1767, Lng: 78.0081}
	meerut     = GeoPoint{Lat: 28.9845, Lng: 77.7064}
	gorakhpur  = GeoPoint{Lat: 26.7606, Lng: 83.3732}
	kaushambi  = GeoPoint{Lat: 25.5315, Lng: 81.3870}
	kannauj    = GeoPoint{Lat: 27.0545, Lng: 79.9219}
	sitapur    = GeoPoint{Lat: 27.5706, Lng: 80.6817}
	barabanki  = GeoPoint{Lat: 26.9260, Lng: 81.1916}
	pratapgarh = GeoPoint{Lat: 25.8961, Lng: 81.9450}
	shamli     = GeoPoint{Lat: 29.4527, Lng: 77.3148}
	kairana    = GeoPoint{Lat: 29.3949, Lng: 77.2042}
	moradabad  = GeoPoint{Lat: 28.8386, Lng: 78.7733}
	azamgarh   = GeoPoint{Lat: 26.0689, Lng: 83.1855}
)

// DefaultPoint：无法解析且无用户位置时使用的首府坐标（勒克瑙）
var DefaultPoint = lucknow

var builtin = []entry{
	{"ghaziabad", ghaziabad},
	{"noida", noida},
	{"delhi", delhi},
	{"kanpur", kanpur},
	{"kanpur nagar", kanpur},
	{"kanpur dehat", GeoPoint{Lat: 26.3000, Lng: 79.9500}},
	{"lucknow", lucknow},
	{"varanasi", varanasi},
	{"prayagraj", prayagraj},
	{"allahabad", prayagraj},
	{"agra", agra},
	{"meerut", meerut},
	{"gorakhpur", gorakhpur},
	{"gorkhapur", gorakhpur}, // 常见错拼
	{"kaushambi", kaushambi},
	{"sirathu", GeoPoint{Lat: 25.5320, Lng: 81.3280}},
	{"renukoot", GeoPoint{Lat: 24.2166, Lng: 83.0318}},
	{"kannauj", kannauj},
	{"kannoj", kannauj},
	{"sitapur", sitapur},
	{"barabanki", barabanki},
	{"pratapgarh", pratapgarh},
	{"rasulabad", GeoPoint{Lat: 25.9000, Lng: 81.9500}},
	{"mohammdabad", GeoPoint{Lat: 26.7600, Lng: 83.4100}},
	{"kalyanpur", GeoPoint{Lat: 26.4999, Lng: 80.2919}},
	{"kidwai nagar", GeoPoint{Lat: 26.4580, Lng: 80.3500}},
	{"lahrpur", GeoPoint{Lat: 27.5500, Lng: 80.7800}},
	{"shamli", shamli},
	{"kairana", kairana},
	{"chilupar", gorakhpur},
	{"moradabad", moradabad},
	{"azamgarh", azamgarh},
	{"गाज़ियाबाद", ghaziabad},
	{"गाजियाबाद", ghaziabad},
	{"नोएडा", noida},
	{"दिल्ली", delhi},
	{"कानपुर", kanpur},
	{"लखनऊ", lucknow},
	{"वाराणसी", varanasi},
	{"प्रयागराज", prayagraj},
	{"इलाहाबाद", prayagraj},
	{"आगरा", agra},
	{"मेरठ", meerut},
	{"गोरखपुर", gorakhpur},
	{"कौशाम्बी", kaushambi},
	{"कन्नौज", kannauj},
	{"सीतापुर", sitapur},
	{"बाराबंकी", barabanki},
	{"प्रतापगढ़", pratapgarh},
	{"शामली", shamli},
	{"कैराना", kairana},
	{"मुरादाबाद", moradabad},
	{"आज़मगढ़", azamgarh},
}

// Normalize：小写、去首尾空白、合并内部空白，并做 NFC 组合
// 背景：天城文存在组合/分解两种编码（如 ज़），统一后才能按键精确比较。
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Builtin：返回内置地名表（每次调用构造新实例，调用方可自由扩展）
func Builtin() *Gazetteer {
	g := &Gazetteer{points: make(map[string]GeoPoint, len(builtin))}
	for _, e := range builtin {
		_ = g.add(e.key, e.pt)
	}
	return g
}

func (g *Gazetteer) add(key string, pt GeoPoint) error {
	k := Normalize(key)
	if k == "" {
		return fmt.Errorf("empty gazetteer key %q", key)
	}
	if !pt.Valid() {
		return fmt.Errorf("invalid coordinate for %q", key)
	}
	if _, ok := g.points[k]; ok {
		return fmt.Errorf("duplicate gazetteer key %q", k)
	}
	g.keys = append(g.keys, k)
	g.points[k] = pt
	return nil
}

// Lookup：按规范化后的名称精确查询
func (g *Gazetteer) Lookup(name string) (GeoPoint, bool) {
	p, ok := g.points[Normalize(name)]
	return p, ok
}

// Keys：按声明顺序返回全部键的副本
func (g *Gazetteer) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

func (g *Gazetteer) Len() int { return len(g.keys) }

// 扩展文件格式：
//
//	places:
//	  - name: unnao
//	    lat: 26.5393
//	    lng: 80.4878
type extFile struct {
	Places []struct {
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
		Lat     float64  `yaml:"lat"`
		Lng     float64  `yaml:"lng"`
	} `yaml:"places"`
}

// 文档注释：从 YAML 扩展文件追加地名
// 背景：运营侧可补充新区县或错拼而无需发版；追加在内置表之后，保持内置键的匹配优先级。
// 约束：与已有键重复视为错误（不允许覆盖内置坐标）；坐标越界视为错误；出错时不做部分写入。
func (g *Gazetteer) Extend(data []byte) (int, error) {
	var f extFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parse gazetteer extension: %w", err)
	}
	staged := &Gazetteer{keys: g.Keys(), points: make(map[string]GeoPoint, len(g.points))}
	for k, v := range g.points {
		staged.points[k] = v
	}
	n := 0
	for _, p := range f.Places {
		pt := GeoPoint{Lat: p.Lat, Lng: p.Lng}
		for _, name := range append([]string{p.Name}, p.Aliases...) {
			if err := staged.add(name, pt); err != nil {
				return 0, err
			}
			n++
		}
	}
	g.keys, g.points = staged.keys, staged.points
	return n, nil
}

// ExtendFile：读取扩展文件；路径为空时不做任何事
func (g *Gazetteer) ExtendFile(path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read gazetteer extension: %w", err)
	}
	return g.Extend(b)
}
