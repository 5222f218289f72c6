package district

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"volunteer-geo/internal/metrics"
)

// 抖动半径（度）：命中 ±0.015（约 1.5km），近用户 ±0.15（约 15km），全局兜底 ±0.25
const (
	MatchJitter    = 0.015
	NearUserJitter = 0.15
	DefaultJitter  = 0.25
)

// 文档注释：区县名解析器（精确 → 子串 → 首词 → 近用户 → 全局默认）
// 背景：用于列表/地图展示的近似定位，不是地理编码服务；始终返回一个“看起来合理”的点，同区多名志愿者以抖动错开。
// 约束：永不失败；随机源可注入以便测试复现；并发安全（随机源与缓存均加锁）。
type Resolver struct {
	gz       *Gazetteer
	fallback GeoPoint
	cache    *LRU

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Resolver)

// WithRand：注入随机源（测试中传入固定种子）
func WithRand(r *rand.Rand) Option { return func(o *Resolver) { o.rnd = r } }

// WithCache：启用匹配结果缓存
func WithCache(c *LRU) Option { return func(o *Resolver) { o.cache = c } }

// WithDefault：替换全局兜底坐标
func WithDefault(p GeoPoint) Option { return func(o *Resolver) { o.fallback = p } }

func NewResolver(gz *Gazetteer, opts ...Option) *Resolver {
	if gz == nil {
		gz = Builtin()
	}
	r := &Resolver{gz: gz, fallback: DefaultPoint}
	for _, o := range opts {
		o(r)
	}
	if r.rnd == nil {
		r.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return r
}

func (r *Resolver) Gazetteer() *Gazetteer { return r.gz }

// Resolve：返回近似坐标，无法区分命中与兜底
func (r *Resolver) Resolve(name string, user *GeoPoint) GeoPoint {
	return r.ResolveDetailed(name, user).Point
}

// ResolveDetailed：返回带置信等级的解析结果
func (r *Resolver) ResolveDetailed(name string, user *GeoPoint) Resolution {
	m, ok := r.Match(name)
	return r.Place(m, ok, user)
}

// 文档注释：地名表匹配（不含抖动与兜底）
// 背景：拆分为独立步骤，便于上层以 Redis 等外部缓存承载匹配结果；抖动每次调用重新生成。
// 约束：空白输入直接视为未命中，否则“键包含空串”会让首个键误命中。
func (r *Resolver) Match(name string) (Match, bool) {
	if Normalize(name) == "" {
		return Match{}, false
	}
	if m, ok, hit := r.Cached(name); hit {
		return m, ok
	}
	return r.MatchFresh(name)
}

// Cached：仅查本地 LRU；hit 为假表示需要继续向下查询（未启用缓存时恒为假）
func (r *Resolver) Cached(name string) (m Match, ok, hit bool) {
	n := Normalize(name)
	if r.cache == nil || n == "" {
		return Match{}, false, false
	}
	if m, ok, hit = r.cache.Get(n); hit {
		metrics.ResolveCacheTotal.WithLabelValues("hit").Inc()
		return m, ok, true
	}
	metrics.ResolveCacheTotal.WithLabelValues("miss").Inc()
	return Match{}, false, false
}

// Remember：写入本地 LRU（外部缓存命中后回填）
func (r *Resolver) Remember(name string, m Match, ok bool) {
	if n := Normalize(name); r.cache != nil && n != "" {
		r.cache.Set(n, m, ok)
	}
}

// MatchFresh：跳过缓存查询直接扫描地名表，结果写回本地 LRU
func (r *Resolver) MatchFresh(name string) (Match, bool) {
	n := Normalize(name)
	if n == "" {
		return Match{}, false
	}
	m, ok := r.match(n)
	r.Remember(n, m, ok)
	return m, ok
}

func (r *Resolver) match(n string) (Match, bool) {
	if p, ok := r.gz.points[n]; ok {
		return Match{Key: n, Point: p, Confidence: Exact}, true
	}
	for _, k := range r.gz.keys {
		if strings.Contains(n, k) || strings.Contains(k, n) {
			return Match{Key: k, Point: r.gz.points[k], Confidence: Fuzzy}, true
		}
	}
	// 子串阶段已覆盖“首词等于某键”的情形，此处保留以维持回退顺序的完整性
	if first := strings.Fields(n); len(first) > 0 {
		if p, ok := r.gz.points[first[0]]; ok {
			return Match{Key: first[0], Point: p, Confidence: FirstWord}, true
		}
	}
	return Match{}, false
}

// 文档注释：对匹配结果落点（命中加小抖动；未命中按用户位置或全局默认兜底）
// 约束：用户位置为 NaN/越界时视为缺失。
func (r *Resolver) Place(m Match, ok bool, user *GeoPoint) Resolution {
	var out Resolution
	switch {
	case ok:
		out = Resolution{Point: r.jitter(m.Point, MatchJitter), Confidence: m.Confidence, Key: m.Key}
	case user != nil && user.Valid():
		out = Resolution{Point: r.jitter(*user, NearUserJitter), Confidence: NearUser}
	default:
		out = Resolution{Point: r.jitter(r.fallback, DefaultJitter), Confidence: Default}
	}
	metrics.ResolveTotal.WithLabelValues(out.Confidence.String()).Inc()
	return out
}

func (r *Resolver) jitter(p GeoPoint, radius float64) GeoPoint {
	r.mu.Lock()
	dLat := (r.rnd.Float64()*2 - 1) * radius
	dLng := (r.rnd.Float64()*2 - 1) * radius
	r.mu.Unlock()
	return GeoPoint{Lat: p.Lat + dLat, Lng: p.Lng + dLng}
}
