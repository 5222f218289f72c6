// 包 rescache：以 Redis 承载区县匹配结果的共享缓存
package rescache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"volunteer-geo/internal/district"
	"volunteer-geo/internal/logger"
	"volunteer-geo/internal/metrics"
	"volunteer-geo/internal/volunteer"
)

const keyPrefix = "volgeo:match:"

// 文档注释：Redis 匹配缓存
// 背景：多实例部署时进程内 LRU 各自冷启动，共享缓存可复用其它实例的匹配结果；并发未命中经 singleflight 合并为一次计算。
// 约束：只缓存匹配结果（含未命中），不缓存抖动与兜底；Redis 不可用时静默回退到直接匹配，解析永不失败。
type Cache struct {
	rc  *redis.Client
	r   *district.Resolver
	ttl time.Duration
	sf  singleflight.Group
}

type entry struct {
	Match district.Match `json:"m"`
	OK    bool           `json:"ok"`
}

// New：rc 为 nil 时退化为直接调用解析器
func New(rc *redis.Client, r *district.Resolver, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{rc: rc, r: r, ttl: ttl}
}

func Key(name string) string { return keyPrefix + district.Normalize(name) }

// 文档注释：匹配查询（本地 LRU → Redis → 扫描地名表）
// 背景：列表请求对名单逐条匹配，本地命中时不产生任何网络往返；Redis 只承担跨实例的冷启动共享。
// 约束：Redis 命中与扫描结果都回填本地 LRU；Redis 读写失败或数据损坏时按未命中处理并覆盖写回。
func (c *Cache) Match(ctx context.Context, name string) (district.Match, bool) {
	if c.rc == nil || district.Normalize(name) == "" {
		return c.r.Match(name)
	}
	if m, ok, hit := c.r.Cached(name); hit {
		return m, ok
	}
	key := Key(name)
	v, _, _ := c.sf.Do(key, func() (any, error) {
		if e, found := c.get(ctx, key); found {
			metrics.RedisHitsTotal.Inc()
			c.r.Remember(name, e.Match, e.OK)
			return e, nil
		}
		metrics.RedisMissesTotal.Inc()
		m, ok := c.r.MatchFresh(name)
		e := entry{Match: m, OK: ok}
		if b, err := json.Marshal(e); err == nil {
			if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
				logger.L().Debug("rescache_set_error", "err", err)
			}
		}
		return e, nil
	})
	e := v.(entry)
	return e.Match, e.OK
}

func (c *Cache) get(ctx context.Context, key string) (entry, bool) {
	s, err := c.rc.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Debug("rescache_get_error", "err", err)
		}
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		logger.L().Debug("rescache_decode_error", "key", key, "err", err)
		return entry{}, false
	}
	return e, true
}

// Resolve：匹配（经缓存）后落点
func (c *Cache) Resolve(ctx context.Context, name string, user *district.GeoPoint) district.Resolution {
	m, ok := c.Match(ctx, name)
	return c.r.Place(m, ok, user)
}

// Locate：为记录计算近似坐标，匹配步骤经本缓存
func (c *Cache) Locate(ctx context.Context, rec *volunteer.Record, user *district.GeoPoint) {
	volunteer.Locate(rec, func(n string) (district.Match, bool) { return c.Match(ctx, n) }, c.r, user)
}
