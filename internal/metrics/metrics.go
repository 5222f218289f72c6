package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "volgeo_requests_total",
		Help: "Total number of API requests by route",
	}, []string{"route"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "volgeo_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "volgeo_rate_limited_total",
		Help: "Total requests rejected by the token bucket",
	})
	ResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "volgeo_resolve_total",
		Help: "District resolutions by confidence",
	}, []string{"confidence"})
	ResolveCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "volgeo_resolve_cache_total",
		Help: "In-process match cache lookups by result",
	}, []string{"result"})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "volgeo_redis_hits_total",
		Help: "Total redis match cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "volgeo_redis_misses_total",
		Help: "Total redis match cache misses",
	})
	OriginSourceTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "volgeo_origin_source_total",
		Help: "Where the ranking origin came from (query, geoip, none)",
	}, []string{"source"})
	RankedRecords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "volgeo_ranked_records",
		Help:    "Number of records per ranking call",
		Buckets: []float64{0, 5, 10, 50, 100, 500, 1000, 5000},
	})
	RosterSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "volgeo_roster_size",
		Help: "Number of volunteer records loaded at startup",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(ResolveTotal)
	prometheus.MustRegister(ResolveCacheTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(OriginSourceTotal)
	prometheus.MustRegister(RankedRecords)
	prometheus.MustRegister(RosterSize)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
