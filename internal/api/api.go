// 包 api：集中注册 HTTP 路由，主入口只负责装配依赖
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"volunteer-geo/internal/district"
	"volunteer-geo/internal/iploc"
	"volunteer-geo/internal/logger"
	"volunteer-geo/internal/metrics"
	"volunteer-geo/internal/proximity"
	"volunteer-geo/internal/rescache"
	"volunteer-geo/internal/volunteer"
)

// Deps：路由依赖；Locator 可为空（未配置 GeoIP 库）
type Deps struct {
	Roster       []volunteer.Record
	Cache        *rescache.Cache
	Locator      *iploc.Locator
	DefaultLimit int
}

type handler struct {
	d Deps
}

// 列表项：距离未知时 distance_km 为 null，distance_label 为空串
type nearbyItem struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Mobile        string              `json:"mobile,omitempty"`
	District      string              `json:"district"`
	Constituency  string              `json:"constituency"`
	Confidence    district.Confidence `json:"confidence"`
	Point         district.GeoPoint   `json:"resolved_point"`
	DistanceKm    *float64            `json:"distance_km"`
	DistanceLabel string              `json:"distance_label"`
}

type nearbyResponse struct {
	Origin       *district.GeoPoint `json:"origin"`
	OriginSource string             `json:"origin_source"`
	Total        int                `json:"total"`
	Volunteers   []nearbyItem       `json:"volunteers"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// BuildRoutes：构建 API 路由（在主入口挂载到 API_BASE 前缀下）
func BuildRoutes(d Deps) *mux.Router {
	if d.DefaultLimit <= 0 {
		d.DefaultLimit = 5
	}
	h := &handler{d: d}
	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/resolve", timed("resolve", h.resolve)).Methods(http.MethodGet)
	r.HandleFunc("/volunteers/nearby", timed("nearby", h.nearby)).Methods(http.MethodGet)
	return r
}

func timed(route string, f http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		f(w, r)
		metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(t0).Milliseconds()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: status, Message: msg}})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// 文档注释：解析查询串中的坐标
// 约束：lat/lng 须同时出现；均缺失返回 (nil, nil)；非法或越界返回错误。
func parseOrigin(r *http.Request) (*district.GeoPoint, error) {
	q := r.URL.Query()
	ls, gs := q.Get("lat"), q.Get("lng")
	if ls == "" && gs == "" {
		return nil, nil
	}
	if ls == "" || gs == "" {
		return nil, errBadOrigin
	}
	lat, err1 := strconv.ParseFloat(ls, 64)
	lng, err2 := strconv.ParseFloat(gs, 64)
	if err1 != nil || err2 != nil {
		return nil, errBadOrigin
	}
	p := district.GeoPoint{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil, errBadOrigin
	}
	return &p, nil
}

type apiError string

func (e apiError) Error() string { return string(e) }

const errBadOrigin = apiError("lat and lng must both be valid coordinates")

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	user, err := parseOrigin(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := h.d.Cache.Resolve(r.Context(), name, user)
	logger.L().Debug("resolve", "confidence", res.Confidence.String(), "key", res.Key)
	writeJSON(w, http.StatusOK, res)
}

// 文档注释：附近志愿者
// 背景：原点优先取查询参数，其次 GeoIP 粗定位；都没有时按数据集原顺序返回且不带距离。
// 约束：每次请求基于只读名单的副本重新落点与排序（近用户兜底依赖本次原点）；limit<=0 使用默认值，limit=all 返回全部。
func (h *handler) nearby(w http.ResponseWriter, r *http.Request) {
	origin, err := parseOrigin(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	source := "query"
	if origin == nil {
		source = "none"
		if p := h.d.Locator.Locate(iploc.ClientIP(r)); p != nil {
			origin = p
			source = "geoip"
		}
	}
	metrics.OriginSourceTotal.WithLabelValues(source).Inc()

	limit := h.d.DefaultLimit
	if s := r.URL.Query().Get("limit"); s == "all" {
		limit = 0
	} else if s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer or 'all'")
			return
		}
		if n > 0 {
			limit = n
		}
	}

	recs := make([]volunteer.Record, len(h.d.Roster))
	copy(recs, h.d.Roster)
	for i := range recs {
		h.d.Cache.Locate(r.Context(), &recs[i], origin)
	}
	ranked := proximity.Nearest(recs, origin, limit)

	resp := nearbyResponse{Origin: origin, OriginSource: source, Total: len(recs), Volunteers: make([]nearbyItem, 0, len(ranked))}
	for _, v := range ranked {
		resp.Volunteers = append(resp.Volunteers, nearbyItem{
			ID:            v.ID,
			Name:          v.Name,
			Mobile:        v.Mobile,
			District:      v.District,
			Constituency:  v.Constituency,
			Confidence:    v.Confidence,
			Point:         v.ResolvedPoint,
			DistanceKm:    v.DistanceKm,
			DistanceLabel: proximity.FormatKm(v.DistanceKm),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
