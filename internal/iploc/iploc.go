// 包 iploc：请求未携带坐标时，以客户端 IP 近似用户位置（GeoLite2 City）
package iploc

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"

	"volunteer-geo/internal/district"
	"volunteer-geo/internal/logger"
)

// 精度半径超过该值（千米）的结果视为国家级粗定位，不作为排序原点
const maxAccuracyKm = 200

// Locator：IP → 坐标
type Locator struct {
	db *geoip2.Reader
}

// 文档注释：打开 City 库
// 背景：移动端拒绝定位权限时，服务端以 IP 粗定位代替“平台定位服务”；失败不影响主流程（原点为空即不排序）。
// 约束：仅接受 City 类数据库；verify 为真时先做完整性校验（启动期一次性开销）。
func Open(path string, verify bool) (*Locator, error) {
	if verify {
		if err := Verify(path); err != nil {
			return nil, err
		}
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	if t := db.Metadata().DatabaseType; !strings.Contains(t, "City") {
		_ = db.Close()
		return nil, fmt.Errorf("geoip db type %q is not a City database", t)
	}
	return &Locator{db: db}, nil
}

// Verify：校验 mmdb 文件结构完整性
func Verify(path string) error {
	r, err := maxminddb.Open(path)
	if err != nil {
		return fmt.Errorf("open mmdb: %w", err)
	}
	defer r.Close()
	if err := r.Verify(); err != nil {
		return fmt.Errorf("verify mmdb: %w", err)
	}
	logger.L().Debug("geoip_verify_ok", "type", r.Metadata.DatabaseType, "build_epoch", r.Metadata.BuildEpoch)
	return nil
}

func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Locate：返回 IP 的近似坐标；私网地址、未知地址或精度过低返回 nil
func (l *Locator) Locate(ipStr string) *district.GeoPoint {
	if l == nil || l.db == nil {
		return nil
	}
	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() {
		return nil
	}
	rec, err := l.db.City(ip)
	if err != nil {
		logger.L().Debug("geoip_lookup_error", "err", err)
		return nil
	}
	loc := rec.Location
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return nil
	}
	if loc.AccuracyRadius > maxAccuracyKm {
		return nil
	}
	p := district.GeoPoint{Lat: loc.Latitude, Lng: loc.Longitude}
	if !p.Valid() {
		return nil
	}
	return &p
}

// 文档注释：获取客户端 IP
// 背景：多层代理环境下优先常见反向代理头，最后回退远端地址。
// 约束：代理头可被伪造，这里只用于粗定位，不用于鉴权或限流。
func ClientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	if x := h.Get("cf-connecting-ip"); x != "" {
		return x
	}
	if x := h.Get("x-real-ip"); x != "" {
		return x
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := strings.Trim(x[i+4:], "\" ")
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\"[]")
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
