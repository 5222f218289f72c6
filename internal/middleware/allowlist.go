package middleware

import (
	"net"
	"net/http"
	"os"
	"strings"

	"volunteer-geo/internal/logger"
)

// 文档注释：来源 IP 白名单（单 IP + CIDR）
// 背景：/metrics 暴露调用量与名单规模，只对采集端开放；默认仅允许本机。
// 约束：来源以 RemoteAddr 为准，不信任转发头；支持 IPv4/IPv6。
type Allowlist struct {
	ips   map[string]struct{}
	cidrs []*net.IPNet
}

// ParseAllowlist：ips、cidrs 为逗号分隔列表，非法项忽略；local 为真时加入回环地址
func ParseAllowlist(ips, cidrs string, local bool) *Allowlist {
	a := &Allowlist{ips: map[string]struct{}{}}
	for _, p := range strings.Split(ips, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			a.ips[ip.String()] = struct{}{}
		}
	}
	for _, c := range strings.Split(cidrs, ",") {
		if _, n, err := net.ParseCIDR(strings.TrimSpace(c)); err == nil {
			a.cidrs = append(a.cidrs, n)
		}
	}
	if local {
		a.ips["127.0.0.1"] = struct{}{}
		a.ips["::1"] = struct{}{}
	}
	return a
}

// AllowlistFromEnv：METRICS_ALLOW_IPS / METRICS_ALLOW_CIDRS / METRICS_ALLOW_LOCAL（默认 true）
func AllowlistFromEnv() *Allowlist {
	return ParseAllowlist(os.Getenv("METRICS_ALLOW_IPS"), os.Getenv("METRICS_ALLOW_CIDRS"), os.Getenv("METRICS_ALLOW_LOCAL") != "false")
}

func (a *Allowlist) Allowed(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if _, ok := a.ips[ip.String()]; ok {
		return true
	}
	for _, n := range a.cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Guard：不在白名单内的请求返回 403
func (a *Allowlist) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.RemoteAddr
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if !a.Allowed(net.ParseIP(host)) {
			logger.L().Debug("allowlist_block", "ip", host, "path", r.URL.Path)
			w.Header().Set("content-type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
