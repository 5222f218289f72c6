package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowlist(t *testing.T) {
	a := ParseAllowlist("203.0.113.7, bogus", "10.0.0.0/8,2001:db8::/32,", false)
	assert.True(t, a.Allowed(net.ParseIP("203.0.113.7")))
	assert.True(t, a.Allowed(net.ParseIP("10.1.2.3")))
	assert.True(t, a.Allowed(net.ParseIP("2001:db8::42")))
	assert.False(t, a.Allowed(net.ParseIP("127.0.0.1")))
	assert.False(t, a.Allowed(nil))

	assert.True(t, ParseAllowlist("", "", true).Allowed(net.ParseIP("::1")))
}

func TestAllowlist_Guard(t *testing.T) {
	h := ParseAllowlist("", "", true).Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	r.RemoteAddr = "127.0.0.1:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)

	r.RemoteAddr = "198.51.100.1:4000"
	r.Header.Set("X-Forwarded-For", "127.0.0.1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAllowlistFromEnv(t *testing.T) {
	t.Setenv("METRICS_ALLOW_IPS", "")
	t.Setenv("METRICS_ALLOW_CIDRS", "")
	t.Setenv("METRICS_ALLOW_LOCAL", "false")
	assert.False(t, AllowlistFromEnv().Allowed(net.ParseIP("127.0.0.1")))
}
