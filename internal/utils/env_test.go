package utils

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("VG_STR", "x")
	t.Setenv("VG_INT", "7")
	t.Setenv("VG_BAD", "seven")
	t.Setenv("VG_BOOL", "true")
	assert.Equal(t, "x", EnvOr("VG_STR", "d"))
	assert.Equal(t, "d", EnvOr("VG_UNSET_STR", "d"))
	assert.Equal(t, 7, EnvInt("VG_INT", 1, 0))
	assert.Equal(t, 1, EnvInt("VG_INT", 1, 10))
	assert.Equal(t, 1, EnvInt("VG_BAD", 1, 0))
	assert.Equal(t, 7*time.Second, EnvSeconds("VG_INT", time.Minute))
	assert.Equal(t, time.Minute, EnvSeconds("VG_BAD", time.Minute))
	assert.True(t, EnvBool("VG_BOOL", false))
	assert.True(t, EnvBool("VG_UNSET_BOOL", true))
	t.Setenv("VG_BOOL", "yes")
	assert.False(t, EnvBool("VG_BOOL", true))
}

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_DB", "")
	t.Setenv("PG_USER", "app")
	t.Setenv("PG_PASSWORD", "p@ss word")
	t.Setenv("PG_SSLMODE", "")
	u, err := url.Parse(BuildPostgresDSNFromEnv())
	require.NoError(t, err)
	assert.Equal(t, "db:6543", u.Host)
	assert.Equal(t, "/volunteers", u.Path)
	assert.Equal(t, "app", u.User.Username())
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pass)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestOpenRedisFromEnv_Disabled(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "")
	assert.Nil(t, OpenRedisFromEnv())
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert, key := filepath.Join(dir, "c", "server.crt"), filepath.Join(dir, "k", "server.key")
	require.NoError(t, EnsureSelfSignedCert(cert, key, "test.local"))
	st, err := os.Stat(key)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	before, _ := os.ReadFile(cert)
	require.NoError(t, EnsureSelfSignedCert(cert, key, "test.local"))
	after, _ := os.ReadFile(cert)
	assert.Equal(t, before, after)
}
