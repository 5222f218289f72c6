package district

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_KeysNormalizedAndUnique(t *testing.T) {
	gz := Builtin()
	keys := gz.Keys()
	require.Equal(t, len(builtin), len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		assert.Equal(t, Normalize(k), k)
		assert.False(t, seen[k], "duplicate %q", k)
		seen[k] = true
	}
	// 返回副本
	keys[0] = "mutated"
	assert.NotEqual(t, "mutated", gz.Keys()[0])
}

func TestExtend(t *testing.T) {
	gz := Builtin()
	before := gz.Len()
	n, err := gz.Extend([]byte(`
places:
  - name: Unnao
    aliases: [उन्नाव]
    lat: 26.5393
    lng: 80.4878
`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, before+2, gz.Len())
	p, ok := gz.Lookup("UNNAO")
	require.True(t, ok)
	assert.Equal(t, GeoPoint{Lat: 26.5393, Lng: 80.4878}, p)
	// 追加在内置键之后
	if diff := cmp.Diff([]string{"unnao", "उन्नाव"}, gz.Keys()[before:]); diff != "" {
		t.Errorf("appended keys mismatch (-want +got):\n%s", diff)
	}
}

func TestExtend_RejectsWithoutPartialWrite(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"shadows builtin", "places:\n  - name: bareilly\n    lat: 28.36\n    lng: 79.43\n  - name: Kanpur\n    lat: 1\n    lng: 1\n"},
		{"out of range", "places:\n  - name: bareilly\n    lat: 128.36\n    lng: 79.43\n"},
		{"empty name", "places:\n  - name: '  '\n    lat: 28.36\n    lng: 79.43\n"},
		{"malformed", "places: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gz := Builtin()
			before := gz.Keys()
			_, err := gz.Extend([]byte(tt.doc))
			require.Error(t, err)
			assert.Empty(t, cmp.Diff(before, gz.Keys()))
			_, ok := gz.Lookup("bareilly")
			assert.False(t, ok)
		})
	}
}

func TestExtendFile(t *testing.T) {
	gz := Builtin()
	n, err := gz.ExtendFile("")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = gz.ExtendFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	p := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(p, []byte("places:\n  - name: Jhansi\n    lat: 25.4484\n    lng: 78.5685\n"), 0o644))
	n, err = gz.ExtendFile(p)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
