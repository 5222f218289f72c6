package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"volunteer-geo/internal/district"
	"volunteer-geo/internal/rescache"
	"volunteer-geo/internal/volunteer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRouter(t *testing.T) (http.Handler, []volunteer.Record) {
	t.Helper()
	r := district.NewResolver(nil, district.WithRand(rand.New(rand.NewSource(1))))
	roster := volunteer.Prepare(volunteer.DefaultRoster())
	return BuildRoutes(Deps{Roster: roster, Cache: rescache.New(nil, r, 0)}), roster
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeNearby(t *testing.T, rec *httptest.ResponseRecorder) nearbyResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp nearbyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestNearby_WithOrigin(t *testing.T) {
	h, roster := newTestRouter(t)
	resp := decodeNearby(t, get(t, h, "/volunteers/nearby?lat=26.8467&lng=80.9462"))

	assert.Equal(t, "query", resp.OriginSource)
	assert.Equal(t, len(roster), resp.Total)
	require.Len(t, resp.Volunteers, 5)
	assert.Equal(t, "Rahul Yadav", resp.Volunteers[0].Name)
	assert.Equal(t, "Amit Singh", resp.Volunteers[1].Name)
	for i, v := range resp.Volunteers {
		require.NotNil(t, v.DistanceKm)
		assert.NotEmpty(t, v.DistanceLabel)
		if i > 0 {
			assert.LessOrEqual(t, *resp.Volunteers[i-1].DistanceKm, *v.DistanceKm)
		}
	}
	// 共享名单不被请求修改
	for _, r := range roster {
		assert.Nil(t, r.DistanceKm)
	}
}

func TestNearby_NoOrigin(t *testing.T) {
	h, roster := newTestRouter(t)
	resp := decodeNearby(t, get(t, h, "/volunteers/nearby?limit=all"))

	assert.Equal(t, "none", resp.OriginSource)
	assert.Nil(t, resp.Origin)
	require.Len(t, resp.Volunteers, len(roster))
	for i, v := range resp.Volunteers {
		assert.Equal(t, roster[i].ID, v.ID)
		assert.Nil(t, v.DistanceKm)
		assert.Empty(t, v.DistanceLabel)
		assert.True(t, v.Confidence.Matched(), v.District)
	}
}

func TestNearby_Limit(t *testing.T) {
	h, _ := newTestRouter(t)
	assert.Len(t, decodeNearby(t, get(t, h, "/volunteers/nearby?limit=3")).Volunteers, 3)
	assert.Len(t, decodeNearby(t, get(t, h, "/volunteers/nearby?limit=0")).Volunteers, 5)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/volunteers/nearby?limit=-1").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/volunteers/nearby?limit=many").Code)
}

func TestBadOrigin(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, q := range []string{"?lat=26.8", "?lng=80.9", "?lat=abc&lng=80", "?lat=95&lng=80", "?lat=NaN&lng=80"} {
		for _, path := range []string{"/volunteers/nearby", "/resolve"} {
			rec := get(t, h, path+q)
			assert.Equal(t, http.StatusBadRequest, rec.Code, path+q)
			var body map[string]errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusBadRequest, body["error"].Code)
		}
	}
}

func TestResolve(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, "/resolve?name=Kanpur")
	require.Equal(t, http.StatusOK, rec.Code)
	var res district.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, district.Exact, res.Confidence)
	assert.Equal(t, "kanpur", res.Key)

	rec = get(t, h, "/resolve?name=Atlantis&lat=27&lng=80")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, district.NearUser, res.Confidence)
	assert.InDelta(t, 27, res.Point.Lat, district.NearUserJitter)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
