package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthCheck(t *testing.T, h *HealthHandler, path string) HealthResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck_RedisUp(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	resp := healthCheck(t, NewHealthHandler("site-admin", "1.2.3", rdb, nil), "/health")
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "site-admin", resp.Service)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "up", resp.Redis)
	assert.Equal(t, "unknown", resp.NodeAPI)
}

func TestHealthCheck_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	resp := healthCheck(t, NewHealthHandler("site-admin", "1.2.3", rdb, nil), "/healthz")
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "down", resp.Redis)
}

func TestHealthCheck_NoRedis(t *testing.T) {
	resp := healthCheck(t, NewHealthHandler("site-admin", "1.2.3", nil, nil), "/health")
	assert.Equal(t, "disabled", resp.Redis)
}
