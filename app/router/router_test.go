package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"modelctl/app/handler"
	"modelctl/app/middleware"
	"modelctl/internal/model"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/metrics"
	"modelctl/pkg/store/httpstore"
	"modelctl/pkg/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(store *memory.StatusStore, token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	recorder := metrics.NewRecorder("")
	recorder.ObserveHeartbeat(nil)
	NewRouter(handler.NewStatusHandler(store), recorder.Handler(), token).Setup(engine)
	return engine
}

func serve(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestStatusRoute(t *testing.T) {
	store := memory.NewStatusStore()
	engine := newEngine(store, "")

	w := serve(engine, "/status", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, store.Write(context.Background(), &model.StatusRecord{
		ServiceID:     "svc-gin",
		OverallStatus: "ready",
		LastHeartbeat: model.EpochSeconds(time.Now()),
		Models:        map[string]string{"legal-7b": "loaded"},
	}))

	w = serve(engine, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "svc-gin", body["service_id"])
	assert.Contains(t, body, "last_heartbeat")

	store.SetReadError(interfaces.ErrStatusUnreadable)
	w = serve(engine, "/status", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuth(t *testing.T) {
	engine := newEngine(memory.NewStatusStore(), "s3cret")

	assert.Equal(t, http.StatusUnauthorized, serve(engine, "/status", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(engine, "/status", "guess").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, "/status", "s3cret").Code)
	assert.Equal(t, http.StatusOK, serve(engine, "/healthz", "").Code, "healthz is open")
}

func TestMetricsRoute(t *testing.T) {
	w := serve(newEngine(memory.NewStatusStore(), ""), "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "modelctl_worker_heartbeats_total")
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.GET("/panic", func(c *gin.Context) { panic("model exploded") })

	w := serve(engine, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatusClientAgainstRouter(t *testing.T) {
	store := memory.NewStatusStore()
	srv := httptest.NewServer(newEngine(store, "tok"))
	defer srv.Close()

	client := httpstore.NewStatusClient(srv.URL, "tok", time.Second)
	_, err := client.Read(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrStatusNotFound)

	require.NoError(t, store.Write(context.Background(), &model.StatusRecord{
		ServiceID:     "svc-roundtrip",
		OverallStatus: "loading",
		LastHeartbeat: model.EpochSeconds(time.Now()),
		CrashCount:    2,
		Models:        map[string]string{"legal-7b": "loading"},
		GPUMemory:     &model.GPUMemory{AllocatedGB: 3, TotalGB: 8},
	}))
	snapshot, err := client.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "svc-roundtrip", snapshot.Record.ServiceID)
	assert.Equal(t, 2, snapshot.Record.CrashCount)
	assert.Equal(t, 8.0, snapshot.Record.GPUMemory.TotalGB)
}
