package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/config"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/generator"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/service"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/window"
)

func newTestServer(t *testing.T) (*Server, *service.Service) {
	t.Helper()

	cfg := &config.Config{
		Alerting: config.AlertingConfig{Cooldown: time.Minute},
		Forecast: config.ForecastConfig{Every: 30 * time.Second},
	}

	signal := generator.NewSignal(generator.SignalOptions{
		BaseLevel:      100,
		NoiseAmplitude: 5,
		Seed:           1,
	}, zerolog.Nop())

	svc := service.New(cfg, nil, signal, nil, window.New(100), nil, nil, nil, zerolog.Nop())
	return NewServer(svc, Options{}, zerolog.Nop()), svc
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSnapshotEndpoint(t *testing.T) {
	server, svc := newTestServer(t)
	router := server.Router()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, svc.ProcessTick(ctx, time.Now().UTC()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.True(t, snap.Running)
	require.Len(t, snap.Samples, 1)
	require.Equal(t, 1, snap.Stats.Count)
}

func TestSalesEndpointDisabled(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sales", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPauseResumeEndpoints(t *testing.T) {
	server, svc := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/control/pause", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, svc.Running())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/control/resume", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.Running())
}

func TestParamsEndpoint(t *testing.T) {
	server, svc := newTestServer(t)
	router := server.Router()

	body := strings.NewReader(`{"base_level": 250, "noise_amplitude": 2}`)
	req := httptest.NewRequest(http.MethodPut, "/api/control/params", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := svc.SnapshotNow(time.Now().UTC())
	require.Equal(t, 250.0, snap.Params.BaseLevel)
	require.Equal(t, 2.0, snap.Params.NoiseAmplitude)
}

func TestParamsEndpointRejectsInvalid(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	body := strings.NewReader(`{"anomaly_probability": 2}`)
	req := httptest.NewRequest(http.MethodPut, "/api/control/params", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParamsEndpointRejectsBadInterval(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	body := strings.NewReader(`{"interval_seconds": 0.1}`)
	req := httptest.NewRequest(http.MethodPut, "/api/control/params", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
