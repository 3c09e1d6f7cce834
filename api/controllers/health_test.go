package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowncoffee/rown-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get(envHeader))
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	t.Run("all healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler := HealthReady(cfg, testLogger(), Dependency{Name: "redis", Pinger: stubPinger{}}, Dependency{Name: "db"})
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var envelope struct {
			Data struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
		assert.Equal(t, "ready", envelope.Data.Status)
		assert.Equal(t, dependencyOK, envelope.Data.Checks["redis"])
		assert.Equal(t, dependencyDisabled, envelope.Data.Checks["db"])
	})

	t.Run("dependency down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler := HealthReady(cfg, testLogger(), Dependency{Name: "redis", Pinger: stubPinger{err: errors.New("connection refused")}})
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
