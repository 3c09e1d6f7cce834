package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rowncoffee/rown-backend/api/responses"
	"github.com/rowncoffee/rown-backend/pkg/config"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
)

const (
	envHeader          = "X-Rown-Env"
	readyCheckTimeout  = 2 * time.Second
	dependencyOK       = "ok"
	dependencyDisabled = "disabled"
)

// Pinger is a dependency checked by the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency names a readiness check. A nil Pinger reports the dependency as disabled.
type Dependency struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and fails with 503 when any configured one is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		var failed []string
		for _, dep := range deps {
			if dep.Pinger == nil {
				checks[dep.Name] = dependencyDisabled
				continue
			}
			if err := dep.Pinger.Ping(ctx); err != nil {
				checks[dep.Name] = err.Error()
				failed = append(failed, dep.Name)
				continue
			}
			checks[dep.Name] = dependencyOK
		}

		if len(failed) > 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(map[string]any{
				"failed": failed,
				"checks": checks,
			}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
