package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Luksow29/classic-offset-backend/api/responses"
	"github.com/Luksow29/classic-offset-backend/pkg/config"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 3 * time.Second

// Healthz reports liveness plus dependency readiness.
func Healthz(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status := map[string]string{"status": "ok", "env": cfg.App.Env}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				status["db"] = "down"
				healthy = false
				if logg != nil {
					logg.Warn(ctx, "health check: db unreachable: "+err.Error())
				}
			} else {
				status["db"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				status["redis"] = "down"
				healthy = false
				if logg != nil {
					logg.Warn(ctx, "health check: redis unreachable: "+err.Error())
				}
			} else {
				status["redis"] = "ok"
			}
		}

		if !healthy {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
