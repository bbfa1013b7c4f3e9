package router

import (
	"net/http"

	"github.com/shandysiswandi/gostore/internal/pkg/config"
)

// middlewareMaintenance answers 503 while app.maintenance.enabled is set, or
// for routes listed in app.maintenance.endpoints. Both are read per request
// so a config reload takes effect immediately.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil && underMaintenance(cfg, matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func underMaintenance(cfg config.Config, route string) bool {
	if route == "/health" {
		return false
	}
	if cfg.GetBool("app.maintenance.enabled") {
		return true
	}
	for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
		if endpoint == route {
			return true
		}
	}
	return false
}
