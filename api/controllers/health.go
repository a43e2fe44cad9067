package controllers

import (
	"net/http"

	"github.com/sweetcrumb/bakeshop-backend/api/responses"
	"github.com/sweetcrumb/bakeshop-backend/pkg/config"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db"
	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
	"github.com/sweetcrumb/bakeshop-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bakeshop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the datastore and session store before reporting
// ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bakeshop-Env", cfg.App.Env)
		for _, pinger := range pingers {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
