// Package httpapi serves the dashboard's three read endpoints plus a
// liveness probe (§4.9): the JSON status snapshot, the generated CSS, and
// a per-monitor log tail, grounded on the original's axum route table and
// rewired onto go-chi/chi.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/status"
	"github.com/dmagro/probewall/internal/supervisor"
)

// statusDoc mirrors the original's top-level Status payload: the resolved
// config alongside every monitor's current state.
type statusDoc struct {
	Config   *config.Config         `json:"config"`
	Monitors []*status.MonitorState `json:"monitors"`
}

// NewRouter builds the chi router serving cfg/sup. version is reported by
// /healthz for operators correlating a running binary to a build.
func NewRouter(cfg *config.Config, sup *supervisor.Supervisor, version string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/status.json", statusHandler(cfg, sup))
	r.Get("/style.css", cssHandler(sup))
	r.Get("/log/{monitorID}", logHandler(sup))
	r.Get("/healthz", healthHandler(version))

	return r
}

func statusHandler(cfg *config.Config, sup *supervisor.Supervisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := statusDoc{Config: cfg, Monitors: sup.Status()}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			log.Error().Err(err).Msg("failed to encode status.json")
		}
	}
}

func cssHandler(sup *supervisor.Supervisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte(sup.CSS()))
	}
}

func logHandler(sup *supervisor.Supervisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "monitorID")
		m := sup.Find(id)
		if m == nil {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Not found"))
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(m.Status.Log.Tail()))
	}
}

func healthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version})
	}
}
