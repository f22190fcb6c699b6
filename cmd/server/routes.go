package main

import (
	"net/http"

	"github.com/JaimeStill/agent-forge/internal/api"
	"github.com/JaimeStill/agent-forge/internal/infrastructure"
)

func buildRouter(infra *infrastructure.Infrastructure, apiModule *api.API) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealthCheck)
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		handleReadinessCheck(w, r, infra)
	})
	mux.Handle("/api/", apiModule.Handler())

	return mux
}

// handleHealthCheck responds with OK status for health monitoring.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func handleReadinessCheck(w http.ResponseWriter, r *http.Request, infra *infrastructure.Infrastructure) {
	ready := infra.Lifecycle.Ready()
	if ready && infra.Database != nil {
		ready = infra.Database.Health(r.Context()) == nil
	}

	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
