package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/agent-forge/internal/api"
	"github.com/JaimeStill/agent-forge/internal/config"
	"github.com/JaimeStill/agent-forge/internal/infrastructure"
)

func TestRouter(t *testing.T) {
	cfg := &config.Config{Store: config.StoreMemory}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	apiModule, err := api.New(cfg, infra)
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}

	router := buildRouter(infra, apiModule)
	get := func(path string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	if code := get("/healthz"); code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", code)
	}
	if code := get("/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("readyz before startup = %d, want 503", code)
	}

	if err := apiModule.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	infra.Lifecycle.WaitForStartup()

	if code := get("/readyz"); code != http.StatusOK {
		t.Errorf("readyz after startup = %d, want 200", code)
	}
	if code := get("/api/tools"); code != http.StatusOK {
		t.Errorf("/api/tools = %d, want 200", code)
	}
}
