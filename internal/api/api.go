// Package api assembles the HTTP surface of the service: domain systems,
// their route groups, and the middleware stack.
package api

import (
	"net/http"

	"github.com/JaimeStill/agent-forge/internal/config"
	"github.com/JaimeStill/agent-forge/internal/infrastructure"
	"github.com/JaimeStill/agent-forge/pkg/middleware"
)

// API is the assembled HTTP module.
type API struct {
	runtime *Runtime
	domain  *Domain
	handler http.Handler
}

// New creates the domain systems and wraps their routes in the middleware stack.
func New(cfg *config.Config, infra *infrastructure.Infrastructure) (*API, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime, cfg)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, runtime, domain)

	handler := middleware.Chain(
		mux,
		middleware.TrimSlash(),
		middleware.Logger(runtime.Logger),
		middleware.CORS(&cfg.CORS),
	)

	return &API{
		runtime: runtime,
		domain:  domain,
		handler: handler,
	}, nil
}

// Handler returns the routed and wrapped HTTP handler.
func (a *API) Handler() http.Handler {
	return a.handler
}

// Domain exposes the domain systems.
func (a *API) Domain() *Domain {
	return a.domain
}

// Start loads domain state once infrastructure is up. The load runs as a
// lifecycle startup hook so readiness waits on it.
func (a *API) Start() error {
	errc := make(chan error, 1)
	lc := a.runtime.Lifecycle

	lc.OnStartup(func() {
		errc <- a.domain.Start(lc.Context())
	})

	return <-errc
}
