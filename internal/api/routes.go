package api

import (
	"net/http"

	"github.com/JaimeStill/agent-forge/internal/agents"
	"github.com/JaimeStill/agent-forge/internal/providers"
	"github.com/JaimeStill/agent-forge/internal/specs"
	"github.com/JaimeStill/agent-forge/internal/templates"
	"github.com/JaimeStill/agent-forge/internal/tools"
	"github.com/JaimeStill/agent-forge/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, runtime *Runtime, domain *Domain) {
	toolsHandler := tools.NewHandler(domain.Tools, runtime.Logger)
	specsHandler := specs.NewHandler(domain.Validator, runtime.Logger, runtime.MaxSpecSize)
	agentsHandler := agents.NewHandler(
		domain.Agents,
		domain.Validator,
		runtime.Logger,
		runtime.Pagination,
		runtime.MaxSpecSize,
	)
	providersHandler := providers.NewHandler(domain.Providers, runtime.Logger)
	templatesHandler := templates.NewHandler(
		domain.Templates,
		domain.Validator,
		domain.Agents,
		runtime.Logger,
		runtime.MaxSpecSize,
	)

	routes.Register(
		mux,
		toolsHandler.Routes(),
		specsHandler.Routes(),
		agentsHandler.Routes(),
		providersHandler.Routes(),
		templatesHandler.Routes(),
	)
}
