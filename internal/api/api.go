// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/verfahren/verfahren/internal/config"
	"github.com/verfahren/verfahren/internal/infrastructure"
	"github.com/verfahren/verfahren/pkg/middleware"
	"github.com/verfahren/verfahren/pkg/module"
	"github.com/verfahren/verfahren/pkg/openapi"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	spec, err := specBytes(cfg)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}
