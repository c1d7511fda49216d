package api

import (
	"net/http"

	"github.com/verfahren/verfahren/internal/config"
	"github.com/verfahren/verfahren/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	storage := newStorageHandler(
		runtime.Storage,
		runtime.Logger,
		cfg.Storage.MaxListSize,
	)

	groups := []routes.Group{
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Models.Handler().Routes(),
		domain.Ratings.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		storage.routes(),
	}
	groups = append(groups, domain.Pipeline.Handler().Routes()...)

	routes.Register(mux, groups...)
}
