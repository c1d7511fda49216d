package api

import (
	"github.com/verfahren/verfahren/internal/documents"
	"github.com/verfahren/verfahren/internal/engine"
	"github.com/verfahren/verfahren/internal/models"
	"github.com/verfahren/verfahren/internal/pipeline"
	"github.com/verfahren/verfahren/internal/prompts"
	"github.com/verfahren/verfahren/internal/ratings"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Models    models.System
	Ratings   ratings.System
	Prompts   prompts.System
	Pipeline  *pipeline.Runner
}

// NewDomain creates all domain systems from the API runtime and binds
// the pipeline runner to the application lifecycle.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	docsSystem := documents.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	modelsSystem := models.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	ratingsSystem := ratings.New(
		db,
		modelsSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	promptsSystem := prompts.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	runner := pipeline.NewRunner(
		docsSystem,
		modelsSystem,
		runtime.Storage,
		engine.New(runtime.Engine, promptsSystem, runtime.Logger),
		pipeline.NewStore(db, runtime.Logger),
		pipeline.NewBus(0),
		runtime.Logger,
	)
	runner.Start(runtime.Lifecycle)

	return &Domain{
		Documents: docsSystem,
		Models:    modelsSystem,
		Ratings:   ratingsSystem,
		Prompts:   promptsSystem,
		Pipeline:  runner,
	}
}
