package cli

import (
	"fmt"

	coreapp "facet/internal/core/app"
	"facet/internal/core/config"
	"facet/internal/core/ports"
)

// projectionFactory builds the projection service for a loaded config. Tests
// swap it to inject failing or stub services without touching the runtime.
type projectionFactory interface {
	New(cfg *config.Config) (ports.ProjectionService, error)
}

type coreProjectionFactory struct{}

func (coreProjectionFactory) New(cfg *config.Config) (ports.ProjectionService, error) {
	app, err := coreapp.New(cfg)
	if err != nil {
		return nil, err
	}
	return coreapp.NewProjectionService(app), nil
}

func initializeProjection(factory projectionFactory, cfg *config.Config) (ports.ProjectionService, error) {
	if factory == nil {
		return nil, fmt.Errorf("projection factory is required")
	}
	return factory.New(cfg)
}
