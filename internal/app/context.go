package app

import (
	"context"
	"errors"
	"fmt"

	"mpdimport/internal/config"
	"mpdimport/internal/domain"
)

// ProjectLister lists the projects available in a record source.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]domain.SourceProject, error)
}

// ListerFunc adapts a function to ProjectLister.
type ListerFunc func(ctx context.Context) ([]domain.SourceProject, error)

func (f ListerFunc) ListProjects(ctx context.Context) ([]domain.SourceProject, error) {
	return f(ctx)
}

// ResolveProjectID picks the project to import. It prefers the override,
// then the only project held by the source.
func ResolveProjectID(ctx context.Context, override int, lister ProjectLister) (int, error) {
	if override > 0 {
		return override, nil
	}
	if lister == nil {
		return 0, errors.New("project not specified; use --project")
	}
	projects, err := lister.ListProjects(ctx)
	if err != nil {
		return 0, err
	}
	if len(projects) != 1 {
		return 0, fmt.Errorf("project not specified; use --project (source holds %d projects)", len(projects))
	}
	return projects[0].ID, nil
}

// ResolveConfig loads mpdimport.yml from the workspace, falling back to
// defaults when the file does not exist.
func ResolveConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default("")
	}
	return cfg, nil
}
