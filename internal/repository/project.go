package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

func (r *Repository) CreateProject(ctx context.Context, userID uuid.UUID, name, description string, metadata domain.Properties) (*domain.Project, error) {
	p, err := domain.NewProject(userID, name, description, metadata)
	if err != nil {
		return nil, err
	}
	if err := r.storage.InsertProject(ctx, p); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return r.storage.GetProject(ctx, id)
}

func (r *Repository) ListUserProjects(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	return r.storage.ListProjectsByUser(ctx, userID)
}

func (r *Repository) UpdateProject(ctx context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.storage.UpdateProject(ctx, p)
}

// DeleteProject removes the project and, through the storage cascade,
// its timelines and entities.
func (r *Repository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	timelines, err := r.storage.ListTimelinesByProject(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	for _, t := range timelines {
		if err := r.dropTimelineEdges(ctx, t.ID); err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}
	}
	entities, err := r.storage.ListEntitiesByProject(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	for _, e := range entities {
		if err := r.dropEdges(ctx, e.ID, domain.NodeEntity); err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}
	}
	return r.storage.DeleteProject(ctx, id)
}
