package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

func (r *Repository) CreateEntity(ctx context.Context, projectID uuid.UUID, entityType domain.EntityType, name, description string, properties domain.Properties) (*domain.Entity, error) {
	e, err := domain.NewEntity(projectID, entityType, name, description, properties)
	if err != nil {
		return nil, err
	}
	if err := r.storage.InsertEntity(ctx, e); err != nil {
		return nil, fmt.Errorf("creating entity: %w", err)
	}
	return e, nil
}

func (r *Repository) GetEntity(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	return r.storage.GetEntity(ctx, id)
}

// ListEntities returns the project's entities, optionally only those of
// entityType.
func (r *Repository) ListEntities(ctx context.Context, projectID uuid.UUID, entityType domain.EntityType) ([]*domain.Entity, error) {
	entities, err := r.storage.ListEntitiesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	if entityType == "" {
		return entities, nil
	}
	out := entities[:0]
	for _, e := range entities {
		if e.EntityType == entityType {
			out = append(out, e)
		}
	}
	return out, nil
}

// FindEntityByName does a case-insensitive name lookup within a project.
// It returns (nil, nil) when nothing matches.
func (r *Repository) FindEntityByName(ctx context.Context, projectID uuid.UUID, name string) (*domain.Entity, error) {
	entities, err := r.storage.ListEntitiesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("finding entity %q: %w", name, err)
	}
	name = strings.TrimSpace(name)
	for _, e := range entities {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return nil, nil
}

func (r *Repository) UpdateEntity(ctx context.Context, e *domain.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return r.storage.UpdateEntity(ctx, e)
}

// DeleteEntity removes the entity, its event links and every relationship
// that has it as an endpoint.
func (r *Repository) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	if err := r.dropEdges(ctx, id, domain.NodeEntity); err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	if r.vector != nil {
		if err := r.vector.DeleteVector(ctx, id); err != nil {
			return fmt.Errorf("deleting entity embedding: %w", err)
		}
	}
	return r.storage.DeleteEntity(ctx, id)
}
