package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"timelines/internal/domain"
)

type EntityInput struct {
	ProjectID   uuid.UUID
	EntityType  domain.EntityType
	Name        string
	Description string
	Properties  domain.Properties
	Embedding   []float32
}

func (s *Service) CreateEntity(ctx context.Context, userID uuid.UUID, in EntityInput) (_ *domain.Entity, err error) {
	ctx, span := s.start(ctx, "CreateEntity", idAttr("project_id", in.ProjectID), attribute.String("entity_type", string(in.EntityType)))
	defer func() { finish(span, err) }()

	if _, err := s.ownedProject(ctx, userID, in.ProjectID); err != nil {
		return nil, err
	}
	e, err := s.repo.CreateEntity(ctx, in.ProjectID, in.EntityType, in.Name, in.Description, in.Properties)
	if err != nil {
		return nil, err
	}
	if len(in.Embedding) > 0 {
		if err := s.repo.IndexEntity(ctx, e.ID, e.ProjectID, in.Embedding); err != nil {
			return nil, err
		}
	}
	s.logger.Info("entity created",
		zap.Stringer("entity_id", e.ID),
		zap.Stringer("project_id", e.ProjectID),
		zap.String("entity_type", string(e.EntityType)),
		zap.String("name", e.Name))
	return e, nil
}

func (s *Service) GetEntity(ctx context.Context, id uuid.UUID) (_ *domain.Entity, err error) {
	ctx, span := s.start(ctx, "GetEntity", idAttr("entity_id", id))
	defer func() { finish(span, err) }()
	return s.requireEntity(ctx, id)
}

func (s *Service) ListEntities(ctx context.Context, projectID uuid.UUID, entityType domain.EntityType) (_ []*domain.Entity, err error) {
	ctx, span := s.start(ctx, "ListEntities", idAttr("project_id", projectID))
	defer func() { finish(span, err) }()
	return s.repo.ListEntities(ctx, projectID, entityType)
}

// FindEntity resolves an entity by name within a project.
func (s *Service) FindEntity(ctx context.Context, projectID uuid.UUID, name string) (_ *domain.Entity, err error) {
	ctx, span := s.start(ctx, "FindEntity", idAttr("project_id", projectID))
	defer func() { finish(span, err) }()

	e, err := s.repo.FindEntityByName(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("entity %q: %w", name, domain.ErrNotFound)
	}
	return e, nil
}
