package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"timelines/internal/domain"
	"timelines/internal/repository"
)

// Repository is the part of the timeline repository ingest writes through.
type Repository interface {
	ListUserProjects(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)
	CreateProject(ctx context.Context, userID uuid.UUID, name, description string, metadata domain.Properties) (*domain.Project, error)

	ListTimelines(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID) ([]*domain.Timeline, error)
	CreateTimeline(ctx context.Context, projectID, userID uuid.UUID, name, description string, parentID *uuid.UUID, status domain.TimelineStatus) (*domain.Timeline, error)

	ListEntities(ctx context.Context, projectID uuid.UUID, entityType domain.EntityType) ([]*domain.Entity, error)
	CreateEntity(ctx context.Context, projectID uuid.UUID, entityType domain.EntityType, name, description string, properties domain.Properties) (*domain.Entity, error)
	UpdateEntity(ctx context.Context, e *domain.Entity) error
	DeleteEntity(ctx context.Context, id uuid.UUID) error

	QueryEvents(ctx context.Context, timelineID uuid.UUID, f repository.EventFilter) ([]*domain.Event, error)
	AddEvent(ctx context.Context, timelineID uuid.UUID, timestamp time.Time, eventType domain.EventType, description string, opts ...domain.EventOption) (*domain.Event, error)
	UpdateEvent(ctx context.Context, e *domain.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	LinkEventEntity(ctx context.Context, eventID, entityID uuid.UUID, role string) error
	UnlinkEventEntity(ctx context.Context, eventID, entityID uuid.UUID, role string) error
	GetEventEntities(ctx context.Context, eventID uuid.UUID) ([]repository.EntityRole, error)

	CreateRelationship(ctx context.Context, source, target domain.NodeRef, relationType domain.RelationType, opts ...domain.RelationshipOption) (*domain.Relationship, error)
	GetRelationships(ctx context.Context, q repository.RelationshipQuery) ([]*domain.Relationship, error)
	DeleteRelationship(ctx context.Context, id uuid.UUID) error
}

var _ Repository = (*repository.Repository)(nil)
