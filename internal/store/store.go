// Package store defines the persistence ports consumed by the repository.
//
// Storage is deliberately pure CRUD: insert, get by id, list by a single
// indexed key, full-record update and delete. Filtering, sorting and joins
// happen above this layer. Get methods return (nil, nil) when no record has
// the requested id.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

type Storage interface {
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error

	InsertProject(ctx context.Context, p *domain.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)
	UpdateProject(ctx context.Context, p *domain.Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error

	InsertTimeline(ctx context.Context, t *domain.Timeline) error
	GetTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error)
	ListTimelinesByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Timeline, error)
	ListTimelinesByParent(ctx context.Context, parentID uuid.UUID) ([]*domain.Timeline, error)
	UpdateTimeline(ctx context.Context, t *domain.Timeline) error
	DeleteTimeline(ctx context.Context, id uuid.UUID) error

	InsertEvent(ctx context.Context, e *domain.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListEventsByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*domain.Event, error)
	UpdateEvent(ctx context.Context, e *domain.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	InsertEntity(ctx context.Context, e *domain.Entity) error
	GetEntity(ctx context.Context, id uuid.UUID) (*domain.Entity, error)
	ListEntitiesByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Entity, error)
	UpdateEntity(ctx context.Context, e *domain.Entity) error
	DeleteEntity(ctx context.Context, id uuid.UUID) error

	InsertRelationship(ctx context.Context, r *domain.Relationship) error
	GetRelationship(ctx context.Context, id uuid.UUID) (*domain.Relationship, error)
	ListRelationshipsBySource(ctx context.Context, sourceID uuid.UUID, kind domain.NodeKind) ([]*domain.Relationship, error)
	ListRelationshipsByTarget(ctx context.Context, targetID uuid.UUID, kind domain.NodeKind) ([]*domain.Relationship, error)
	UpdateRelationship(ctx context.Context, r *domain.Relationship) error
	DeleteRelationship(ctx context.Context, id uuid.UUID) error

	InsertSnapshot(ctx context.Context, s *domain.StateSnapshot) error
	GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.StateSnapshot, error)
	ListSnapshotsByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*domain.StateSnapshot, error)
	DeleteSnapshot(ctx context.Context, id uuid.UUID) error

	// InsertEventEntityLink is idempotent on the (event, entity, role) triple.
	InsertEventEntityLink(ctx context.Context, l *domain.EventEntityLink) error
	ListLinksByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.EventEntityLink, error)
	ListLinksByEntity(ctx context.Context, entityID uuid.UUID) ([]*domain.EventEntityLink, error)
	// DeleteEventEntityLink removes the link with the given role, or every
	// link between the pair when role is empty.
	DeleteEventEntityLink(ctx context.Context, eventID, entityID uuid.UUID, role string) error
}

// EventIndex is an optional capability a Storage may also implement to
// answer time-window lookups without a full timeline scan. Both bounds are
// inclusive. The repository uses it for windowed event queries and state
// replay when the storage provides it.
type EventIndex interface {
	ListEventsInRange(ctx context.Context, timelineID uuid.UUID, start, end time.Time) ([]*domain.Event, error)
}

// VectorMatch is one similarity search hit. Higher scores are closer.
type VectorMatch struct {
	ID    uuid.UUID
	Score float64
}

// VectorRecord is a stored embedding and its metadata.
type VectorRecord struct {
	ID        uuid.UUID
	Embedding []float32
	Metadata  map[string]string
}

type VectorStore interface {
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error

	InsertVector(ctx context.Context, id uuid.UUID, embedding []float32, metadata map[string]string) error
	// SearchVectors returns matches ranked by descending score. A non-empty
	// filter keeps only records whose metadata contains every pair.
	SearchVectors(ctx context.Context, query []float32, limit int, filter map[string]string) ([]VectorMatch, error)
	GetVector(ctx context.Context, id uuid.UUID) (*VectorRecord, error)
	DeleteVector(ctx context.Context, id uuid.UUID) error
}

// MatchesFilter reports whether metadata contains every filter pair.
func MatchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
