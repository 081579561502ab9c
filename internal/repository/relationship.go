package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

// RelationshipQuery selects relationships touching NodeID. An empty
// NodeKind matches endpoints of any kind. AsSource and AsTarget choose
// which side NodeID must be on; both false matches nothing.
type RelationshipQuery struct {
	NodeID       uuid.UUID
	NodeKind     domain.NodeKind
	RelationType domain.RelationType
	AtTime       *time.Time
	AsSource     bool
	AsTarget     bool
}

func (r *Repository) CreateRelationship(ctx context.Context, source, target domain.NodeRef, relationType domain.RelationType, opts ...domain.RelationshipOption) (*domain.Relationship, error) {
	rel, err := domain.NewRelationship(source, target, relationType, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.storage.InsertRelationship(ctx, rel); err != nil {
		return nil, fmt.Errorf("creating relationship: %w", err)
	}
	return rel, nil
}

func (r *Repository) GetRelationship(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	return r.storage.GetRelationship(ctx, id)
}

func (r *Repository) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	return r.storage.DeleteRelationship(ctx, id)
}

// GetRelationships returns the relationships matching q. Source matches
// come before target matches; a self-loop appears once per side.
func (r *Repository) GetRelationships(ctx context.Context, q RelationshipQuery) ([]*domain.Relationship, error) {
	kinds := domain.NodeKinds()
	if q.NodeKind != "" {
		kinds = []domain.NodeKind{q.NodeKind}
	}

	var rels []*domain.Relationship
	if q.AsSource {
		for _, k := range kinds {
			found, err := r.storage.ListRelationshipsBySource(ctx, q.NodeID, k)
			if err != nil {
				return nil, fmt.Errorf("listing relationships: %w", err)
			}
			rels = append(rels, found...)
		}
	}
	if q.AsTarget {
		for _, k := range kinds {
			found, err := r.storage.ListRelationshipsByTarget(ctx, q.NodeID, k)
			if err != nil {
				return nil, fmt.Errorf("listing relationships: %w", err)
			}
			rels = append(rels, found...)
		}
	}

	out := make([]*domain.Relationship, 0, len(rels))
	for _, rel := range rels {
		if q.RelationType != "" && rel.RelationType != q.RelationType {
			continue
		}
		if q.AtTime != nil && !rel.ValidAt(*q.AtTime) {
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

// dropEdges deletes every relationship with id (of kind) at either end
// and, for events and entities, every link they take part in.
func (r *Repository) dropEdges(ctx context.Context, id uuid.UUID, kind domain.NodeKind) error {
	rels, err := r.GetRelationships(ctx, RelationshipQuery{NodeID: id, NodeKind: kind, AsSource: true, AsTarget: true})
	if err != nil {
		return err
	}
	for _, rel := range rels {
		if err := r.storage.DeleteRelationship(ctx, rel.ID); err != nil {
			return fmt.Errorf("deleting relationship %s: %w", rel.ID, err)
		}
	}

	switch kind {
	case domain.NodeEvent:
		links, err := r.storage.ListLinksByEvent(ctx, id)
		if err != nil {
			return err
		}
		for _, l := range links {
			if err := r.storage.DeleteEventEntityLink(ctx, l.EventID, l.EntityID, l.Role); err != nil {
				return err
			}
		}
	case domain.NodeEntity:
		links, err := r.storage.ListLinksByEntity(ctx, id)
		if err != nil {
			return err
		}
		for _, l := range links {
			if err := r.storage.DeleteEventEntityLink(ctx, l.EventID, l.EntityID, l.Role); err != nil {
				return err
			}
		}
	}
	return nil
}
