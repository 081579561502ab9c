package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

const (
	defaultSearchLimit = 10

	metaType       = "type"
	metaTimelineID = "timeline_id"
	metaProjectID  = "project_id"
)

type ScoredEvent struct {
	Event *domain.Event
	Score float64
}

type ScoredEntity struct {
	Entity *domain.Entity
	Score  float64
}

// IndexEvent stores an externally computed embedding for an event. It is
// a no-op without a vector store.
func (r *Repository) IndexEvent(ctx context.Context, eventID, timelineID uuid.UUID, embedding []float32) error {
	if r.vector == nil {
		return nil
	}
	meta := map[string]string{metaType: string(domain.NodeEvent), metaTimelineID: timelineID.String()}
	if err := r.vector.InsertVector(ctx, eventID, embedding, meta); err != nil {
		return fmt.Errorf("indexing event %s: %w", eventID, err)
	}
	return nil
}

func (r *Repository) IndexEntity(ctx context.Context, entityID, projectID uuid.UUID, embedding []float32) error {
	if r.vector == nil {
		return nil
	}
	meta := map[string]string{metaType: string(domain.NodeEntity), metaProjectID: projectID.String()}
	if err := r.vector.InsertVector(ctx, entityID, embedding, meta); err != nil {
		return fmt.Errorf("indexing entity %s: %w", entityID, err)
	}
	return nil
}

// SearchSimilarEvents ranks indexed events by similarity to embedding.
// Matches whose event no longer exists are dropped. With more than one
// timeline the restriction is applied after the vector search, so fewer
// than limit results may come back.
func (r *Repository) SearchSimilarEvents(ctx context.Context, embedding []float32, timelineIDs []uuid.UUID, limit int) ([]ScoredEvent, error) {
	if r.vector == nil {
		return []ScoredEvent{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	filter := map[string]string{metaType: string(domain.NodeEvent)}
	allowed := map[uuid.UUID]struct{}{}
	switch len(timelineIDs) {
	case 0:
	case 1:
		filter[metaTimelineID] = timelineIDs[0].String()
	default:
		for _, id := range timelineIDs {
			allowed[id] = struct{}{}
		}
	}

	matches, err := r.vector.SearchVectors(ctx, embedding, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("searching similar events: %w", err)
	}
	out := make([]ScoredEvent, 0, len(matches))
	for _, m := range matches {
		e, err := r.storage.GetEvent(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("searching similar events: %w", err)
		}
		if e == nil {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[e.TimelineID]; !ok {
				continue
			}
		}
		out = append(out, ScoredEvent{Event: e, Score: m.Score})
	}
	return out, nil
}

func (r *Repository) SearchSimilarEntities(ctx context.Context, embedding []float32, projectID uuid.UUID, limit int) ([]ScoredEntity, error) {
	if r.vector == nil {
		return []ScoredEntity{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	filter := map[string]string{metaType: string(domain.NodeEntity)}
	if projectID != uuid.Nil {
		filter[metaProjectID] = projectID.String()
	}

	matches, err := r.vector.SearchVectors(ctx, embedding, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("searching similar entities: %w", err)
	}
	out := make([]ScoredEntity, 0, len(matches))
	for _, m := range matches {
		e, err := r.storage.GetEntity(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("searching similar entities: %w", err)
		}
		if e == nil {
			continue
		}
		out = append(out, ScoredEntity{Entity: e, Score: m.Score})
	}
	return out, nil
}
