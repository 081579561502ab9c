package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

// CausalPath is one chain of causally linked events, starting at the
// traced event.
type CausalPath struct {
	Events []*domain.Event
}

// TraceCausality follows causal relationships from eventID, toward effects
// when forward is set and toward causes otherwise. A path is emitted each
// time the walk reaches an event with no further causal edges.
//
// The visited set spans the whole traversal, not a single path: once an
// event has been reached, later branches that arrive at it again stop
// there without emitting a path. Diamonds and cycles therefore yield fewer
// paths than a per-path walk would. Depth is counted from the start event
// at 0 and nodes beyond maxDepth are dropped silently.
func (r *Repository) TraceCausality(ctx context.Context, eventID uuid.UUID, maxDepth int, forward bool) ([]CausalPath, error) {
	visited := map[uuid.UUID]struct{}{}
	paths := []CausalPath{}

	var walk func(id uuid.UUID, depth int, path []*domain.Event) error
	walk = func(id uuid.UUID, depth int, path []*domain.Event) error {
		if depth > maxDepth {
			return nil
		}
		if _, ok := visited[id]; ok {
			return nil
		}
		visited[id] = struct{}{}

		event, err := r.storage.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		current := append(append(make([]*domain.Event, 0, len(path)+1), path...), event)

		var rels []*domain.Relationship
		if forward {
			rels, err = r.storage.ListRelationshipsBySource(ctx, id, domain.NodeEvent)
		} else {
			rels, err = r.storage.ListRelationshipsByTarget(ctx, id, domain.NodeEvent)
		}
		if err != nil {
			return err
		}

		next := make([]uuid.UUID, 0, len(rels))
		for _, rel := range rels {
			if rel.RelationType != domain.RelationCausal {
				continue
			}
			if forward {
				next = append(next, rel.TargetID)
			} else {
				next = append(next, rel.SourceID)
			}
		}
		if len(next) == 0 {
			paths = append(paths, CausalPath{Events: current})
			return nil
		}
		for _, n := range next {
			if err := walk(n, depth+1, current); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(eventID, 0, nil); err != nil {
		return nil, fmt.Errorf("tracing causality from %s: %w", eventID, err)
	}
	return paths, nil
}
