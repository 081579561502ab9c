package validate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
	"timelines/internal/store"
)

// snapshot of a project's reference graph
type scanResult struct {
	entities        []*domain.Entity
	entityByID      map[uuid.UUID]*domain.Entity
	orphanTimelines []*domain.Timeline
	// live links, both ends present
	links                 []*domain.EventEntityLink
	danglingLinks         []*domain.EventEntityLink
	danglingRelationships []*domain.Relationship
	// entities with at least one link or relationship
	connected map[uuid.UUID]bool
}

func scan(ctx context.Context, st store.Storage, projectID uuid.UUID) (*scanResult, error) {
	timelines, err := st.ListTimelinesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list timelines: %w", err)
	}
	entities, err := st.ListEntitiesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	s := &scanResult{
		entities:   entities,
		entityByID: make(map[uuid.UUID]*domain.Entity, len(entities)),
		connected:  make(map[uuid.UUID]bool),
	}
	for _, e := range entities {
		s.entityByID[e.ID] = e
	}

	nodes := make(map[domain.NodeRef]bool)
	timelineIDs := make(map[uuid.UUID]bool, len(timelines))
	for _, t := range timelines {
		timelineIDs[t.ID] = true
		nodes[domain.TimelineRef(t.ID)] = true
	}
	for _, t := range timelines {
		if t.ParentTimelineID != nil && !timelineIDs[*t.ParentTimelineID] {
			s.orphanTimelines = append(s.orphanTimelines, t)
		}
	}

	var events []*domain.Event
	for _, t := range timelines {
		found, err := st.ListEventsByTimeline(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("list events of %s: %w", t.Name, err)
		}
		events = append(events, found...)
	}
	eventIDs := make(map[uuid.UUID]bool, len(events))
	for _, e := range events {
		eventIDs[e.ID] = true
		nodes[domain.EventRef(e.ID)] = true
	}
	for _, e := range entities {
		nodes[domain.EntityRef(e.ID)] = true
	}

	type linkKey struct {
		event, entity uuid.UUID
		role          string
	}
	seenLinks := make(map[linkKey]bool)
	addLink := func(l *domain.EventEntityLink) {
		key := linkKey{l.EventID, l.EntityID, l.Role}
		if seenLinks[key] {
			return
		}
		seenLinks[key] = true
		if eventIDs[l.EventID] && s.entityByID[l.EntityID] != nil {
			s.links = append(s.links, l)
			s.connected[l.EntityID] = true
			return
		}
		s.danglingLinks = append(s.danglingLinks, l)
	}
	for _, e := range events {
		links, err := st.ListLinksByEvent(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("list links of event %s: %w", e.ID, err)
		}
		for _, l := range links {
			addLink(l)
		}
	}
	for _, e := range entities {
		links, err := st.ListLinksByEntity(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("list links of entity %s: %w", e.ID, err)
		}
		for _, l := range links {
			addLink(l)
		}
	}

	seenRels := make(map[uuid.UUID]bool)
	for node := range nodes {
		bySource, err := st.ListRelationshipsBySource(ctx, node.ID, node.Kind)
		if err != nil {
			return nil, fmt.Errorf("list relationships of %s: %w", node.ID, err)
		}
		byTarget, err := st.ListRelationshipsByTarget(ctx, node.ID, node.Kind)
		if err != nil {
			return nil, fmt.Errorf("list relationships of %s: %w", node.ID, err)
		}
		for _, r := range append(bySource, byTarget...) {
			if seenRels[r.ID] {
				continue
			}
			seenRels[r.ID] = true
			source := domain.NodeRef{ID: r.SourceID, Kind: r.SourceKind}
			target := domain.NodeRef{ID: r.TargetID, Kind: r.TargetKind}
			if !nodes[source] || !nodes[target] {
				s.danglingRelationships = append(s.danglingRelationships, r)
				continue
			}
			if r.SourceKind == domain.NodeEntity {
				s.connected[r.SourceID] = true
			}
			if r.TargetKind == domain.NodeEntity {
				s.connected[r.TargetID] = true
			}
		}
	}

	return s, nil
}
