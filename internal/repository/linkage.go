package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

// EntityRole is an entity as it participates in one event.
type EntityRole struct {
	Entity *domain.Entity
	Role   string
}

// EntityEventFilter narrows GetEntityEvents. Zero fields do not filter.
type EntityEventFilter struct {
	Start *time.Time
	End   *time.Time
	Role  string
}

func (r *Repository) LinkEventEntity(ctx context.Context, eventID, entityID uuid.UUID, role string) error {
	l, err := domain.NewEventEntityLink(eventID, entityID, role)
	if err != nil {
		return err
	}
	if err := r.storage.InsertEventEntityLink(ctx, l); err != nil {
		return fmt.Errorf("linking event %s to entity %s: %w", eventID, entityID, err)
	}
	return nil
}

// UnlinkEventEntity removes the link in role, or every link between the
// pair when role is empty.
func (r *Repository) UnlinkEventEntity(ctx context.Context, eventID, entityID uuid.UUID, role string) error {
	if err := r.storage.DeleteEventEntityLink(ctx, eventID, entityID, domain.NormalizeRole(role)); err != nil {
		return fmt.Errorf("unlinking event %s from entity %s: %w", eventID, entityID, err)
	}
	return nil
}

// GetEventEntities returns the entities linked to an event. Links whose
// entity no longer exists are skipped.
func (r *Repository) GetEventEntities(ctx context.Context, eventID uuid.UUID) ([]EntityRole, error) {
	links, err := r.storage.ListLinksByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing event entities: %w", err)
	}
	out := make([]EntityRole, 0, len(links))
	for _, l := range links {
		e, err := r.storage.GetEntity(ctx, l.EntityID)
		if err != nil {
			return nil, fmt.Errorf("listing event entities: %w", err)
		}
		if e == nil {
			continue
		}
		out = append(out, EntityRole{Entity: e, Role: l.Role})
	}
	return out, nil
}

// GetEntityEvents returns events on timelineID linked to entityID, in
// ascending timestamp order.
func (r *Repository) GetEntityEvents(ctx context.Context, entityID, timelineID uuid.UUID, f EntityEventFilter) ([]*domain.Event, error) {
	ids, err := r.entityEventIDs(ctx, entityID, domain.NormalizeRole(f.Role))
	if err != nil {
		return nil, err
	}
	events, err := r.storage.ListEventsByTimeline(ctx, timelineID)
	if err != nil {
		return nil, fmt.Errorf("listing entity events: %w", err)
	}
	out := make([]*domain.Event, 0, len(ids))
	for _, e := range events {
		if _, ok := ids[e.ID]; !ok {
			continue
		}
		if f.Start != nil && e.Timestamp.Before(*f.Start) {
			continue
		}
		if f.End != nil && e.Timestamp.After(*f.End) {
			continue
		}
		out = append(out, e)
	}
	sortAscending(out)
	return out, nil
}

func (r *Repository) GetEventsAtLocation(ctx context.Context, locationID, timelineID uuid.UUID, start, end *time.Time) ([]*domain.Event, error) {
	return r.GetEntityEvents(ctx, locationID, timelineID, EntityEventFilter{Start: start, End: end, Role: domain.RoleLocation})
}

// GetEventsWithEntities returns events involving all (matchAll) or any of
// the given entities, in ascending timestamp order. An empty entity list
// yields an empty result.
func (r *Repository) GetEventsWithEntities(ctx context.Context, entityIDs []uuid.UUID, timelineID uuid.UUID, matchAll bool, start, end *time.Time) ([]*domain.Event, error) {
	if len(entityIDs) == 0 {
		return []*domain.Event{}, nil
	}

	unique := dedupe(entityIDs)
	counts := map[uuid.UUID]int{}
	for _, entityID := range unique {
		events, err := r.GetEntityEvents(ctx, entityID, timelineID, EntityEventFilter{Start: start, End: end})
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			counts[e.ID]++
		}
	}

	want := 1
	if matchAll {
		want = len(unique)
	}
	events, err := r.storage.ListEventsByTimeline(ctx, timelineID)
	if err != nil {
		return nil, fmt.Errorf("listing events with entities: %w", err)
	}
	out := make([]*domain.Event, 0, len(counts))
	for _, e := range events {
		if counts[e.ID] >= want {
			out = append(out, e)
		}
	}
	sortAscending(out)
	return out, nil
}

func (r *Repository) entityEventIDs(ctx context.Context, entityID uuid.UUID, role string) (map[uuid.UUID]struct{}, error) {
	links, err := r.storage.ListLinksByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing entity links: %w", err)
	}
	ids := make(map[uuid.UUID]struct{}, len(links))
	for _, l := range links {
		if role != "" && l.Role != role {
			continue
		}
		ids[l.EventID] = struct{}{}
	}
	return ids, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
