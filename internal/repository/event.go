package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"timelines/internal/domain"
	"timelines/internal/store"
)

const defaultNeighbourLimit = 100

// EventFilter narrows QueryEvents. Zero fields do not filter; a Limit of
// zero or less returns every match.
type EventFilter struct {
	Start         *time.Time
	End           *time.Time
	Types         []domain.EventType
	MinImportance decimal.Decimal
	DetailLevel   *int
	Limit         int
}

func (f EventFilter) match(e *domain.Event) bool {
	if f.Start != nil && e.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.Timestamp.After(*f.End) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.EventType) {
		return false
	}
	if e.ImportanceScore.LessThan(f.MinImportance) {
		return false
	}
	if f.DetailLevel != nil && e.DetailLevel != *f.DetailLevel {
		return false
	}
	return true
}

func (r *Repository) AddEvent(ctx context.Context, timelineID uuid.UUID, timestamp time.Time, eventType domain.EventType, description string, opts ...domain.EventOption) (*domain.Event, error) {
	e, err := domain.NewEvent(timelineID, timestamp, eventType, description, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.storage.InsertEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("adding event: %w", err)
	}
	return e, nil
}

func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return r.storage.GetEvent(ctx, id)
}

func (r *Repository) UpdateEvent(ctx context.Context, e *domain.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return r.storage.UpdateEvent(ctx, e)
}

// DeleteEvent removes the event, its entity links and every relationship
// that has it as an endpoint.
func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := r.dropEdges(ctx, id, domain.NodeEvent); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if r.vector != nil {
		if err := r.vector.DeleteVector(ctx, id); err != nil {
			return fmt.Errorf("deleting event embedding: %w", err)
		}
	}
	return r.storage.DeleteEvent(ctx, id)
}

// QueryEvents filters the timeline's events and returns them in ascending
// timestamp order, truncated to f.Limit.
func (r *Repository) QueryEvents(ctx context.Context, timelineID uuid.UUID, f EventFilter) ([]*domain.Event, error) {
	events, err := r.listEvents(ctx, timelineID, f.Start, f.End)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	out := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if f.match(e) {
			out = append(out, e)
		}
	}
	sortAscending(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

var (
	earliest = time.Time{}
	latest   = time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)
)

// listEvents returns the timeline's events, narrowed to [start, end] when
// the storage is an EventIndex and a bound is set. Storage without the index
// returns the whole timeline, so callers still filter exactly.
func (r *Repository) listEvents(ctx context.Context, timelineID uuid.UUID, start, end *time.Time) ([]*domain.Event, error) {
	idx, ok := r.storage.(store.EventIndex)
	if !ok || (start == nil && end == nil) {
		return r.storage.ListEventsByTimeline(ctx, timelineID)
	}
	lo, hi := earliest, latest
	if start != nil {
		lo = *start
	}
	if end != nil {
		hi = *end
	}
	return idx.ListEventsInRange(ctx, timelineID, lo, hi)
}

// GetEventsBefore returns events strictly before ts, newest first.
func (r *Repository) GetEventsBefore(ctx context.Context, timelineID uuid.UUID, ts time.Time, limit int) ([]*domain.Event, error) {
	events, err := r.storage.ListEventsByTimeline(ctx, timelineID)
	if err != nil {
		return nil, fmt.Errorf("listing events before %s: %w", ts, err)
	}
	out := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if e.Timestamp.Before(ts) {
			out = append(out, e)
		}
	}
	sortDescending(out)
	return truncate(out, limit), nil
}

// GetEventsAfter returns events strictly after ts, oldest first.
func (r *Repository) GetEventsAfter(ctx context.Context, timelineID uuid.UUID, ts time.Time, limit int) ([]*domain.Event, error) {
	events, err := r.storage.ListEventsByTimeline(ctx, timelineID)
	if err != nil {
		return nil, fmt.Errorf("listing events after %s: %w", ts, err)
	}
	out := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if e.Timestamp.After(ts) {
			out = append(out, e)
		}
	}
	sortAscending(out)
	return truncate(out, limit), nil
}

func sortAscending(events []*domain.Event) {
	slices.SortStableFunc(events, func(a, b *domain.Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

func sortDescending(events []*domain.Event) {
	slices.SortStableFunc(events, func(a, b *domain.Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

func truncate(events []*domain.Event, limit int) []*domain.Event {
	if limit <= 0 {
		limit = defaultNeighbourLimit
	}
	if len(events) > limit {
		return events[:limit]
	}
	return events
}
