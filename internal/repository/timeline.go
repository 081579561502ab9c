package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

func (r *Repository) CreateTimeline(ctx context.Context, projectID, userID uuid.UUID, name, description string, parentID *uuid.UUID, status domain.TimelineStatus) (*domain.Timeline, error) {
	t, err := domain.NewTimeline(projectID, userID, name, description, parentID, status)
	if err != nil {
		return nil, err
	}
	if err := r.storage.InsertTimeline(ctx, t); err != nil {
		return nil, fmt.Errorf("creating timeline: %w", err)
	}
	return t, nil
}

func (r *Repository) GetTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error) {
	return r.storage.GetTimeline(ctx, id)
}

// ListTimelines returns the project's timelines, restricted to direct
// children of parentID when it is set.
func (r *Repository) ListTimelines(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID) ([]*domain.Timeline, error) {
	timelines, err := r.storage.ListTimelinesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing timelines: %w", err)
	}
	if parentID == nil {
		return timelines, nil
	}
	out := timelines[:0]
	for _, t := range timelines {
		if t.ParentTimelineID != nil && *t.ParentTimelineID == *parentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Repository) GetTimelineChildren(ctx context.Context, id uuid.UUID) ([]*domain.Timeline, error) {
	return r.storage.ListTimelinesByParent(ctx, id)
}

func (r *Repository) UpdateTimeline(ctx context.Context, t *domain.Timeline) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.storage.UpdateTimeline(ctx, t)
}

// DeleteTimeline removes the timeline together with its events, snapshots
// and descendant timelines, and every relationship touching any of them.
func (r *Repository) DeleteTimeline(ctx context.Context, id uuid.UUID) error {
	if err := r.dropTimelineEdges(ctx, id); err != nil {
		return fmt.Errorf("deleting timeline: %w", err)
	}
	return r.storage.DeleteTimeline(ctx, id)
}

// GetTimelineTree walks parent to child edges from rootID, root first and
// depth-first. Timelines deeper than maxDepth are left out. A missing root
// yields an empty slice.
func (r *Repository) GetTimelineTree(ctx context.Context, rootID uuid.UUID, maxDepth int) ([]*domain.Timeline, error) {
	var out []*domain.Timeline
	var walk func(id uuid.UUID, depth int) error
	walk = func(id uuid.UUID, depth int) error {
		if depth > maxDepth {
			return nil
		}
		t, err := r.storage.GetTimeline(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return nil
		}
		out = append(out, t)

		children, err := r.storage.ListTimelinesByParent(ctx, id)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rootID, 0); err != nil {
		return nil, fmt.Errorf("walking timeline tree: %w", err)
	}
	if out == nil {
		out = []*domain.Timeline{}
	}
	return out, nil
}

// ForkTimeline branches a new timeline off sourceID and copies every
// source event at or before fromTimestamp into it. Relationships and
// entity links are not carried over. An empty status defaults to
// hypothetical.
func (r *Repository) ForkTimeline(ctx context.Context, sourceID uuid.UUID, branchName string, fromTimestamp time.Time, status domain.TimelineStatus) (*domain.Timeline, error) {
	source, err := r.storage.GetTimeline(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("forking timeline: %w", err)
	}
	if source == nil {
		return nil, domain.NotFound("timeline", sourceID)
	}
	if status == "" {
		status = domain.StatusHypothetical
	}

	fork, err := domain.NewTimeline(source.ProjectID, source.UserID, branchName,
		fmt.Sprintf("Fork of %s at %s", source.Name, fromTimestamp.UTC().Format(time.RFC3339)),
		&source.ID, status)
	if err != nil {
		return nil, err
	}

	events, err := r.storage.ListEventsByTimeline(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("forking timeline: %w", err)
	}
	copies := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if e.Timestamp.After(fromTimestamp) {
			continue
		}
		opts := []domain.EventOption{
			domain.WithImportance(e.ImportanceScore),
			domain.WithDetailLevel(e.DetailLevel),
			domain.WithStateDelta(e.StateDelta),
			domain.WithEventMetadata(e.Metadata),
		}
		if e.EndTimestamp != nil {
			opts = append(opts, domain.WithEndTimestamp(*e.EndTimestamp))
		}
		c, err := domain.NewEvent(fork.ID, e.Timestamp, e.EventType, e.Description, opts...)
		if err != nil {
			return nil, fmt.Errorf("copying event %s: %w", e.ID, err)
		}
		copies = append(copies, c)
	}

	if err := r.storage.InsertTimeline(ctx, fork); err != nil {
		return nil, fmt.Errorf("forking timeline: %w", err)
	}
	for _, c := range copies {
		if err := r.storage.InsertEvent(ctx, c); err != nil {
			return nil, fmt.Errorf("copying events into fork: %w", err)
		}
	}
	return fork, nil
}

// dropTimelineEdges removes relationships touching the timeline, its
// descendants, or any of their events.
func (r *Repository) dropTimelineEdges(ctx context.Context, id uuid.UUID) error {
	seen := map[uuid.UUID]struct{}{}
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, ok := seen[current]; ok {
			continue
		}
		seen[current] = struct{}{}

		if err := r.dropEdges(ctx, current, domain.NodeTimeline); err != nil {
			return err
		}
		events, err := r.storage.ListEventsByTimeline(ctx, current)
		if err != nil {
			return err
		}
		for _, e := range events {
			if err := r.dropEdges(ctx, e.ID, domain.NodeEvent); err != nil {
				return err
			}
		}
		children, err := r.storage.ListTimelinesByParent(ctx, current)
		if err != nil {
			return err
		}
		for _, c := range children {
			queue = append(queue, c.ID)
		}
	}
	return nil
}
