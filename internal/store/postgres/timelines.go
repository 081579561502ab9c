package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"timelines/internal/domain"
)

const timelineColumns = `id, project_id, user_id, name, description, parent_timeline_id, status, metadata, created_at`

func (c *Client) InsertTimeline(ctx context.Context, t *domain.Timeline) error {
	metadata, err := marshalColumn(t.Metadata)
	if err != nil {
		return fmt.Errorf("inserting timeline: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO timelines (`+timelineColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.ProjectID, t.UserID, t.Name, optText(t.Description), t.ParentTimelineID,
		string(t.Status), metadata, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting timeline: %w", err)
	}
	return nil
}

func (c *Client) GetTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error) {
	t, err := queryOne(ctx, c.pool, scanTimeline, `SELECT `+timelineColumns+` FROM timelines WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting timeline: %w", err)
	}
	return t, nil
}

func (c *Client) ListTimelinesByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Timeline, error) {
	timelines, err := queryAll(ctx, c.pool, scanTimeline, `SELECT `+timelineColumns+` FROM timelines WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing timelines: %w", err)
	}
	return timelines, nil
}

func (c *Client) ListTimelinesByParent(ctx context.Context, parentID uuid.UUID) ([]*domain.Timeline, error) {
	timelines, err := queryAll(ctx, c.pool, scanTimeline, `SELECT `+timelineColumns+` FROM timelines WHERE parent_timeline_id = $1 ORDER BY created_at`, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing child timelines: %w", err)
	}
	return timelines, nil
}

func (c *Client) UpdateTimeline(ctx context.Context, t *domain.Timeline) error {
	metadata, err := marshalColumn(t.Metadata)
	if err != nil {
		return fmt.Errorf("updating timeline: %w", err)
	}
	ok, err := execOne(ctx, c.pool, `
UPDATE timelines
SET project_id = $2, user_id = $3, name = $4, description = $5, parent_timeline_id = $6, status = $7, metadata = $8
WHERE id = $1`,
		t.ID, t.ProjectID, t.UserID, t.Name, optText(t.Description), t.ParentTimelineID, string(t.Status), metadata)
	if err != nil {
		return fmt.Errorf("updating timeline: %w", err)
	}
	if !ok {
		return domain.NotFound("timeline", t.ID)
	}
	return nil
}

func (c *Client) DeleteTimeline(ctx context.Context, id uuid.UUID) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM timelines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting timeline: %w", err)
	}
	return nil
}

func scanTimeline(row pgx.Row) (*domain.Timeline, error) {
	var (
		t           domain.Timeline
		description *string
		status      string
		metadata    []byte
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.UserID, &t.Name, &description, &t.ParentTimelineID,
		&status, &metadata, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if description != nil {
		t.Description = *description
	}
	t.Status = domain.TimelineStatus(status)
	if err := unmarshalColumn(metadata, &t.Metadata); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}
