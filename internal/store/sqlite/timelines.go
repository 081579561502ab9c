package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

const timelineColumns = `id, project_id, user_id, name, description, parent_timeline_id, status, metadata, created_at`

func (c *Client) InsertTimeline(ctx context.Context, t *domain.Timeline) error {
	metadata, err := encodeJSON(t.Metadata)
	if err != nil {
		return fmt.Errorf("inserting timeline: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO timelines (`+timelineColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.UserID, t.Name, nullString(t.Description),
		encodeOptID(t.ParentTimelineID), string(t.Status), metadata, encodeTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting timeline: %w", err)
	}
	return nil
}

func (c *Client) GetTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+timelineColumns+` FROM timelines WHERE id = ?`, id)
	t, err := scanTimeline(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting timeline: %w", err)
	}
	return t, nil
}

func (c *Client) ListTimelinesByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Timeline, error) {
	return c.listTimelines(ctx, `WHERE project_id = ?`, projectID)
}

func (c *Client) ListTimelinesByParent(ctx context.Context, parentID uuid.UUID) ([]*domain.Timeline, error) {
	return c.listTimelines(ctx, `WHERE parent_timeline_id = ?`, parentID)
}

func (c *Client) listTimelines(ctx context.Context, where string, key uuid.UUID) ([]*domain.Timeline, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+timelineColumns+` FROM timelines `+where+` ORDER BY created_at`, key)
	if err != nil {
		return nil, fmt.Errorf("listing timelines: %w", err)
	}
	defer rows.Close()

	timelines := make([]*domain.Timeline, 0)
	for rows.Next() {
		t, err := scanTimeline(rows)
		if err != nil {
			return nil, fmt.Errorf("listing timelines: %w", err)
		}
		timelines = append(timelines, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing timelines: %w", err)
	}
	return timelines, nil
}

func (c *Client) UpdateTimeline(ctx context.Context, t *domain.Timeline) error {
	metadata, err := encodeJSON(t.Metadata)
	if err != nil {
		return fmt.Errorf("updating timeline: %w", err)
	}
	ok, err := execAffected(c.db.ExecContext(ctx, `
	UPDATE timelines
	SET project_id = ?, user_id = ?, name = ?, description = ?, parent_timeline_id = ?, status = ?, metadata = ?
	WHERE id = ?`,
		t.ProjectID, t.UserID, t.Name, nullString(t.Description),
		encodeOptID(t.ParentTimelineID), string(t.Status), metadata, t.ID,
	))
	if err != nil {
		return fmt.Errorf("updating timeline: %w", err)
	}
	if !ok {
		return domain.NotFound("timeline", t.ID)
	}
	return nil
}

func (c *Client) DeleteTimeline(ctx context.Context, id uuid.UUID) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM timelines WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting timeline: %w", err)
	}
	return nil
}

func scanTimeline(row rowScanner) (*domain.Timeline, error) {
	var (
		t           domain.Timeline
		description sql.NullString
		parent      sql.NullString
		status      string
		metadata    string
		createdAt   string
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.UserID, &t.Name, &description, &parent, &status, &metadata, &createdAt); err != nil {
		return nil, err
	}
	t.Description = description.String
	t.Status = domain.TimelineStatus(status)

	var err error
	if t.ParentTimelineID, err = decodeOptID(parent); err != nil {
		return nil, err
	}
	if err := decodeJSON(metadata, &t.Metadata); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}
