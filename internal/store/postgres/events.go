package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"timelines/internal/domain"
)

const eventColumns = `id, timeline_id, timestamp, end_timestamp, event_type, description, importance_score, detail_level, state_delta, metadata, created_at`

func (c *Client) InsertEvent(ctx context.Context, e *domain.Event) error {
	delta, metadata, err := eventColumnsJSON(e)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO events (`+eventColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.TimelineID, e.Timestamp, e.EndTimestamp, string(e.EventType), e.Description,
		e.ImportanceScore, e.DetailLevel, delta, metadata, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (c *Client) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	e, err := queryOne(ctx, c.pool, scanEvent, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return e, nil
}

func (c *Client) ListEventsByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*domain.Event, error) {
	events, err := queryAll(ctx, c.pool, scanEvent, `SELECT `+eventColumns+` FROM events WHERE timeline_id = $1`, timelineID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

func (c *Client) UpdateEvent(ctx context.Context, e *domain.Event) error {
	delta, metadata, err := eventColumnsJSON(e)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	ok, err := execOne(ctx, c.pool, `
UPDATE events
SET timeline_id = $2, timestamp = $3, end_timestamp = $4, event_type = $5, description = $6,
    importance_score = $7, detail_level = $8, state_delta = $9, metadata = $10
WHERE id = $1`,
		e.ID, e.TimelineID, e.Timestamp, e.EndTimestamp, string(e.EventType), e.Description,
		e.ImportanceScore, e.DetailLevel, delta, metadata)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	if !ok {
		return domain.NotFound("event", e.ID)
	}
	return nil
}

func (c *Client) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return nil
}

func eventColumnsJSON(e *domain.Event) ([]byte, []byte, error) {
	delta, err := marshalColumn(e.StateDelta)
	if err != nil {
		return nil, nil, err
	}
	metadata, err := marshalColumn(e.Metadata)
	if err != nil {
		return nil, nil, err
	}
	return delta, metadata, nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		e         domain.Event
		eventType string
		delta     []byte
		metadata  []byte
	)
	err := row.Scan(&e.ID, &e.TimelineID, &e.Timestamp, &e.EndTimestamp, &eventType, &e.Description,
		&e.ImportanceScore, &e.DetailLevel, &delta, &metadata, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.EventType = domain.EventType(eventType)
	if err := unmarshalColumn(delta, &e.StateDelta); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(metadata, &e.Metadata); err != nil {
		return nil, err
	}
	e.Timestamp = e.Timestamp.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	if e.EndTimestamp != nil {
		end := e.EndTimestamp.UTC()
		e.EndTimestamp = &end
	}
	return &e, nil
}
