package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

const eventColumns = `id, timeline_id, timestamp, end_timestamp, event_type, description, importance_score, detail_level, state_delta, metadata, created_at`

func (c *Client) InsertEvent(ctx context.Context, e *domain.Event) error {
	delta, metadata, err := encodeEventColumns(e)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO events (`+eventColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.TimelineID, encodeTime(e.Timestamp), encodeOptTime(e.EndTimestamp),
		string(e.EventType), e.Description, e.ImportanceScore.String(), e.DetailLevel,
		delta, metadata, encodeTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (c *Client) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return e, nil
}

func (c *Client) ListEventsByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*domain.Event, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events WHERE timeline_id = ?`, timelineID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("listing events: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// rangeKeyLayout is the second-precision prefix of the stored RFC3339Nano
// timestamps. Fractional seconds make full strings sort out of order within
// one second, so SQL narrows on whole seconds and Go applies exact bounds.
const rangeKeyLayout = "2006-01-02T15:04:05"

// ListEventsInRange returns the timeline's events with start <= timestamp <= end.
func (c *Client) ListEventsInRange(ctx context.Context, timelineID uuid.UUID, start, end time.Time) ([]*domain.Event, error) {
	lower := start.UTC().Truncate(time.Second).Format(rangeKeyLayout)
	upper := end.UTC().Truncate(time.Second).Add(time.Second).Format(rangeKeyLayout)
	rows, err := c.db.QueryContext(ctx, `
	SELECT `+eventColumns+` FROM events
	WHERE timeline_id = ? AND timestamp >= ? AND timestamp < ?`,
		timelineID, lower, upper,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events in range: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("listing events in range: %w", err)
		}
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			continue
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing events in range: %w", err)
	}
	return events, nil
}

func (c *Client) UpdateEvent(ctx context.Context, e *domain.Event) error {
	delta, metadata, err := encodeEventColumns(e)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	ok, err := execAffected(c.db.ExecContext(ctx, `
	UPDATE events
	SET timeline_id = ?, timestamp = ?, end_timestamp = ?, event_type = ?, description = ?,
		importance_score = ?, detail_level = ?, state_delta = ?, metadata = ?
	WHERE id = ?`,
		e.TimelineID, encodeTime(e.Timestamp), encodeOptTime(e.EndTimestamp), string(e.EventType),
		e.Description, e.ImportanceScore.String(), e.DetailLevel, delta, metadata, e.ID,
	))
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	if !ok {
		return domain.NotFound("event", e.ID)
	}
	return nil
}

func (c *Client) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return nil
}

func encodeEventColumns(e *domain.Event) (string, string, error) {
	delta, err := encodeJSON(e.StateDelta)
	if err != nil {
		return "", "", err
	}
	metadata, err := encodeJSON(e.Metadata)
	if err != nil {
		return "", "", err
	}
	return delta, metadata, nil
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var (
		e          domain.Event
		timestamp  string
		end        sql.NullString
		eventType  string
		importance string
		delta      string
		metadata   string
		createdAt  string
	)
	err := row.Scan(&e.ID, &e.TimelineID, &timestamp, &end, &eventType, &e.Description,
		&importance, &e.DetailLevel, &delta, &metadata, &createdAt)
	if err != nil {
		return nil, err
	}
	e.EventType = domain.EventType(eventType)

	if e.Timestamp, err = decodeTime(timestamp); err != nil {
		return nil, err
	}
	if e.EndTimestamp, err = decodeOptTime(end); err != nil {
		return nil, err
	}
	if e.ImportanceScore, err = decodeDecimal(importance); err != nil {
		return nil, err
	}
	if err := decodeJSON(delta, &e.StateDelta); err != nil {
		return nil, err
	}
	if err := decodeJSON(metadata, &e.Metadata); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}
