package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"timelines/internal/domain"
)

const snapshotColumns = `id, timeline_id, timestamp, state, created_at`

func (c *Client) InsertSnapshot(ctx context.Context, s *domain.StateSnapshot) error {
	state, err := marshalColumn(s.State)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO state_snapshots (`+snapshotColumns+`)
VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.TimelineID, s.Timestamp, state, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

func (c *Client) GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.StateSnapshot, error) {
	s, err := queryOne(ctx, c.pool, scanSnapshot, `SELECT `+snapshotColumns+` FROM state_snapshots WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}
	return s, nil
}

func (c *Client) ListSnapshotsByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*domain.StateSnapshot, error) {
	snapshots, err := queryAll(ctx, c.pool, scanSnapshot, `SELECT `+snapshotColumns+` FROM state_snapshots WHERE timeline_id = $1`, timelineID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return snapshots, nil
}

func (c *Client) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM state_snapshots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(row pgx.Row) (*domain.StateSnapshot, error) {
	var (
		s     domain.StateSnapshot
		state []byte
	)
	if err := row.Scan(&s.ID, &s.TimelineID, &s.Timestamp, &state, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.State = domain.NewWorldState()
	if err := unmarshalColumn(state, &s.State); err != nil {
		return nil, err
	}
	s.Timestamp = s.Timestamp.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}
