package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

const snapshotColumns = `id, timeline_id, timestamp, state, created_at`

func (c *Client) InsertSnapshot(ctx context.Context, s *domain.StateSnapshot) error {
	state, err := encodeJSON(s.State)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO state_snapshots (`+snapshotColumns+`)
	VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.TimelineID, encodeTime(s.Timestamp), state, encodeTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

func (c *Client) GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.StateSnapshot, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM state_snapshots WHERE id = ?`, id)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}
	return s, nil
}

func (c *Client) ListSnapshotsByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*domain.StateSnapshot, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+snapshotColumns+` FROM state_snapshots WHERE timeline_id = ?`, timelineID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*domain.StateSnapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("listing snapshots: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return snapshots, nil
}

func (c *Client) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM state_snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(row rowScanner) (*domain.StateSnapshot, error) {
	var (
		s         domain.StateSnapshot
		timestamp string
		state     string
		createdAt string
	)
	if err := row.Scan(&s.ID, &s.TimelineID, &timestamp, &state, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if s.Timestamp, err = decodeTime(timestamp); err != nil {
		return nil, err
	}
	s.State = domain.NewWorldState()
	if err := decodeJSON(state, &s.State); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &s, nil
}
