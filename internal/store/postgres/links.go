package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"timelines/internal/domain"
)

func (c *Client) InsertEventEntityLink(ctx context.Context, l *domain.EventEntityLink) error {
	_, err := c.pool.Exec(ctx, `
INSERT INTO event_entity_links (event_id, entity_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (event_id, entity_id, role) DO NOTHING`,
		l.EventID, l.EntityID, l.Role)
	if err != nil {
		return fmt.Errorf("inserting event entity link: %w", err)
	}
	return nil
}

func (c *Client) ListLinksByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.EventEntityLink, error) {
	links, err := queryAll(ctx, c.pool, scanLink, `
SELECT event_id, entity_id, role FROM event_entity_links
WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing links by event: %w", err)
	}
	return links, nil
}

func (c *Client) ListLinksByEntity(ctx context.Context, entityID uuid.UUID) ([]*domain.EventEntityLink, error) {
	links, err := queryAll(ctx, c.pool, scanLink, `
SELECT event_id, entity_id, role FROM event_entity_links
WHERE entity_id = $1 ORDER BY created_at`, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing links by entity: %w", err)
	}
	return links, nil
}

func (c *Client) DeleteEventEntityLink(ctx context.Context, eventID, entityID uuid.UUID, role string) error {
	_, err := c.pool.Exec(ctx, `
DELETE FROM event_entity_links
WHERE event_id = $1 AND entity_id = $2 AND ($3 = '' OR role = $3)`,
		eventID, entityID, role)
	if err != nil {
		return fmt.Errorf("deleting event entity link: %w", err)
	}
	return nil
}

func scanLink(row pgx.Row) (*domain.EventEntityLink, error) {
	var l domain.EventEntityLink
	if err := row.Scan(&l.EventID, &l.EntityID, &l.Role); err != nil {
		return nil, err
	}
	return &l, nil
}
