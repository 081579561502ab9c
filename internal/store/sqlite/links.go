package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

func (c *Client) InsertEventEntityLink(ctx context.Context, l *domain.EventEntityLink) error {
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO event_entity_links (event_id, entity_id, role)
	VALUES (?, ?, ?)
	ON CONFLICT (event_id, entity_id, role) DO NOTHING`,
		l.EventID, l.EntityID, l.Role,
	)
	if err != nil {
		return fmt.Errorf("inserting event entity link: %w", err)
	}
	return nil
}

func (c *Client) ListLinksByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.EventEntityLink, error) {
	return c.listLinks(ctx, `WHERE event_id = ?`, eventID)
}

func (c *Client) ListLinksByEntity(ctx context.Context, entityID uuid.UUID) ([]*domain.EventEntityLink, error) {
	return c.listLinks(ctx, `WHERE entity_id = ?`, entityID)
}

func (c *Client) listLinks(ctx context.Context, where string, id uuid.UUID) ([]*domain.EventEntityLink, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT event_id, entity_id, role FROM event_entity_links `+where+` ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("listing event entity links: %w", err)
	}
	defer rows.Close()

	links := make([]*domain.EventEntityLink, 0)
	for rows.Next() {
		var l domain.EventEntityLink
		if err := rows.Scan(&l.EventID, &l.EntityID, &l.Role); err != nil {
			return nil, fmt.Errorf("listing event entity links: %w", err)
		}
		links = append(links, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing event entity links: %w", err)
	}
	return links, nil
}

func (c *Client) DeleteEventEntityLink(ctx context.Context, eventID, entityID uuid.UUID, role string) error {
	_, err := c.db.ExecContext(ctx, `
	DELETE FROM event_entity_links
	WHERE event_id = ? AND entity_id = ? AND (? = '' OR role = ?)`,
		eventID, entityID, role, role,
	)
	if err != nil {
		return fmt.Errorf("deleting event entity link: %w", err)
	}
	return nil
}
