package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

const entityColumns = `id, project_id, entity_type, name, description, properties, created_at`

func (c *Client) InsertEntity(ctx context.Context, e *domain.Entity) error {
	props, err := encodeJSON(e.Properties)
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO entities (`+entityColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, string(e.EntityType), e.Name, e.Description, props, encodeTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	return nil
}

func (c *Client) GetEntity(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ?`, id)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting entity: %w", err)
	}
	return e, nil
}

func (c *Client) ListEntitiesByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Entity, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	entities := make([]*domain.Entity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("listing entities: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	return entities, nil
}

func (c *Client) UpdateEntity(ctx context.Context, e *domain.Entity) error {
	props, err := encodeJSON(e.Properties)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	ok, err := execAffected(c.db.ExecContext(ctx, `
	UPDATE entities SET project_id = ?, entity_type = ?, name = ?, description = ?, properties = ?
	WHERE id = ?`,
		e.ProjectID, string(e.EntityType), e.Name, e.Description, props, e.ID,
	))
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	if !ok {
		return domain.NotFound("entity", e.ID)
	}
	return nil
}

func (c *Client) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	return nil
}

func scanEntity(row rowScanner) (*domain.Entity, error) {
	var (
		e          domain.Entity
		entityType string
		props      string
		createdAt  string
	)
	if err := row.Scan(&e.ID, &e.ProjectID, &entityType, &e.Name, &e.Description, &props, &createdAt); err != nil {
		return nil, err
	}
	e.EntityType = domain.EntityType(entityType)
	if err := decodeJSON(props, &e.Properties); err != nil {
		return nil, err
	}
	var err error
	if e.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}
