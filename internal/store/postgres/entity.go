package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"timelines/internal/domain"
)

const entityColumns = `id, project_id, entity_type, name, description, properties, created_at`

func (c *Client) InsertEntity(ctx context.Context, e *domain.Entity) error {
	props, err := marshalColumn(e.Properties)
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO entities (`+entityColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ProjectID, string(e.EntityType), e.Name, e.Description, props, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	return nil
}

func (c *Client) GetEntity(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	e, err := queryOne(ctx, c.pool, scanEntity, `SELECT `+entityColumns+` FROM entities WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting entity: %w", err)
	}
	return e, nil
}

func (c *Client) ListEntitiesByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Entity, error) {
	entities, err := queryAll(ctx, c.pool, scanEntity, `SELECT `+entityColumns+` FROM entities WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	return entities, nil
}

func (c *Client) UpdateEntity(ctx context.Context, e *domain.Entity) error {
	props, err := marshalColumn(e.Properties)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	ok, err := execOne(ctx, c.pool, `
UPDATE entities SET project_id = $2, entity_type = $3, name = $4, description = $5, properties = $6
WHERE id = $1`,
		e.ID, e.ProjectID, string(e.EntityType), e.Name, e.Description, props)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	if !ok {
		return domain.NotFound("entity", e.ID)
	}
	return nil
}

func (c *Client) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM entities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	return nil
}

func scanEntity(row pgx.Row) (*domain.Entity, error) {
	var (
		e          domain.Entity
		entityType string
		props      []byte
	)
	if err := row.Scan(&e.ID, &e.ProjectID, &entityType, &e.Name, &e.Description, &props, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.EntityType = domain.EntityType(entityType)
	if err := unmarshalColumn(props, &e.Properties); err != nil {
		return nil, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}
