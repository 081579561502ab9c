package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"timelines/internal/domain"
)

const projectColumns = `id, user_id, name, description, metadata, created_at`

func (c *Client) InsertProject(ctx context.Context, p *domain.Project) error {
	metadata, err := marshalColumn(p.Metadata)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO projects (`+projectColumns+`)
VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.UserID, p.Name, optText(p.Description), metadata, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, err := queryOne(ctx, c.pool, scanProject, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return p, nil
}

func (c *Client) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	projects, err := queryAll(ctx, c.pool, scanProject, `SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

func (c *Client) UpdateProject(ctx context.Context, p *domain.Project) error {
	metadata, err := marshalColumn(p.Metadata)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	ok, err := execOne(ctx, c.pool, `
UPDATE projects SET user_id = $2, name = $3, description = $4, metadata = $5
WHERE id = $1`,
		p.ID, p.UserID, p.Name, optText(p.Description), metadata)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if !ok {
		return domain.NotFound("project", p.ID)
	}
	return nil
}

func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p           domain.Project
		description *string
		metadata    []byte
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &description, &metadata, &p.CreatedAt); err != nil {
		return nil, err
	}
	if description != nil {
		p.Description = *description
	}
	if err := unmarshalColumn(metadata, &p.Metadata); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func marshalColumn(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling column: %w", err)
	}
	return data, nil
}

func unmarshalColumn(data []byte, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling column: %w", err)
	}
	return nil
}

func optText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
