package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

const projectColumns = `id, user_id, name, description, metadata, created_at`

func (c *Client) InsertProject(ctx context.Context, p *domain.Project) error {
	metadata, err := encodeJSON(p.Metadata)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO projects (`+projectColumns+`)
	VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, nullString(p.Description), metadata, encodeTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return p, nil
}

func (c *Client) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

func (c *Client) UpdateProject(ctx context.Context, p *domain.Project) error {
	metadata, err := encodeJSON(p.Metadata)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	ok, err := execAffected(c.db.ExecContext(ctx, `
	UPDATE projects SET user_id = ?, name = ?, description = ?, metadata = ?
	WHERE id = ?`,
		p.UserID, p.Name, nullString(p.Description), metadata, p.ID,
	))
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if !ok {
		return domain.NotFound("project", p.ID)
	}
	return nil
}

func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p           domain.Project
		description sql.NullString
		metadata    string
		createdAt   string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &description, &metadata, &createdAt); err != nil {
		return nil, err
	}
	p.Description = description.String
	if err := decodeJSON(metadata, &p.Metadata); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
