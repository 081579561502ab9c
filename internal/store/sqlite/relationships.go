package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"timelines/internal/domain"
)

const relationshipColumns = `id, source_id, source_type, target_id, target_type, relation_type, strength, valid_from, valid_until, metadata, created_at`

func (c *Client) InsertRelationship(ctx context.Context, r *domain.Relationship) error {
	metadata, err := encodeJSON(r.Metadata)
	if err != nil {
		return fmt.Errorf("inserting relationship: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO relationships (`+relationshipColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SourceID, string(r.SourceKind), r.TargetID, string(r.TargetKind),
		string(r.RelationType), r.Strength.String(), encodeOptTime(r.ValidFrom), encodeOptTime(r.ValidUntil),
		metadata, encodeTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting relationship: %w", err)
	}
	return nil
}

func (c *Client) GetRelationship(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+relationshipColumns+` FROM relationships WHERE id = ?`, id)
	r, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting relationship: %w", err)
	}
	return r, nil
}

func (c *Client) ListRelationshipsBySource(ctx context.Context, sourceID uuid.UUID, kind domain.NodeKind) ([]*domain.Relationship, error) {
	return c.listRelationships(ctx, `WHERE source_id = ? AND source_type = ?`, sourceID, kind)
}

func (c *Client) ListRelationshipsByTarget(ctx context.Context, targetID uuid.UUID, kind domain.NodeKind) ([]*domain.Relationship, error) {
	return c.listRelationships(ctx, `WHERE target_id = ? AND target_type = ?`, targetID, kind)
}

func (c *Client) listRelationships(ctx context.Context, where string, id uuid.UUID, kind domain.NodeKind) ([]*domain.Relationship, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+relationshipColumns+` FROM relationships `+where+` ORDER BY created_at`, id, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	defer rows.Close()

	rels := make([]*domain.Relationship, 0)
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("listing relationships: %w", err)
		}
		rels = append(rels, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	return rels, nil
}

func (c *Client) UpdateRelationship(ctx context.Context, r *domain.Relationship) error {
	metadata, err := encodeJSON(r.Metadata)
	if err != nil {
		return fmt.Errorf("updating relationship: %w", err)
	}
	ok, err := execAffected(c.db.ExecContext(ctx, `
	UPDATE relationships
	SET source_id = ?, source_type = ?, target_id = ?, target_type = ?, relation_type = ?,
		strength = ?, valid_from = ?, valid_until = ?, metadata = ?
	WHERE id = ?`,
		r.SourceID, string(r.SourceKind), r.TargetID, string(r.TargetKind), string(r.RelationType),
		r.Strength.String(), encodeOptTime(r.ValidFrom), encodeOptTime(r.ValidUntil), metadata, r.ID,
	))
	if err != nil {
		return fmt.Errorf("updating relationship: %w", err)
	}
	if !ok {
		return domain.NotFound("relationship", r.ID)
	}
	return nil
}

func (c *Client) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	return nil
}

func scanRelationship(row rowScanner) (*domain.Relationship, error) {
	var (
		r            domain.Relationship
		sourceKind   string
		targetKind   string
		relationType string
		strength     string
		validFrom    sql.NullString
		validUntil   sql.NullString
		metadata     string
		createdAt    string
	)
	err := row.Scan(&r.ID, &r.SourceID, &sourceKind, &r.TargetID, &targetKind, &relationType,
		&strength, &validFrom, &validUntil, &metadata, &createdAt)
	if err != nil {
		return nil, err
	}
	r.SourceKind = domain.NodeKind(sourceKind)
	r.TargetKind = domain.NodeKind(targetKind)
	r.RelationType = domain.RelationType(relationType)

	if r.Strength, err = decodeDecimal(strength); err != nil {
		return nil, err
	}
	if r.ValidFrom, err = decodeOptTime(validFrom); err != nil {
		return nil, err
	}
	if r.ValidUntil, err = decodeOptTime(validUntil); err != nil {
		return nil, err
	}
	if err := decodeJSON(metadata, &r.Metadata); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}
