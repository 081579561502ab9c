package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"timelines/internal/domain"
)

const relationshipColumns = `id, source_id, source_type, target_id, target_type, relation_type, strength, valid_from, valid_until, metadata, created_at`

func (c *Client) InsertRelationship(ctx context.Context, r *domain.Relationship) error {
	metadata, err := marshalColumn(r.Metadata)
	if err != nil {
		return fmt.Errorf("inserting relationship: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO relationships (`+relationshipColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.SourceID, string(r.SourceKind), r.TargetID, string(r.TargetKind), string(r.RelationType),
		r.Strength, r.ValidFrom, r.ValidUntil, metadata, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting relationship: %w", err)
	}
	return nil
}

func (c *Client) GetRelationship(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	r, err := queryOne(ctx, c.pool, scanRelationship, `SELECT `+relationshipColumns+` FROM relationships WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting relationship: %w", err)
	}
	return r, nil
}

func (c *Client) ListRelationshipsBySource(ctx context.Context, sourceID uuid.UUID, kind domain.NodeKind) ([]*domain.Relationship, error) {
	rels, err := queryAll(ctx, c.pool, scanRelationship, `
SELECT `+relationshipColumns+` FROM relationships
WHERE source_id = $1 AND source_type = $2
ORDER BY created_at`, sourceID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing relationships by source: %w", err)
	}
	return rels, nil
}

func (c *Client) ListRelationshipsByTarget(ctx context.Context, targetID uuid.UUID, kind domain.NodeKind) ([]*domain.Relationship, error) {
	rels, err := queryAll(ctx, c.pool, scanRelationship, `
SELECT `+relationshipColumns+` FROM relationships
WHERE target_id = $1 AND target_type = $2
ORDER BY created_at`, targetID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing relationships by target: %w", err)
	}
	return rels, nil
}

func (c *Client) UpdateRelationship(ctx context.Context, r *domain.Relationship) error {
	metadata, err := marshalColumn(r.Metadata)
	if err != nil {
		return fmt.Errorf("updating relationship: %w", err)
	}
	ok, err := execOne(ctx, c.pool, `
UPDATE relationships
SET source_id = $2, source_type = $3, target_id = $4, target_type = $5, relation_type = $6,
    strength = $7, valid_from = $8, valid_until = $9, metadata = $10
WHERE id = $1`,
		r.ID, r.SourceID, string(r.SourceKind), r.TargetID, string(r.TargetKind), string(r.RelationType),
		r.Strength, r.ValidFrom, r.ValidUntil, metadata)
	if err != nil {
		return fmt.Errorf("updating relationship: %w", err)
	}
	if !ok {
		return domain.NotFound("relationship", r.ID)
	}
	return nil
}

func (c *Client) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM relationships WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	return nil
}

func scanRelationship(row pgx.Row) (*domain.Relationship, error) {
	var (
		r            domain.Relationship
		sourceKind   string
		targetKind   string
		relationType string
		metadata     []byte
	)
	err := row.Scan(&r.ID, &r.SourceID, &sourceKind, &r.TargetID, &targetKind, &relationType,
		&r.Strength, &r.ValidFrom, &r.ValidUntil, &metadata, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.SourceKind = domain.NodeKind(sourceKind)
	r.TargetKind = domain.NodeKind(targetKind)
	r.RelationType = domain.RelationType(relationType)
	if err := unmarshalColumn(metadata, &r.Metadata); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
