package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"timelines/internal/store"
)

var _ store.VectorStore = (*VectorStore)(nil)

// VectorStore keeps embeddings in a pgvector column and ranks them by
// cosine distance.
type VectorStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

func NewVectorStore(ctx context.Context, dsn string, dimensions int) (*VectorStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("vector dimensions must be positive, got %d", dimensions)
	}

	// the extension must exist before the pool can register its types
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	_, err = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	conn.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating vector extension: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &VectorStore{pool: pool, dimensions: dimensions}, nil
}

func (v *VectorStore) Initialize(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS embeddings (
    id        UUID PRIMARY KEY,
    embedding vector(%d) NOT NULL,
    metadata  JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_embeddings_metadata ON embeddings USING GIN (metadata);
`, v.dimensions)
	if _, err := v.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring vector schema: %w", err)
	}
	return nil
}

func (v *VectorStore) Close(ctx context.Context) error {
	v.pool.Close()
	return nil
}

func (v *VectorStore) InsertVector(ctx context.Context, id uuid.UUID, embedding []float32, metadata map[string]string) error {
	if len(embedding) != v.dimensions {
		return fmt.Errorf("inserting vector %s: expected %d dimensions, got %d", id, v.dimensions, len(embedding))
	}
	meta, err := json.Marshal(metadataOrEmpty(metadata))
	if err != nil {
		return fmt.Errorf("inserting vector: %w", err)
	}
	_, err = v.pool.Exec(ctx, `
INSERT INTO embeddings (id, embedding, metadata)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET embedding = excluded.embedding, metadata = excluded.metadata`,
		id, pgvector.NewVector(embedding), meta)
	if err != nil {
		return fmt.Errorf("inserting vector: %w", err)
	}
	return nil
}

func (v *VectorStore) SearchVectors(ctx context.Context, query []float32, limit int, filter map[string]string) ([]store.VectorMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	meta, err := json.Marshal(metadataOrEmpty(filter))
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}

	rows, err := v.pool.Query(ctx, `
SELECT id, 1 - (embedding <=> $1) AS score
FROM embeddings
WHERE metadata @> $2
ORDER BY embedding <=> $1
LIMIT $3`,
		pgvector.NewVector(query), meta, limit)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}
	defer rows.Close()

	matches := make([]store.VectorMatch, 0)
	for rows.Next() {
		var m store.VectorMatch
		if err := rows.Scan(&m.ID, &m.Score); err != nil {
			return nil, fmt.Errorf("searching vectors: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}
	return matches, nil
}

func (v *VectorStore) GetVector(ctx context.Context, id uuid.UUID) (*store.VectorRecord, error) {
	var (
		embedding pgvector.Vector
		meta      []byte
	)
	err := v.pool.QueryRow(ctx, `SELECT embedding, metadata FROM embeddings WHERE id = $1`, id).Scan(&embedding, &meta)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting vector: %w", err)
	}

	record := &store.VectorRecord{ID: id, Embedding: embedding.Slice()}
	if err := json.Unmarshal(meta, &record.Metadata); err != nil {
		return nil, fmt.Errorf("getting vector: %w", err)
	}
	return record, nil
}

func (v *VectorStore) DeleteVector(ctx context.Context, id uuid.UUID) error {
	if _, err := v.pool.Exec(ctx, `DELETE FROM embeddings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	return nil
}

func metadataOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
