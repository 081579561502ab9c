package memory

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"timelines/internal/store"
)

var _ store.VectorStore = (*VectorStore)(nil)

// VectorStore ranks stored embeddings by cosine similarity with a linear
// scan.
type VectorStore struct {
	mu      sync.RWMutex
	records *table[*store.VectorRecord]
}

func NewVectorStore() *VectorStore {
	return &VectorStore{records: newTable(cloneVector)}
}

func cloneVector(r *store.VectorRecord) *store.VectorRecord {
	return &store.VectorRecord{
		ID:        r.ID,
		Embedding: slices.Clone(r.Embedding),
		Metadata:  maps.Clone(r.Metadata),
	}
}

func (v *VectorStore) Initialize(ctx context.Context) error { return nil }

func (v *VectorStore) Close(ctx context.Context) error { return nil }

// InsertVector replaces any existing record with the same id.
func (v *VectorStore) InsertVector(ctx context.Context, id uuid.UUID, embedding []float32, metadata map[string]string) error {
	if len(embedding) == 0 {
		return fmt.Errorf("inserting vector %s: empty embedding", id)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	record := &store.VectorRecord{ID: id, Embedding: embedding, Metadata: metadata}
	if !v.records.update(id, record) {
		return v.records.insert(id, record)
	}
	return nil
}

func (v *VectorStore) SearchVectors(ctx context.Context, query []float32, limit int, filter map[string]string) ([]store.VectorMatch, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	matches := make([]store.VectorMatch, 0)
	for _, id := range v.records.order {
		record := v.records.rows[id]
		if !store.MatchesFilter(record.Metadata, filter) {
			continue
		}
		if len(record.Embedding) != len(query) {
			continue
		}
		matches = append(matches, store.VectorMatch{ID: id, Score: cosineSimilarity(query, record.Embedding)})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (v *VectorStore) GetVector(ctx context.Context, id uuid.UUID) (*store.VectorRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	record, _ := v.records.get(id)
	return record, nil
}

func (v *VectorStore) DeleteVector(ctx context.Context, id uuid.UUID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records.delete(id)
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
