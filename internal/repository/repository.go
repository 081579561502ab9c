// Package repository composes the pure CRUD storage port into the
// timeline operations: hierarchy and forking, event queries, world-state
// reconstruction, entity linkage, causality traversal, compression and
// semantic search.
//
// Filtering, sorting and set logic all happen here, over full scans
// returned by the storage port.
package repository

import (
	"context"
	"fmt"

	"timelines/internal/store"
)

type Repository struct {
	storage store.Storage
	vector  store.VectorStore
}

// New builds a repository over storage. vector may be nil, in which case
// indexing is a no-op and similarity searches return nothing.
func New(storage store.Storage, vector store.VectorStore) *Repository {
	return &Repository{storage: storage, vector: vector}
}

// HasVectorStore reports whether semantic search is available.
func (r *Repository) HasVectorStore() bool { return r.vector != nil }

func (r *Repository) Initialize(ctx context.Context) error {
	if err := r.storage.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	if r.vector != nil {
		if err := r.vector.Initialize(ctx); err != nil {
			return fmt.Errorf("initializing vector store: %w", err)
		}
	}
	return nil
}

func (r *Repository) Close(ctx context.Context) error {
	var vecErr error
	if r.vector != nil {
		vecErr = r.vector.Close(ctx)
	}
	if err := r.storage.Close(ctx); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}
	if vecErr != nil {
		return fmt.Errorf("closing vector store: %w", vecErr)
	}
	return nil
}
