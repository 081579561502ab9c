package memory

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// table keeps records by id and remembers insertion order so list results
// are stable.
type table[T any] struct {
	rows  map[uuid.UUID]T
	order []uuid.UUID
	clone func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	return &table[T]{rows: make(map[uuid.UUID]T), clone: clone}
}

func (t *table[T]) insert(id uuid.UUID, row T) error {
	if _, exists := t.rows[id]; exists {
		return fmt.Errorf("duplicate id %s", id)
	}
	t.rows[id] = t.clone(row)
	t.order = append(t.order, id)
	return nil
}

func (t *table[T]) get(id uuid.UUID) (T, bool) {
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.clone(row), true
}

func (t *table[T]) update(id uuid.UUID, row T) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = t.clone(row)
	return true
}

func (t *table[T]) delete(id uuid.UUID) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(other uuid.UUID) bool { return other == id })
	return true
}

// ids returns the ids of rows matching keep, in insertion order.
func (t *table[T]) ids(keep func(T) bool) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range t.order {
		if keep(t.rows[id]) {
			out = append(out, id)
		}
	}
	return out
}

func (t *table[T]) list(keep func(T) bool) []T {
	out := make([]T, 0)
	for _, id := range t.order {
		row := t.rows[id]
		if keep(row) {
			out = append(out, t.clone(row))
		}
	}
	return out
}
