package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"timelines/internal/domain"
)

// Keys ingest keeps on stored records to tie them back to their files.
const (
	keySourceFile = "source_file"
	keySourceHash = "source_hash"
	keyTitle      = "title"
	keyTags       = "tags"

	// consequence entity names that address the global state
	globalEntity = "world"
)

// Front matter keys that never become entity properties.
var reservedKeys = map[string]struct{}{
	"title": {}, "type": {}, "tags": {}, "description": {}, "related": {},
	"timestamp": {}, "end": {}, "event_type": {}, "importance": {}, "detail": {},
	"participants": {}, "location": {}, "roles": {}, "caused_by": {}, "consequences": {},
}

type Consequence struct {
	Entity   string `json:"entity"`
	Property string `json:"property"`
	Value    any    `json:"value,omitempty"`
}

func (c Consequence) IsGlobal() bool {
	return c.Entity == "" || strings.EqualFold(c.Entity, globalEntity)
}

func parseConsequences(value any) ([]Consequence, error) {
	if value == nil {
		return nil, nil
	}

	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("consequences must be a list")
	}

	consequences := make([]Consequence, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("consequence %d must be a map", i)
		}
		property := toString(entry["property"])
		if property == "" {
			return nil, fmt.Errorf("consequence %d missing property", i)
		}
		value, ok := entry["value"]
		if !ok || value == nil {
			return nil, fmt.Errorf("consequence %d missing value", i)
		}
		consequences = append(consequences, Consequence{
			Entity:   toString(entry["entity"]),
			Property: property,
			Value:    value,
		})
	}

	return consequences, nil
}

// buildDelta turns consequences into a state delta, resolving entity names
// through lookup.
func buildDelta(consequences []Consequence, lookup func(name string) (uuid.UUID, bool)) (domain.StateDelta, error) {
	var delta domain.StateDelta
	for _, c := range consequences {
		v, err := domain.PropertyFromAny(c.Value)
		if err != nil {
			return domain.StateDelta{}, fmt.Errorf("consequence %s.%s: %w", c.Entity, c.Property, err)
		}
		if c.IsGlobal() {
			if delta.GlobalChanges == nil {
				delta.GlobalChanges = domain.Properties{}
			}
			delta.GlobalChanges[c.Property] = v
			continue
		}
		id, ok := lookup(c.Entity)
		if !ok {
			return domain.StateDelta{}, fmt.Errorf("consequence references unknown entity: %s", c.Entity)
		}
		if delta.EntityChanges == nil {
			delta.EntityChanges = map[uuid.UUID]domain.Properties{}
		}
		if delta.EntityChanges[id] == nil {
			delta.EntityChanges[id] = domain.Properties{}
		}
		delta.EntityChanges[id][c.Property] = v
	}
	return delta, nil
}

// parseRoles reads a map of role to one or more entity names.
func parseRoles(value any) (map[string][]string, error) {
	if value == nil {
		return nil, nil
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("roles must be a map of role to names")
	}
	out := make(map[string][]string, len(m))
	for role, names := range m {
		out[role] = resolveFieldValue(names)
	}
	return out, nil
}

func parseDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	default:
		return decimal.Decimal{}, fmt.Errorf("expected a number, got %T", value)
	}
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
