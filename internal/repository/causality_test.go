package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelines/internal/domain"
)

func pathDescriptions(paths []CausalPath) [][]string {
	out := make([][]string, len(paths))
	for i, p := range paths {
		out[i] = descriptions(p.Events)
	}
	return out
}

func (f fixture) cause(t *testing.T, from, to *domain.Event, relType domain.RelationType) {
	t.Helper()
	_, err := f.repo.CreateRelationship(context.Background(), domain.EventRef(from.ID), domain.EventRef(to.ID), relType)
	require.NoError(t, err)
}

func TestTraceCausalityChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.event(t, 1, "a"), f.event(t, 2, "b"), f.event(t, 3, "c")
	f.cause(t, a, b, domain.RelationCausal)
	f.cause(t, b, c, domain.RelationCausal)
	f.cause(t, a, c, domain.RelationTemporal)

	paths, err := f.repo.TraceCausality(ctx, a.ID, 5, true)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}}, pathDescriptions(paths))

	paths, err = f.repo.TraceCausality(ctx, c.ID, 5, false)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c", "b", "a"}}, pathDescriptions(paths))

	// depth 1 stops at b, which still has an outgoing edge, so nothing
	// terminal is reached
	paths, err = f.repo.TraceCausality(ctx, a.ID, 1, true)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

// a causes b and c, both of which cause d. The second branch reaches d
// after it has been visited and stops without a path.
func TestTraceCausalityDiamondUnderCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c, d := f.event(t, 1, "a"), f.event(t, 2, "b"), f.event(t, 3, "c"), f.event(t, 4, "d")
	f.cause(t, a, b, domain.RelationCausal)
	f.cause(t, a, c, domain.RelationCausal)
	f.cause(t, b, d, domain.RelationCausal)
	f.cause(t, c, d, domain.RelationCausal)

	paths, err := f.repo.TraceCausality(ctx, a.ID, 5, true)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "d"}}, pathDescriptions(paths))
}

func TestTraceCausalityCycleTerminates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.event(t, 1, "a"), f.event(t, 2, "b")
	f.cause(t, a, b, domain.RelationCausal)
	f.cause(t, b, a, domain.RelationCausal)

	paths, err := f.repo.TraceCausality(ctx, a.ID, 10, true)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestTraceCausalityMissingStart(t *testing.T) {
	f := newFixture(t)
	paths, err := f.repo.TraceCausality(context.Background(), uuid.New(), 5, true)
	require.NoError(t, err)
	assert.NotNil(t, paths)
	assert.Empty(t, paths)
}

func TestGetRelationshipsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.entity(t, domain.EntityCharacter, "Alice")
	guild := f.entity(t, domain.EntityOrganization, "Guild")
	from, until := at(10), at(20)
	_, err := f.repo.CreateRelationship(ctx, domain.EntityRef(alice.ID), domain.EntityRef(guild.ID), domain.RelationHierarchical,
		domain.WithValidity(&from, &until))
	require.NoError(t, err)

	tests := []struct {
		name string
		q    RelationshipQuery
		want int
	}{
		{"any kind as source", RelationshipQuery{NodeID: alice.ID, AsSource: true}, 1},
		{"wrong side", RelationshipQuery{NodeID: alice.ID, AsTarget: true}, 0},
		{"wrong kind", RelationshipQuery{NodeID: alice.ID, NodeKind: domain.NodeEvent, AsSource: true}, 0},
		{"valid at lower bound", RelationshipQuery{NodeID: guild.ID, AsTarget: true, AtTime: &from}, 1},
		{"valid at upper bound", RelationshipQuery{NodeID: guild.ID, AsTarget: true, AtTime: &until}, 1},
		{"outside validity", RelationshipQuery{NodeID: guild.ID, AsTarget: true, AtTime: ptr(at(21))}, 0},
		{"relation type", RelationshipQuery{NodeID: guild.ID, AsTarget: true, RelationType: domain.RelationCausal}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.repo.GetRelationships(ctx, tt.q)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func ptr[T any](v T) *T { return &v }
