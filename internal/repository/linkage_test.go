package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelines/internal/domain"
)

func TestLinkIsIdempotentAndRoleNormalized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.event(t, 1, "duel")
	alice := f.entity(t, domain.EntityCharacter, "Alice")

	require.NoError(t, f.repo.LinkEventEntity(ctx, e.ID, alice.ID, "  Actor "))
	require.NoError(t, f.repo.LinkEventEntity(ctx, e.ID, alice.ID, "actor"))
	require.NoError(t, f.repo.LinkEventEntity(ctx, e.ID, alice.ID, "target"))

	roles, err := f.repo.GetEventEntities(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "actor", roles[0].Role)
	assert.Equal(t, "target", roles[1].Role)

	err = f.repo.LinkEventEntity(ctx, e.ID, alice.ID, "   ")
	require.ErrorIs(t, err, domain.ErrInvalid)

	require.NoError(t, f.repo.UnlinkEventEntity(ctx, e.ID, alice.ID, "TARGET"))
	roles, err = f.repo.GetEventEntities(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)

	require.NoError(t, f.repo.UnlinkEventEntity(ctx, e.ID, alice.ID, ""))
	roles, err = f.repo.GetEventEntities(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestGetEventEntitiesSkipsMissingEntities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.event(t, 1, "rumour")
	require.NoError(t, f.repo.LinkEventEntity(ctx, e.ID, uuid.New(), domain.RoleSubject))

	roles, err := f.repo.GetEventEntities(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestGetEntityEventsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.entity(t, domain.EntityCharacter, "Alice")
	for i, role := range []string{domain.RoleActor, domain.RoleObserver, domain.RoleActor} {
		e := f.event(t, i+1, role)
		require.NoError(t, f.repo.LinkEventEntity(ctx, e.ID, alice.ID, role))
	}

	got, err := f.repo.GetEntityEvents(ctx, alice.ID, f.timeline.ID, EntityEventFilter{Role: domain.RoleActor})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	start := at(2)
	got, err = f.repo.GetEntityEvents(ctx, alice.ID, f.timeline.ID, EntityEventFilter{Start: &start})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.repo.GetEventsWithEntities(ctx, nil, f.timeline.ID, true, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEntityLookupAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.entity(t, domain.EntityCharacter, "Alice")
	f.entity(t, domain.EntityPlace, "Harbour")

	found, err := f.repo.FindEntityByName(ctx, f.project.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, alice.ID, found.ID)

	places, err := f.repo.ListEntities(ctx, f.project.ID, domain.EntityPlace)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Harbour", places[0].Name)

	e := f.event(t, 1, "arrives")
	require.NoError(t, f.repo.LinkEventEntity(ctx, e.ID, alice.ID, domain.RoleActor))
	_, err = f.repo.CreateRelationship(ctx, domain.EventRef(e.ID), domain.EntityRef(alice.ID), domain.RelationReferential)
	require.NoError(t, err)

	require.NoError(t, f.repo.DeleteEntity(ctx, alice.ID))
	roles, err := f.repo.GetEventEntities(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
	rels, err := f.repo.GetRelationships(ctx, RelationshipQuery{NodeID: e.ID, AsSource: true, AsTarget: true})
	require.NoError(t, err)
	assert.Empty(t, rels)
}
