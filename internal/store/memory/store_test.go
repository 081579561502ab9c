package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"timelines/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store) (*domain.Project, *domain.Timeline, *domain.Event, *domain.Entity) {
	t.Helper()
	ctx := context.Background()

	project, err := domain.NewProject(uuid.New(), "Saga", "", nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertProject(ctx, project))

	timeline, err := domain.NewTimeline(project.ID, project.UserID, "Main", "", nil, domain.StatusCanonical)
	require.NoError(t, err)
	require.NoError(t, s.InsertTimeline(ctx, timeline))

	event, err := domain.NewEvent(timeline.ID, t0, domain.EventInteraction, "meeting")
	require.NoError(t, err)
	require.NoError(t, s.InsertEvent(ctx, event))

	entity, err := domain.NewEntity(project.ID, domain.EntityCharacter, "Alice", "a traveller", nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertEntity(ctx, entity))

	link, err := domain.NewEventEntityLink(event.ID, entity.ID, domain.RoleActor)
	require.NoError(t, err)
	require.NoError(t, s.InsertEventEntityLink(ctx, link))

	return project, timeline, event, entity
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := New()
	got, err := s.GetEvent(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _, event, _ := seed(t, s)

	event.Description = "mutated after insert"
	got, err := s.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "meeting", got.Description)

	got.Description = "mutated after get"
	again, err := s.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "meeting", again.Description)
}

func TestDuplicateInsertFails(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _, event, _ := seed(t, s)
	assert.Error(t, s.InsertEvent(ctx, event))
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	e, err := domain.NewEntity(uuid.New(), domain.EntityPlace, "Tavern", "a tavern", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, New().UpdateEntity(context.Background(), e), domain.ErrNotFound)
}

func TestLinks(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _, event, entity := seed(t, s)

	again, err := domain.NewEventEntityLink(event.ID, entity.ID, "ACTOR")
	require.NoError(t, err)
	require.NoError(t, s.InsertEventEntityLink(ctx, again))

	witness, err := domain.NewEventEntityLink(event.ID, entity.ID, domain.RoleObserver)
	require.NoError(t, err)
	require.NoError(t, s.InsertEventEntityLink(ctx, witness))

	links, err := s.ListLinksByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	require.NoError(t, s.DeleteEventEntityLink(ctx, event.ID, entity.ID, domain.RoleObserver))
	links, err = s.ListLinksByEntity(ctx, entity.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, domain.RoleActor, links[0].Role)

	require.NoError(t, s.DeleteEventEntityLink(ctx, event.ID, entity.ID, ""))
	links, err = s.ListLinksByEntity(ctx, entity.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	project, timeline, event, entity := seed(t, s)

	parent := timeline.ID
	child, err := domain.NewTimeline(project.ID, project.UserID, "Branch", "", &parent, domain.StatusHypothetical)
	require.NoError(t, err)
	require.NoError(t, s.InsertTimeline(ctx, child))

	snap, err := domain.NewStateSnapshot(timeline.ID, t0, domain.NewWorldState())
	require.NoError(t, err)
	require.NoError(t, s.InsertSnapshot(ctx, snap))

	require.NoError(t, s.DeleteProject(ctx, project.ID))

	for _, check := range []func() (any, error){
		func() (any, error) { return s.GetTimeline(ctx, timeline.ID) },
		func() (any, error) { return s.GetTimeline(ctx, child.ID) },
		func() (any, error) { return s.GetEvent(ctx, event.ID) },
		func() (any, error) { return s.GetEntity(ctx, entity.ID) },
		func() (any, error) { return s.GetSnapshot(ctx, snap.ID) },
	} {
		got, err := check()
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	links, err := s.ListLinksByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestDeleteTimelineSurvivesParentCycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	project, timeline, _, _ := seed(t, s)

	parent := timeline.ID
	child, err := domain.NewTimeline(project.ID, project.UserID, "Loop", "", &parent, domain.StatusDraft)
	require.NoError(t, err)
	require.NoError(t, s.InsertTimeline(ctx, child))

	loop := child.ID
	timeline.ParentTimelineID = &loop
	require.NoError(t, s.UpdateTimeline(ctx, timeline))

	require.NoError(t, s.DeleteTimeline(ctx, timeline.ID))
	left, err := s.ListTimelinesByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRelationshipsByEndpointKind(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, timeline, event, entity := seed(t, s)

	r, err := domain.NewRelationship(domain.EntityRef(entity.ID), domain.EventRef(event.ID), domain.RelationReferential)
	require.NoError(t, err)
	require.NoError(t, s.InsertRelationship(ctx, r))

	other, err := domain.NewRelationship(domain.TimelineRef(timeline.ID), domain.EventRef(event.ID), domain.RelationHierarchical)
	require.NoError(t, err)
	require.NoError(t, s.InsertRelationship(ctx, other))

	bySource, err := s.ListRelationshipsBySource(ctx, entity.ID, domain.NodeEntity)
	require.NoError(t, err)
	assert.Len(t, bySource, 1)

	wrongKind, err := s.ListRelationshipsBySource(ctx, entity.ID, domain.NodeEvent)
	require.NoError(t, err)
	assert.Empty(t, wrongKind)

	byTarget, err := s.ListRelationshipsByTarget(ctx, event.ID, domain.NodeEvent)
	require.NoError(t, err)
	assert.Len(t, byTarget, 2)
}

func TestVectorStoreSearch(t *testing.T) {
	ctx := context.Background()
	v := NewVectorStore()
	near, far, other := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, v.InsertVector(ctx, near, []float32{1, 0.1}, map[string]string{"type": "event"}))
	require.NoError(t, v.InsertVector(ctx, far, []float32{0, 1}, map[string]string{"type": "event"}))
	require.NoError(t, v.InsertVector(ctx, other, []float32{1, 0}, map[string]string{"type": "entity"}))

	matches, err := v.SearchVectors(ctx, []float32{1, 0}, 10, map[string]string{"type": "event"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, near, matches[0].ID)
	assert.Equal(t, far, matches[1].ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)

	matches, err = v.SearchVectors(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, other, matches[0].ID)

	require.NoError(t, v.DeleteVector(ctx, other))
	got, err := v.GetVector(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, v.InsertVector(ctx, uuid.New(), nil, nil))
}
