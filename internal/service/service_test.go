package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"timelines/internal/domain"
	"timelines/internal/repository"
	"timelines/internal/store/memory"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, uuid.UUID) {
	t.Helper()
	svc := New(repository.New(memory.New(), memory.NewVectorStore()), zaptest.NewLogger(t))
	require.NoError(t, svc.Initialize(context.Background()))
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc, uuid.New()
}

func TestProjectOwnership(t *testing.T) {
	svc, user := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, user, "Chronicle", "")
	require.NoError(t, err)

	got, err := svc.GetProject(ctx, user, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.GetProject(ctx, uuid.New(), p.ID)
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.CreateTimeline(ctx, uuid.New(), p.ID, "Main", "", nil, "")
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetProject(ctx, user, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)

	again, err := svc.EnsureProject(ctx, user, "Chronicle")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	projects, err := svc.ListUserProjects(ctx, user)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestCreateTimelineParentChecks(t *testing.T) {
	svc, user := newService(t)
	ctx := context.Background()
	p1, _ := svc.CreateProject(ctx, user, "One", "")
	p2, _ := svc.CreateProject(ctx, user, "Two", "")
	main, err := svc.CreateTimeline(ctx, user, p1.ID, "Main", "", nil, "")
	require.NoError(t, err)

	_, err = svc.CreateTimeline(ctx, user, p2.ID, "Stray", "", &main.ID, "")
	require.ErrorIs(t, err, domain.ErrInvalid)

	missing := uuid.New()
	_, err = svc.CreateTimeline(ctx, user, p1.ID, "Orphan", "", &missing, "")
	require.ErrorIs(t, err, domain.ErrNotFound)

	branch, err := svc.CreateTimeline(ctx, user, p1.ID, "Branch", "", &main.ID, domain.StatusDraft)
	require.NoError(t, err)
	tree, err := svc.GetTimelineTree(ctx, main.ID, -1)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, branch.ID, tree[1].ID)

	found, err := svc.FindTimeline(ctx, p1.ID, "Branch")
	require.NoError(t, err)
	assert.Equal(t, branch.ID, found.ID)
}

func TestEventLifecycle(t *testing.T) {
	svc, user := newService(t)
	ctx := context.Background()
	p, _ := svc.CreateProject(ctx, user, "Saga", "")
	tl, _ := svc.CreateTimeline(ctx, user, p.ID, "Main", "", nil, "")
	hero, err := svc.CreateEntity(ctx, user, EntityInput{
		ProjectID: p.ID, EntityType: domain.EntityCharacter, Name: "Hero", Description: "the lead",
		Embedding: []float32{0, 1},
	})
	require.NoError(t, err)

	_, err = svc.AddEvent(ctx, EventInput{TimelineID: uuid.New(), Timestamp: t0, EventType: domain.EventCreation, Description: "x"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	high := decimal.RequireFromString("0.9")
	born, err := svc.AddEvent(ctx, EventInput{
		TimelineID: tl.ID, Timestamp: t0, EventType: domain.EventCreation, Description: "hero is born",
		Importance: &high,
		StateDelta: domain.StateDelta{EntityChanges: map[uuid.UUID]domain.Properties{hero.ID: {"alive": domain.BoolValue(true)}}},
		Embedding:  []float32{1, 0},
	})
	require.NoError(t, err)
	trained, err := svc.AddEvent(ctx, EventInput{
		TimelineID: tl.ID, Timestamp: t0.Add(24 * time.Hour), EventType: domain.EventTransition, Description: "hero trains",
		Embedding: []float32{0.7, 0.7},
	})
	require.NoError(t, err)

	require.NoError(t, svc.LinkEventEntity(ctx, born.ID, hero.ID, domain.RoleSubject))
	require.ErrorIs(t, svc.LinkEventEntity(ctx, uuid.New(), hero.ID, domain.RoleSubject), domain.ErrNotFound)

	events, err := svc.GetEntityEvents(ctx, hero.ID, tl.ID, repository.EntityEventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	rel, err := svc.EstablishCausality(ctx, born.ID, trained.ID, domain.DefaultStrength)
	require.NoError(t, err)
	assert.Equal(t, domain.RelationCausal, rel.RelationType)
	_, err = svc.EstablishCausality(ctx, born.ID, born.ID, domain.DefaultStrength)
	require.ErrorIs(t, err, domain.ErrInvalid)

	paths, err := svc.TraceCausalChain(ctx, trained.ID, "causes", -1)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, []uuid.UUID{trained.ID, born.ID}, []uuid.UUID{paths[0].Events[0].ID, paths[0].Events[1].ID})

	snap, err := svc.SaveCheckpoint(ctx, tl.ID, t0)
	require.NoError(t, err)
	alive, ok := snap.State.EntityStates[hero.ID]["alive"].AsBool()
	require.True(t, ok)
	assert.True(t, alive)

	recent, err := svc.GetRecentEvents(ctx, tl.ID, t0.Add(48*time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, trained.ID, recent[0].ID)

	hits, err := svc.SearchSimilarEvents(ctx, []float32{1, 0}, []uuid.UUID{tl.ID}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, born.ID, hits[0].Event.ID)

	similar, err := svc.SearchSimilarEntities(ctx, []float32{0, 1}, p.ID, 3)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, hero.ID, similar[0].Entity.ID)

	summary, err := svc.GetTimelineSummary(ctx, tl.ID, t0.Add(48*time.Hour), 10, repository.DefaultImportanceThreshold)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.EventCount)
	require.Len(t, summary.ImportantEvents, 1)

	n, err := svc.CompressEvents(ctx, tl.ID, t0.Add(48*time.Hour), decimal.RequireFromString("0.6"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.FindEntity(ctx, p.ID, "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIsForward(t *testing.T) {
	for _, d := range []string{"forward", "Effects", " consequences "} {
		assert.True(t, IsForward(d), d)
	}
	for _, d := range []string{"backward", "causes", ""} {
		assert.False(t, IsForward(d), d)
	}
}
