package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"timelines/internal/domain"
	"timelines/internal/store/memory"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(hours int) time.Time { return base.Add(time.Duration(hours) * time.Hour) }

type fixture struct {
	repo     *Repository
	project  *domain.Project
	timeline *domain.Timeline
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	repo := New(memory.New(), memory.NewVectorStore())
	require.NoError(t, repo.Initialize(ctx))
	t.Cleanup(func() { _ = repo.Close(ctx) })

	project, err := repo.CreateProject(ctx, uuid.New(), "Saga", "", nil)
	require.NoError(t, err)
	timeline, err := repo.CreateTimeline(ctx, project.ID, project.UserID, "Main", "", nil, "")
	require.NoError(t, err)
	return fixture{repo: repo, project: project, timeline: timeline}
}

func (f fixture) event(t *testing.T, hours int, desc string, opts ...domain.EventOption) *domain.Event {
	t.Helper()
	e, err := f.repo.AddEvent(context.Background(), f.timeline.ID, at(hours), domain.EventObservation, desc, opts...)
	require.NoError(t, err)
	return e
}

func (f fixture) entity(t *testing.T, typ domain.EntityType, name string) *domain.Entity {
	t.Helper()
	e, err := f.repo.CreateEntity(context.Background(), f.project.ID, typ, name, name+" description", nil)
	require.NoError(t, err)
	return e
}

func descriptions(events []*domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Description
	}
	return out
}

func TestCreateRejectsInvalidBeforeStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.CreateProject(ctx, uuid.New(), "", "", nil)
	require.ErrorIs(t, err, domain.ErrInvalid)

	_, err = f.repo.AddEvent(ctx, f.timeline.ID, at(1), domain.EventType("gossip"), "x")
	require.ErrorIs(t, err, domain.ErrInvalid)

	events, err := f.repo.QueryEvents(ctx, f.timeline.ID, EventFilter{})
	require.NoError(t, err)
	require.Empty(t, events)
}

// Alice and Bob meet in the tavern, fall out, and the state and linkage
// queries have to agree on what happened.
func TestTavernScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.entity(t, domain.EntityCharacter, "Alice")
	bob := f.entity(t, domain.EntityCharacter, "Bob")
	tavern := f.entity(t, domain.EntityPlace, "Tavern")

	meet := f.event(t, 1, "Alice meets Bob", domain.WithStateDelta(domain.StateDelta{
		GlobalChanges: domain.Properties{"weather": domain.StringValue("rain")},
		EntityChanges: map[uuid.UUID]domain.Properties{
			alice.ID: {"mood": domain.StringValue("happy")},
			bob.ID:   {"mood": domain.StringValue("curious")},
		},
	}))
	argue := f.event(t, 2, "They argue", domain.WithStateDelta(domain.StateDelta{
		EntityChanges: map[uuid.UUID]domain.Properties{
			alice.ID: {"mood": domain.StringValue("angry")},
		},
	}))
	leave := f.event(t, 3, "Bob leaves")

	for _, e := range []*domain.Event{meet, argue} {
		require.NoError(t, f.repo.LinkEventEntity(ctx, e.ID, alice.ID, "Actor"))
		require.NoError(t, f.repo.LinkEventEntity(ctx, e.ID, bob.ID, "actor"))
		require.NoError(t, f.repo.LinkEventEntity(ctx, e.ID, tavern.ID, domain.RoleLocation))
	}
	require.NoError(t, f.repo.LinkEventEntity(ctx, leave.ID, bob.ID, domain.RoleActor))

	state, err := f.repo.ReconstructStateAt(ctx, f.timeline.ID, at(2), nil)
	require.NoError(t, err)
	require.Equal(t, domain.StringValue("angry"), state.EntityStates[alice.ID]["mood"])
	require.Equal(t, domain.StringValue("curious"), state.EntityStates[bob.ID]["mood"])
	require.Equal(t, domain.StringValue("rain"), state.GlobalProperties["weather"])

	state, err = f.repo.ReconstructStateAt(ctx, f.timeline.ID, at(1), nil)
	require.NoError(t, err)
	require.Equal(t, domain.StringValue("happy"), state.EntityStates[alice.ID]["mood"])

	atTavern, err := f.repo.GetEventsAtLocation(ctx, tavern.ID, f.timeline.ID, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Alice meets Bob", "They argue"}, descriptions(atTavern))

	both, err := f.repo.GetEventsWithEntities(ctx, []uuid.UUID{alice.ID, bob.ID}, f.timeline.ID, true, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Alice meets Bob", "They argue"}, descriptions(both))

	either, err := f.repo.GetEventsWithEntities(ctx, []uuid.UUID{alice.ID, bob.ID}, f.timeline.ID, false, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Alice meets Bob", "They argue", "Bob leaves"}, descriptions(either))

	roles, err := f.repo.GetEventEntities(ctx, meet.ID)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	require.Equal(t, "actor", roles[0].Role)
}
