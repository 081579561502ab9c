package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelines/internal/domain"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://"+filepath.Join(t.TempDir(), "timelines.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(ctx) })
	require.NoError(t, client.Initialize(ctx))
	require.NoError(t, client.Initialize(ctx), "schema creation must be repeatable")
	return client
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)

	project, err := domain.NewProject(uuid.New(), "Saga", "a long story", domain.Properties{"genre": domain.StringValue("fantasy")})
	require.NoError(t, err)
	require.NoError(t, c.InsertProject(ctx, project))

	timeline, err := domain.NewTimeline(project.ID, project.UserID, "Main", "", nil, domain.StatusCanonical)
	require.NoError(t, err)
	require.NoError(t, c.InsertTimeline(ctx, timeline))

	alice, err := domain.NewEntity(project.ID, domain.EntityCharacter, "Alice", "a traveller", domain.Properties{"age": domain.IntValue(31)})
	require.NoError(t, err)
	require.NoError(t, c.InsertEntity(ctx, alice))

	event, err := domain.NewEvent(timeline.ID, t0, domain.EventInteraction, "Alice arrives",
		domain.WithEndTimestamp(t0.Add(time.Hour)),
		domain.WithImportance(decimal.RequireFromString("0.75")),
		domain.WithDetailLevel(domain.DetailFull),
		domain.WithStateDelta(domain.StateDelta{
			GlobalChanges: domain.Properties{"weather": domain.StringValue("rain")},
			EntityChanges: map[uuid.UUID]domain.Properties{alice.ID: {"location": domain.StringValue("tavern")}},
		}),
	)
	require.NoError(t, err)
	require.NoError(t, c.InsertEvent(ctx, event))

	gotProject, err := c.GetProject(ctx, project.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(project, gotProject); diff != "" {
		t.Fatalf("project mismatch (-want +got):\n%s", diff)
	}

	gotEvent, err := c.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(event, gotEvent); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}

	gotEntity, err := c.GetEntity(ctx, alice.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(alice, gotEntity); diff != "" {
		t.Fatalf("entity mismatch (-want +got):\n%s", diff)
	}

	missing, err := c.GetTimeline(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRelationshipsAndSnapshots(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)

	project, err := domain.NewProject(uuid.New(), "Saga", "", nil)
	require.NoError(t, err)
	require.NoError(t, c.InsertProject(ctx, project))
	timeline, err := domain.NewTimeline(project.ID, project.UserID, "Main", "", nil, "")
	require.NoError(t, err)
	require.NoError(t, c.InsertTimeline(ctx, timeline))

	from, until := t0, t0.Add(24*time.Hour)
	a, b := uuid.New(), uuid.New()
	rel, err := domain.NewRelationship(domain.EventRef(a), domain.EventRef(b), domain.RelationCausal,
		domain.WithValidity(&from, &until), domain.WithStrength(decimal.RequireFromString("0.3")))
	require.NoError(t, err)
	require.NoError(t, c.InsertRelationship(ctx, rel))

	bySource, err := c.ListRelationshipsBySource(ctx, a, domain.NodeEvent)
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	if diff := cmp.Diff(rel, bySource[0]); diff != "" {
		t.Fatalf("relationship mismatch (-want +got):\n%s", diff)
	}

	byTarget, err := c.ListRelationshipsByTarget(ctx, b, domain.NodeEntity)
	require.NoError(t, err)
	assert.Empty(t, byTarget)

	state := domain.NewWorldState()
	state.GlobalProperties["season"] = domain.StringValue("winter")
	snap, err := domain.NewStateSnapshot(timeline.ID, t0, state)
	require.NoError(t, err)
	require.NoError(t, c.InsertSnapshot(ctx, snap))

	snaps, err := c.ListSnapshotsByTimeline(ctx, timeline.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "winter", snaps[0].State.GlobalProperties["season"].String())
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)

	project, err := domain.NewProject(uuid.New(), "Saga", "", nil)
	require.NoError(t, err)
	require.NoError(t, c.InsertProject(ctx, project))
	timeline, err := domain.NewTimeline(project.ID, project.UserID, "Main", "", nil, "")
	require.NoError(t, err)
	require.NoError(t, c.InsertTimeline(ctx, timeline))
	parent := timeline.ID
	branch, err := domain.NewTimeline(project.ID, project.UserID, "Branch", "", &parent, domain.StatusHypothetical)
	require.NoError(t, err)
	require.NoError(t, c.InsertTimeline(ctx, branch))

	event, err := domain.NewEvent(branch.ID, t0, domain.EventMilestone, "fork point")
	require.NoError(t, err)
	require.NoError(t, c.InsertEvent(ctx, event))
	entity, err := domain.NewEntity(project.ID, domain.EntityPlace, "Tavern", "a tavern", nil)
	require.NoError(t, err)
	require.NoError(t, c.InsertEntity(ctx, entity))

	link, err := domain.NewEventEntityLink(event.ID, entity.ID, domain.RoleLocation)
	require.NoError(t, err)
	require.NoError(t, c.InsertEventEntityLink(ctx, link))
	require.NoError(t, c.InsertEventEntityLink(ctx, link), "duplicate links are ignored")

	links, err := c.ListLinksByEntity(ctx, entity.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	require.NoError(t, c.DeleteTimeline(ctx, timeline.ID))

	gotBranch, err := c.GetTimeline(ctx, branch.ID)
	require.NoError(t, err)
	assert.Nil(t, gotBranch)
	gotEvent, err := c.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Nil(t, gotEvent)
	links, err = c.ListLinksByEntity(ctx, entity.ID)
	require.NoError(t, err)
	assert.Empty(t, links)

	require.NoError(t, c.DeleteProject(ctx, project.ID))
	gotEntity, err := c.GetEntity(ctx, entity.ID)
	require.NoError(t, err)
	assert.Nil(t, gotEntity)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	c := openTestClient(t)
	e, err := domain.NewEvent(uuid.New(), t0, domain.EventMilestone, "ghost")
	require.NoError(t, err)
	assert.ErrorIs(t, c.UpdateEvent(context.Background(), e), domain.ErrNotFound)
}

func TestListEventsInRange(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)
	timelineID := uuid.New()

	// fractional seconds sort before whole ones as text
	offsets := map[string]time.Duration{
		"early":      -time.Second,
		"at start":   0,
		"mid second": 500 * time.Millisecond,
		"at end":     2 * time.Second,
		"just after": 2*time.Second + time.Millisecond,
	}
	for desc, d := range offsets {
		e, err := domain.NewEvent(timelineID, t0.Add(d), domain.EventObservation, desc)
		require.NoError(t, err)
		require.NoError(t, c.InsertEvent(ctx, e))
	}
	other, err := domain.NewEvent(uuid.New(), t0, domain.EventObservation, "other timeline")
	require.NoError(t, err)
	require.NoError(t, c.InsertEvent(ctx, other))

	got, err := c.ListEventsInRange(ctx, timelineID, t0, t0.Add(2*time.Second))
	require.NoError(t, err)
	descs := make([]string, 0, len(got))
	for _, e := range got {
		descs = append(descs, e.Description)
	}
	assert.ElementsMatch(t, []string{"at start", "mid second", "at end"}, descs)

	got, err = c.ListEventsInRange(ctx, timelineID, t0.Add(100*time.Millisecond), t0.Add(900*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mid second", got[0].Description)
}
