package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewEvent(t *testing.T) {
	timelineID := uuid.New()

	t.Run("defaults", func(t *testing.T) {
		e, err := NewEvent(timelineID, t0, EventInteraction, "  a meeting  ")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.Equal(t, "a meeting", e.Description)
		assert.True(t, e.ImportanceScore.Equal(DefaultImportance))
		assert.Equal(t, DetailSummary, e.DetailLevel)
		assert.Nil(t, e.EndTimestamp)
		assert.Equal(t, time.UTC, e.CreatedAt.Location())
	})

	t.Run("normalizes timestamp to utc", func(t *testing.T) {
		zone := time.FixedZone("plus2", 2*60*60)
		e, err := NewEvent(timelineID, t0.In(zone), EventMilestone, "x")
		require.NoError(t, err)
		assert.Equal(t, time.UTC, e.Timestamp.Location())
		assert.True(t, e.Timestamp.Equal(t0))
	})

	t.Run("end must follow start", func(t *testing.T) {
		_, err := NewEvent(timelineID, t0, EventMilestone, "x", WithEndTimestamp(t0))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalid))

		_, err = NewEvent(timelineID, t0, EventMilestone, "x", WithEndTimestamp(t0.Add(-time.Second)))
		assert.ErrorIs(t, err, ErrInvalid)

		e, err := NewEvent(timelineID, t0, EventMilestone, "x", WithEndTimestamp(t0.Add(time.Second)))
		require.NoError(t, err)
		require.NotNil(t, e.EndTimestamp)
	})

	t.Run("importance range", func(t *testing.T) {
		for _, score := range []string{"-0.01", "1.01"} {
			_, err := NewEvent(timelineID, t0, EventMilestone, "x", WithImportance(decimal.RequireFromString(score)))
			assert.ErrorIs(t, err, ErrInvalid, score)
		}
		for _, score := range []string{"0", "1"} {
			_, err := NewEvent(timelineID, t0, EventMilestone, "x", WithImportance(decimal.RequireFromString(score)))
			assert.NoError(t, err, score)
		}
	})

	t.Run("rejects bad fields", func(t *testing.T) {
		_, err := NewEvent(timelineID, t0, EventMilestone, "   ")
		assert.ErrorIs(t, err, ErrInvalid)

		_, err = NewEvent(timelineID, t0, EventType("gossip"), "x")
		assert.ErrorIs(t, err, ErrInvalid)

		_, err = NewEvent(timelineID, t0, EventMilestone, "x", WithDetailLevel(3))
		assert.ErrorIs(t, err, ErrInvalid)

		_, err = NewEvent(uuid.Nil, t0, EventMilestone, "x")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("validation error names the field", func(t *testing.T) {
		_, err := NewEvent(timelineID, t0, EventMilestone, "")
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "description", verr.Field)
	})
}

func TestNewRelationship(t *testing.T) {
	a, b := EventRef(uuid.New()), EventRef(uuid.New())
	from := t0
	until := t0.Add(time.Hour)

	r, err := NewRelationship(a, b, RelationCausal)
	require.NoError(t, err)
	assert.True(t, r.Strength.Equal(DefaultStrength))

	_, err = NewRelationship(a, b, RelationCausal, WithValidity(&until, &from))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewRelationship(a, b, RelationCausal, WithValidity(&from, &from))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewRelationship(a, b, RelationType("likes"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewRelationship(a, NodeRef{ID: uuid.New(), Kind: "chapter"}, RelationCausal)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewRelationship(a, b, RelationCausal, WithStrength(decimal.NewFromInt(2)))
	assert.ErrorIs(t, err, ErrInvalid)

	r, err = NewRelationship(a, b, RelationTemporal, WithValidity(&from, &until))
	require.NoError(t, err)
	assert.True(t, r.ValidAt(from))
	assert.True(t, r.ValidAt(until))
	assert.False(t, r.ValidAt(from.Add(-time.Nanosecond)))
	assert.False(t, r.ValidAt(until.Add(time.Nanosecond)))
}

func TestNewEventEntityLink(t *testing.T) {
	l, err := NewEventEntityLink(uuid.New(), uuid.New(), "  Actor ")
	require.NoError(t, err)
	assert.Equal(t, "actor", l.Role)

	_, err = NewEventEntityLink(uuid.New(), uuid.New(), " ")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNameLength(t *testing.T) {
	long := make([]rune, 256)
	for i := range long {
		long[i] = 'a'
	}
	_, err := NewProject(uuid.New(), string(long), "", nil)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewProject(uuid.New(), string(long[:255]), "", nil)
	assert.NoError(t, err)

	_, err = NewEntity(uuid.New(), EntityPlace, "Tavern", "", nil)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNewTimelineDefaultsToCanonical(t *testing.T) {
	tl, err := NewTimeline(uuid.New(), uuid.New(), "Main", "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCanonical, tl.Status)
	assert.True(t, tl.IsRoot())

	_, err = NewTimeline(uuid.New(), uuid.New(), "Main", "", nil, TimelineStatus("dreamt"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWorldStateApply(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	state := NewWorldState()

	state.Apply(StateDelta{
		GlobalChanges: Properties{"weather": StringValue("rain")},
		EntityChanges: map[uuid.UUID]Properties{
			alice: {"mood": StringValue("happy")},
			bob:   {"mood": StringValue("sad")},
		},
	}, map[uuid.UUID]struct{}{alice: {}})

	assert.Equal(t, "rain", state.GlobalProperties["weather"].String())
	assert.Contains(t, state.EntityStates, alice)
	assert.NotContains(t, state.EntityStates, bob)

	clone := state.Clone()
	clone.Apply(StateDelta{EntityChanges: map[uuid.UUID]Properties{alice: {"mood": StringValue("angry")}}}, nil)
	assert.Equal(t, "happy", state.EntityStates[alice]["mood"].String())
	assert.Equal(t, "angry", clone.EntityStates[alice]["mood"].String())
}

func TestWorldStateNilEntityEntry(t *testing.T) {
	alice := uuid.New()
	state := WorldState{
		GlobalProperties: Properties{},
		EntityStates:     map[uuid.UUID]Properties{alice: nil},
	}

	clone := state.Clone()
	assert.NotNil(t, clone.EntityStates[alice])

	state.Apply(StateDelta{EntityChanges: map[uuid.UUID]Properties{alice: {"mood": StringValue("calm")}}}, nil)
	assert.Equal(t, "calm", state.EntityStates[alice]["mood"].String())
}
