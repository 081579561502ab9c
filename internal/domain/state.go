package domain

import (
	"time"

	"github.com/google/uuid"
)

// StateDelta is the change an event makes to the world.
type StateDelta struct {
	GlobalChanges Properties               `json:"global_changes,omitempty"`
	EntityChanges map[uuid.UUID]Properties `json:"entity_changes,omitempty"`
}

func (d StateDelta) IsEmpty() bool {
	return len(d.GlobalChanges) == 0 && len(d.EntityChanges) == 0
}

func (d StateDelta) Clone() StateDelta {
	out := StateDelta{GlobalChanges: d.GlobalChanges.Clone()}
	if d.EntityChanges != nil {
		out.EntityChanges = make(map[uuid.UUID]Properties, len(d.EntityChanges))
		for id, props := range d.EntityChanges {
			out.EntityChanges[id] = props.Clone()
		}
	}
	return out
}

// WorldState is the accumulated state at some instant.
type WorldState struct {
	GlobalProperties Properties               `json:"global_properties"`
	EntityStates     map[uuid.UUID]Properties `json:"entity_states"`
}

func NewWorldState() WorldState {
	return WorldState{
		GlobalProperties: Properties{},
		EntityStates:     map[uuid.UUID]Properties{},
	}
}

func (w WorldState) Clone() WorldState {
	out := NewWorldState()
	out.GlobalProperties.Merge(w.GlobalProperties)
	for id, props := range w.EntityStates {
		if props == nil {
			props = Properties{}
		}
		out.EntityStates[id] = props.Clone()
	}
	return out
}

// Apply merges a delta into the state, last write wins per key. When
// entities is non-nil only entity changes for ids in the set are applied.
func (w *WorldState) Apply(delta StateDelta, entities map[uuid.UUID]struct{}) {
	if w.GlobalProperties == nil {
		w.GlobalProperties = Properties{}
	}
	if w.EntityStates == nil {
		w.EntityStates = map[uuid.UUID]Properties{}
	}

	w.GlobalProperties.Merge(delta.GlobalChanges)
	for id, changes := range delta.EntityChanges {
		if entities != nil {
			if _, ok := entities[id]; !ok {
				continue
			}
		}
		current := w.EntityStates[id]
		if current == nil {
			current = Properties{}
			w.EntityStates[id] = current
		}
		current.Merge(changes)
	}
}

// StateSnapshot is a cached world state checkpoint for a timeline.
type StateSnapshot struct {
	ID         uuid.UUID  `json:"id"`
	TimelineID uuid.UUID  `json:"timeline_id"`
	Timestamp  time.Time  `json:"timestamp"`
	State      WorldState `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
}

func NewStateSnapshot(timelineID uuid.UUID, timestamp time.Time, state WorldState) (*StateSnapshot, error) {
	s := &StateSnapshot{
		ID:         uuid.New(),
		TimelineID: timelineID,
		Timestamp:  timestamp.UTC(),
		State:      state.Clone(),
		CreatedAt:  now(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *StateSnapshot) Validate() error {
	if s.TimelineID == uuid.Nil {
		return invalid("timeline_id", "is required")
	}
	if s.Timestamp.IsZero() {
		return invalid("timestamp", "is required")
	}
	return nil
}
