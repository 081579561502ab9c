// Package memory provides map-backed implementations of the storage and
// vector ports. Deletes cascade the same way the SQL adapters' foreign keys
// do.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"timelines/internal/domain"
	"timelines/internal/store"
)

var _ store.Storage = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	projects      *table[*domain.Project]
	timelines     *table[*domain.Timeline]
	events        *table[*domain.Event]
	entities      *table[*domain.Entity]
	relationships *table[*domain.Relationship]
	snapshots     *table[*domain.StateSnapshot]
	links         []domain.EventEntityLink
}

func New() *Store {
	return &Store{
		projects:      newTable((*domain.Project).Clone),
		timelines:     newTable((*domain.Timeline).Clone),
		events:        newTable((*domain.Event).Clone),
		entities:      newTable((*domain.Entity).Clone),
		relationships: newTable((*domain.Relationship).Clone),
		snapshots:     newTable(cloneSnapshot),
	}
}

func cloneSnapshot(s *domain.StateSnapshot) *domain.StateSnapshot {
	out := *s
	out.State = s.State.Clone()
	return &out
}

func (s *Store) Initialize(ctx context.Context) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) InsertProject(ctx context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.projects.insert(p.ID, p); err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, _ := s.projects.get(id)
	return p, nil
}

func (s *Store) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects.list(func(p *domain.Project) bool { return p.UserID == userID }), nil
}

func (s *Store) UpdateProject(ctx context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.projects.update(p.ID, p) {
		return domain.NotFound("project", p.ID)
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.projects.delete(id) {
		return nil
	}
	for _, tid := range s.timelines.ids(func(t *domain.Timeline) bool { return t.ProjectID == id }) {
		s.deleteTimelineLocked(tid, map[uuid.UUID]struct{}{})
	}
	for _, eid := range s.entities.ids(func(e *domain.Entity) bool { return e.ProjectID == id }) {
		s.deleteEntityLocked(eid)
	}
	return nil
}

func (s *Store) InsertTimeline(ctx context.Context, t *domain.Timeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.timelines.insert(t.ID, t); err != nil {
		return fmt.Errorf("inserting timeline: %w", err)
	}
	return nil
}

func (s *Store) GetTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, _ := s.timelines.get(id)
	return t, nil
}

func (s *Store) ListTimelinesByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Timeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timelines.list(func(t *domain.Timeline) bool { return t.ProjectID == projectID }), nil
}

func (s *Store) ListTimelinesByParent(ctx context.Context, parentID uuid.UUID) ([]*domain.Timeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timelines.list(func(t *domain.Timeline) bool {
		return t.ParentTimelineID != nil && *t.ParentTimelineID == parentID
	}), nil
}

func (s *Store) UpdateTimeline(ctx context.Context, t *domain.Timeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.timelines.update(t.ID, t) {
		return domain.NotFound("timeline", t.ID)
	}
	return nil
}

func (s *Store) DeleteTimeline(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteTimelineLocked(id, map[uuid.UUID]struct{}{})
	return nil
}

func (s *Store) deleteTimelineLocked(id uuid.UUID, seen map[uuid.UUID]struct{}) {
	if _, ok := seen[id]; ok {
		return
	}
	seen[id] = struct{}{}
	if !s.timelines.delete(id) {
		return
	}
	for _, eid := range s.events.ids(func(e *domain.Event) bool { return e.TimelineID == id }) {
		s.deleteEventLocked(eid)
	}
	for _, sid := range s.snapshots.ids(func(snap *domain.StateSnapshot) bool { return snap.TimelineID == id }) {
		s.snapshots.delete(sid)
	}
	children := s.timelines.ids(func(t *domain.Timeline) bool {
		return t.ParentTimelineID != nil && *t.ParentTimelineID == id
	})
	for _, child := range children {
		s.deleteTimelineLocked(child, seen)
	}
}

func (s *Store) InsertEvent(ctx context.Context, e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.events.insert(e.ID, e); err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, _ := s.events.get(id)
	return e, nil
}

func (s *Store) ListEventsByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.list(func(e *domain.Event) bool { return e.TimelineID == timelineID }), nil
}

func (s *Store) UpdateEvent(ctx context.Context, e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.events.update(e.ID, e) {
		return domain.NotFound("event", e.ID)
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteEventLocked(id)
	return nil
}

func (s *Store) deleteEventLocked(id uuid.UUID) {
	if s.events.delete(id) {
		s.links = slices.DeleteFunc(s.links, func(l domain.EventEntityLink) bool { return l.EventID == id })
	}
}

func (s *Store) InsertEntity(ctx context.Context, e *domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.entities.insert(e.ID, e); err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	return nil
}

func (s *Store) GetEntity(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, _ := s.entities.get(id)
	return e, nil
}

func (s *Store) ListEntitiesByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.list(func(e *domain.Entity) bool { return e.ProjectID == projectID }), nil
}

func (s *Store) UpdateEntity(ctx context.Context, e *domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.entities.update(e.ID, e) {
		return domain.NotFound("entity", e.ID)
	}
	return nil
}

func (s *Store) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteEntityLocked(id)
	return nil
}

func (s *Store) deleteEntityLocked(id uuid.UUID) {
	if s.entities.delete(id) {
		s.links = slices.DeleteFunc(s.links, func(l domain.EventEntityLink) bool { return l.EntityID == id })
	}
}

func (s *Store) InsertRelationship(ctx context.Context, r *domain.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.relationships.insert(r.ID, r); err != nil {
		return fmt.Errorf("inserting relationship: %w", err)
	}
	return nil
}

func (s *Store) GetRelationship(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, _ := s.relationships.get(id)
	return r, nil
}

func (s *Store) ListRelationshipsBySource(ctx context.Context, sourceID uuid.UUID, kind domain.NodeKind) ([]*domain.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relationships.list(func(r *domain.Relationship) bool {
		return r.SourceID == sourceID && r.SourceKind == kind
	}), nil
}

func (s *Store) ListRelationshipsByTarget(ctx context.Context, targetID uuid.UUID, kind domain.NodeKind) ([]*domain.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relationships.list(func(r *domain.Relationship) bool {
		return r.TargetID == targetID && r.TargetKind == kind
	}), nil
}

func (s *Store) UpdateRelationship(ctx context.Context, r *domain.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.relationships.update(r.ID, r) {
		return domain.NotFound("relationship", r.ID)
	}
	return nil
}

func (s *Store) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships.delete(id)
	return nil
}

func (s *Store) InsertSnapshot(ctx context.Context, snap *domain.StateSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.snapshots.insert(snap.ID, snap); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

func (s *Store) GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.StateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, _ := s.snapshots.get(id)
	return snap, nil
}

func (s *Store) ListSnapshotsByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*domain.StateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots.list(func(snap *domain.StateSnapshot) bool { return snap.TimelineID == timelineID }), nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots.delete(id)
	return nil
}

func (s *Store) InsertEventEntityLink(ctx context.Context, l *domain.EventEntityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.links, *l) {
		return nil
	}
	s.links = append(s.links, *l)
	return nil
}

func (s *Store) ListLinksByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.EventEntityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterLinks(func(l domain.EventEntityLink) bool { return l.EventID == eventID }), nil
}

func (s *Store) ListLinksByEntity(ctx context.Context, entityID uuid.UUID) ([]*domain.EventEntityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterLinks(func(l domain.EventEntityLink) bool { return l.EntityID == entityID }), nil
}

func (s *Store) DeleteEventEntityLink(ctx context.Context, eventID, entityID uuid.UUID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = slices.DeleteFunc(s.links, func(l domain.EventEntityLink) bool {
		return l.EventID == eventID && l.EntityID == entityID && (role == "" || l.Role == role)
	})
	return nil
}

func (s *Store) filterLinks(keep func(domain.EventEntityLink) bool) []*domain.EventEntityLink {
	out := make([]*domain.EventEntityLink, 0)
	for _, l := range s.links {
		if keep(l) {
			link := l
			out = append(out, &link)
		}
	}
	return out
}
