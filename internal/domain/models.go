package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxNameLength = 255
	maxRoleLength = 100

	DetailCompressed = 0
	DetailSummary    = 1
	DetailFull       = 2
)

var (
	DefaultImportance = decimal.RequireFromString("0.5")
	DefaultStrength   = decimal.NewFromInt(1)

	decimalZero = decimal.Zero
	decimalOne  = decimal.NewFromInt(1)
)

var now = func() time.Time { return time.Now().UTC() }

type Project struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Metadata    Properties `json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func NewProject(userID uuid.UUID, name, description string, metadata Properties) (*Project, error) {
	p := &Project{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: description,
		Metadata:    metadata.Clone(),
		CreatedAt:   now(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) Validate() error {
	if p.UserID == uuid.Nil {
		return invalid("user_id", "is required")
	}
	return validateName(p.Name)
}

func (p *Project) Clone() *Project {
	out := *p
	out.Metadata = p.Metadata.Clone()
	return &out
}

type Timeline struct {
	ID               uuid.UUID      `json:"id"`
	ProjectID        uuid.UUID      `json:"project_id"`
	UserID           uuid.UUID      `json:"user_id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	ParentTimelineID *uuid.UUID     `json:"parent_timeline_id,omitempty"`
	Status           TimelineStatus `json:"status"`
	Metadata         Properties     `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func NewTimeline(projectID, userID uuid.UUID, name, description string, parentID *uuid.UUID, status TimelineStatus) (*Timeline, error) {
	if status == "" {
		status = StatusCanonical
	}
	t := &Timeline{
		ID:               uuid.New(),
		ProjectID:        projectID,
		UserID:           userID,
		Name:             strings.TrimSpace(name),
		Description:      description,
		ParentTimelineID: cloneID(parentID),
		Status:           status,
		CreatedAt:        now(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Timeline) Validate() error {
	if t.ProjectID == uuid.Nil {
		return invalid("project_id", "is required")
	}
	if t.UserID == uuid.Nil {
		return invalid("user_id", "is required")
	}
	if !t.Status.Valid() {
		return invalid("status", "unknown timeline status %q", t.Status)
	}
	return validateName(t.Name)
}

func (t *Timeline) IsRoot() bool { return t.ParentTimelineID == nil }

func (t *Timeline) Clone() *Timeline {
	out := *t
	out.ParentTimelineID = cloneID(t.ParentTimelineID)
	out.Metadata = t.Metadata.Clone()
	return &out
}

type Event struct {
	ID              uuid.UUID       `json:"id"`
	TimelineID      uuid.UUID       `json:"timeline_id"`
	Timestamp       time.Time       `json:"timestamp"`
	EndTimestamp    *time.Time      `json:"end_timestamp,omitempty"`
	EventType       EventType       `json:"event_type"`
	Description     string          `json:"description"`
	ImportanceScore decimal.Decimal `json:"importance_score"`
	DetailLevel     int             `json:"detail_level"`
	StateDelta      StateDelta      `json:"state_delta"`
	Metadata        Properties      `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type EventOption func(*Event)

func WithEndTimestamp(end time.Time) EventOption {
	return func(e *Event) {
		end = end.UTC()
		e.EndTimestamp = &end
	}
}

func WithImportance(score decimal.Decimal) EventOption {
	return func(e *Event) { e.ImportanceScore = score }
}

func WithDetailLevel(level int) EventOption {
	return func(e *Event) { e.DetailLevel = level }
}

func WithStateDelta(delta StateDelta) EventOption {
	return func(e *Event) { e.StateDelta = delta.Clone() }
}

func WithEventMetadata(metadata Properties) EventOption {
	return func(e *Event) { e.Metadata = metadata.Clone() }
}

func NewEvent(timelineID uuid.UUID, timestamp time.Time, eventType EventType, description string, opts ...EventOption) (*Event, error) {
	e := &Event{
		ID:              uuid.New(),
		TimelineID:      timelineID,
		Timestamp:       timestamp.UTC(),
		EventType:       eventType,
		Description:     strings.TrimSpace(description),
		ImportanceScore: DefaultImportance,
		DetailLevel:     DetailSummary,
		CreatedAt:       now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Event) Validate() error {
	if e.TimelineID == uuid.Nil {
		return invalid("timeline_id", "is required")
	}
	if e.Timestamp.IsZero() {
		return invalid("timestamp", "is required")
	}
	if e.EndTimestamp != nil && !e.EndTimestamp.After(e.Timestamp) {
		return invalid("end_timestamp", "must be after timestamp")
	}
	if !e.EventType.Valid() {
		return invalid("event_type", "unknown event type %q", e.EventType)
	}
	if e.Description == "" {
		return invalid("description", "is required")
	}
	if err := validateUnit("importance_score", e.ImportanceScore); err != nil {
		return err
	}
	if e.DetailLevel < DetailCompressed || e.DetailLevel > DetailFull {
		return invalid("detail_level", "must be between %d and %d", DetailCompressed, DetailFull)
	}
	return nil
}

func (e *Event) Clone() *Event {
	out := *e
	if e.EndTimestamp != nil {
		end := *e.EndTimestamp
		out.EndTimestamp = &end
	}
	out.StateDelta = e.StateDelta.Clone()
	out.Metadata = e.Metadata.Clone()
	return &out
}

type Entity struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	EntityType  EntityType `json:"entity_type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Properties  Properties `json:"properties,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func NewEntity(projectID uuid.UUID, entityType EntityType, name, description string, properties Properties) (*Entity, error) {
	e := &Entity{
		ID:          uuid.New(),
		ProjectID:   projectID,
		EntityType:  entityType,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Properties:  properties.Clone(),
		CreatedAt:   now(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Entity) Validate() error {
	if e.ProjectID == uuid.Nil {
		return invalid("project_id", "is required")
	}
	if !e.EntityType.Valid() {
		return invalid("entity_type", "unknown entity type %q", e.EntityType)
	}
	if err := validateName(e.Name); err != nil {
		return err
	}
	if e.Description == "" {
		return invalid("description", "is required")
	}
	return nil
}

func (e *Entity) Clone() *Entity {
	out := *e
	out.Properties = e.Properties.Clone()
	return &out
}

type Relationship struct {
	ID           uuid.UUID       `json:"id"`
	SourceID     uuid.UUID       `json:"source_id"`
	SourceKind   NodeKind        `json:"source_type"`
	TargetID     uuid.UUID       `json:"target_id"`
	TargetKind   NodeKind        `json:"target_type"`
	RelationType RelationType    `json:"relation_type"`
	Strength     decimal.Decimal `json:"strength"`
	ValidFrom    *time.Time      `json:"valid_from,omitempty"`
	ValidUntil   *time.Time      `json:"valid_until,omitempty"`
	Metadata     Properties      `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NodeRef names one endpoint of a relationship.
type NodeRef struct {
	ID   uuid.UUID
	Kind NodeKind
}

func EventRef(id uuid.UUID) NodeRef    { return NodeRef{ID: id, Kind: NodeEvent} }
func EntityRef(id uuid.UUID) NodeRef   { return NodeRef{ID: id, Kind: NodeEntity} }
func TimelineRef(id uuid.UUID) NodeRef { return NodeRef{ID: id, Kind: NodeTimeline} }

type RelationshipOption func(*Relationship)

func WithStrength(strength decimal.Decimal) RelationshipOption {
	return func(r *Relationship) { r.Strength = strength }
}

func WithValidity(from, until *time.Time) RelationshipOption {
	return func(r *Relationship) {
		r.ValidFrom = cloneTime(from)
		r.ValidUntil = cloneTime(until)
	}
}

func WithRelationshipMetadata(metadata Properties) RelationshipOption {
	return func(r *Relationship) { r.Metadata = metadata.Clone() }
}

func NewRelationship(source, target NodeRef, relationType RelationType, opts ...RelationshipOption) (*Relationship, error) {
	r := &Relationship{
		ID:           uuid.New(),
		SourceID:     source.ID,
		SourceKind:   source.Kind,
		TargetID:     target.ID,
		TargetKind:   target.Kind,
		RelationType: relationType,
		Strength:     DefaultStrength,
		CreatedAt:    now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Relationship) Validate() error {
	if r.SourceID == uuid.Nil {
		return invalid("source_id", "is required")
	}
	if r.TargetID == uuid.Nil {
		return invalid("target_id", "is required")
	}
	if !r.SourceKind.Valid() {
		return invalid("source_type", "unknown node kind %q", r.SourceKind)
	}
	if !r.TargetKind.Valid() {
		return invalid("target_type", "unknown node kind %q", r.TargetKind)
	}
	if !r.RelationType.Valid() {
		return invalid("relation_type", "unknown relation type %q", r.RelationType)
	}
	if err := validateUnit("strength", r.Strength); err != nil {
		return err
	}
	if r.ValidFrom != nil && r.ValidUntil != nil && !r.ValidUntil.After(*r.ValidFrom) {
		return invalid("valid_until", "must be after valid_from")
	}
	return nil
}

// ValidAt reports whether the relationship holds at t. Both bounds are
// inclusive and an unset bound is open.
func (r *Relationship) ValidAt(t time.Time) bool {
	if r.ValidFrom != nil && r.ValidFrom.After(t) {
		return false
	}
	if r.ValidUntil != nil && r.ValidUntil.Before(t) {
		return false
	}
	return true
}

// Touches reports whether id is either endpoint.
func (r *Relationship) Touches(id uuid.UUID) bool {
	return r.SourceID == id || r.TargetID == id
}

func (r *Relationship) Clone() *Relationship {
	out := *r
	out.ValidFrom = cloneTime(r.ValidFrom)
	out.ValidUntil = cloneTime(r.ValidUntil)
	out.Metadata = r.Metadata.Clone()
	return &out
}

type EventEntityLink struct {
	EventID  uuid.UUID `json:"event_id"`
	EntityID uuid.UUID `json:"entity_id"`
	Role     string    `json:"role"`
}

func NewEventEntityLink(eventID, entityID uuid.UUID, role string) (*EventEntityLink, error) {
	l := &EventEntityLink{
		EventID:  eventID,
		EntityID: entityID,
		Role:     NormalizeRole(role),
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *EventEntityLink) Validate() error {
	if l.EventID == uuid.Nil {
		return invalid("event_id", "is required")
	}
	if l.EntityID == uuid.Nil {
		return invalid("entity_id", "is required")
	}
	n := utf8.RuneCountInString(l.Role)
	if n == 0 || n > maxRoleLength {
		return invalid("role", "must be 1 to %d characters", maxRoleLength)
	}
	return nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 || n > maxNameLength {
		return invalid("name", "must be 1 to %d characters", maxNameLength)
	}
	return nil
}

func validateUnit(field string, d decimal.Decimal) error {
	if d.LessThan(decimalZero) || d.GreaterThan(decimalOne) {
		return invalid(field, "must be between 0 and 1, got %s", d)
	}
	return nil
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	out := *id
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	out := t.UTC()
	return &out
}
