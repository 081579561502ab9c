package domain

import "strings"

type TimelineStatus string

const (
	StatusCanonical    TimelineStatus = "canonical"
	StatusHypothetical TimelineStatus = "hypothetical"
	StatusDraft        TimelineStatus = "draft"
	StatusSubjective   TimelineStatus = "subjective"
	StatusArchived     TimelineStatus = "archived"
)

func (s TimelineStatus) Valid() bool {
	switch s {
	case StatusCanonical, StatusHypothetical, StatusDraft, StatusSubjective, StatusArchived:
		return true
	}
	return false
}

type EventType string

const (
	// Factual
	EventObservation EventType = "observation"
	EventMeasurement EventType = "measurement"
	EventDeclaration EventType = "declaration"

	// Transformational
	EventTransition   EventType = "transition"
	EventCreation     EventType = "creation"
	EventDestruction  EventType = "destruction"
	EventModification EventType = "modification"

	// Relational
	EventInteraction  EventType = "interaction"
	EventAssociation  EventType = "association"
	EventDissociation EventType = "dissociation"

	// Temporal
	EventMilestone EventType = "milestone"
	EventBoundary  EventType = "boundary"
	EventReference EventType = "reference"

	// Meta
	EventAnnotation EventType = "annotation"
	EventRevision   EventType = "revision"
)

var eventTypes = []EventType{
	EventObservation, EventMeasurement, EventDeclaration,
	EventTransition, EventCreation, EventDestruction, EventModification,
	EventInteraction, EventAssociation, EventDissociation,
	EventMilestone, EventBoundary, EventReference,
	EventAnnotation, EventRevision,
}

// EventTypes lists every event type in declaration order.
func EventTypes() []EventType {
	return append([]EventType(nil), eventTypes...)
}

func (t EventType) Valid() bool {
	for _, known := range eventTypes {
		if t == known {
			return true
		}
	}
	return false
}

type EntityType string

const (
	EntityCharacter    EntityType = "character"
	EntityPlace        EntityType = "place"
	EntityObject       EntityType = "object"
	EntityConcept      EntityType = "concept"
	EntityOrganization EntityType = "organization"
	EntityTheme        EntityType = "theme"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityCharacter, EntityPlace, EntityObject, EntityConcept, EntityOrganization, EntityTheme:
		return true
	}
	return false
}

type RelationType string

const (
	RelationCausal        RelationType = "causal"
	RelationTemporal      RelationType = "temporal"
	RelationHierarchical  RelationType = "hierarchical"
	RelationReferential   RelationType = "referential"
	RelationContradictory RelationType = "contradictory"
	RelationReinforcing   RelationType = "reinforcing"
	RelationConditional   RelationType = "conditional"
	RelationPerspective   RelationType = "perspective"
)

func (t RelationType) Valid() bool {
	switch t {
	case RelationCausal, RelationTemporal, RelationHierarchical, RelationReferential,
		RelationContradictory, RelationReinforcing, RelationConditional, RelationPerspective:
		return true
	}
	return false
}

// NodeKind identifies which record kind a relationship endpoint refers to.
type NodeKind string

const (
	NodeEvent    NodeKind = "event"
	NodeEntity   NodeKind = "entity"
	NodeTimeline NodeKind = "timeline"
)

func (k NodeKind) Valid() bool {
	switch k {
	case NodeEvent, NodeEntity, NodeTimeline:
		return true
	}
	return false
}

// NodeKinds lists every relationship endpoint kind.
func NodeKinds() []NodeKind {
	return []NodeKind{NodeEvent, NodeEntity, NodeTimeline}
}

// Conventional link roles. Roles are free-form; these are the common ones.
const (
	RoleActor       = "actor"
	RoleSubject     = "subject"
	RoleLocation    = "location"
	RoleObserver    = "observer"
	RoleTool        = "tool"
	RoleTarget      = "target"
	RolePossession  = "possession"
	RoleCause       = "cause"
	RoleBeneficiary = "beneficiary"
	RoleContext     = "context"
)

// ConventionalRoles lists the common link roles.
func ConventionalRoles() []string {
	return []string{
		RoleActor, RoleSubject, RoleLocation, RoleObserver, RoleTool,
		RoleTarget, RolePossession, RoleCause, RoleBeneficiary, RoleContext,
	}
}

// NormalizeRole trims and lower-cases a link role.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
