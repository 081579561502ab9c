package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"timelines/internal/config"
	"timelines/internal/domain"
	"timelines/internal/repository"
	"timelines/internal/service"
)

var (
	defaultCompressImportance = decimal.RequireFromString("0.3")

	now = func() time.Time { return time.Now().UTC() }
)

type ProjectOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type TimelineOutput struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type EventOutput struct {
	ID            string                    `json:"id"`
	TimelineID    string                    `json:"timeline_id"`
	Timestamp     string                    `json:"timestamp"`
	EndTimestamp  string                    `json:"end_timestamp,omitempty"`
	EventType     string                    `json:"event_type"`
	Description   string                    `json:"description"`
	Importance    string                    `json:"importance"`
	DetailLevel   int                       `json:"detail_level"`
	GlobalChanges map[string]any            `json:"global_changes"`
	EntityChanges map[string]map[string]any `json:"entity_changes"`
	Metadata      map[string]any            `json:"metadata"`
}

type EntityOutput struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	EntityType  string         `json:"entity_type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties"`
}

type LinkedEntityOutput struct {
	Role   string       `json:"role"`
	Entity EntityOutput `json:"entity"`
}

type WorldStateOutput struct {
	Global   map[string]any            `json:"global"`
	Entities map[string]map[string]any `json:"entities"`
}

type SnapshotOutput struct {
	ID         string           `json:"id"`
	TimelineID string           `json:"timeline_id"`
	Timestamp  string           `json:"timestamp"`
	State      WorldStateOutput `json:"state"`
}

type RelationshipOutput struct {
	ID           string `json:"id"`
	SourceID     string `json:"source_id"`
	SourceType   string `json:"source_type"`
	TargetID     string `json:"target_id"`
	TargetType   string `json:"target_type"`
	RelationType string `json:"relation_type"`
	Strength     string `json:"strength"`
}

type CausalPathOutput struct {
	Events []EventOutput `json:"events"`
}

type ScoredEventOutput struct {
	Event EventOutput `json:"event"`
	Score float64     `json:"score"`
}

type SummaryEventOutput struct {
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Importance  string `json:"importance"`
}

type SummaryOutput struct {
	EventCount      int                  `json:"event_count"`
	FirstEvent      string               `json:"first_event,omitempty"`
	LastEvent       string               `json:"last_event,omitempty"`
	RecentEvents    []SummaryEventOutput `json:"recent_events"`
	ImportantEvents []SummaryEventOutput `json:"important_events"`
}

type SchemaOutput struct {
	Version     int                `json:"version"`
	Roles       []string           `json:"roles"`
	EntityTypes []EntityTypeOutput `json:"entity_types"`
}

type EntityTypeOutput struct {
	Name          string               `json:"name"`
	Properties    []PropertyOutput     `json:"properties"`
	FieldMappings []FieldMappingOutput `json:"field_mappings"`
}

type PropertyOutput struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Values   []string `json:"values,omitempty"`
	Default  string   `json:"default,omitempty"`
	Required bool     `json:"required,omitempty"`
}

type FieldMappingOutput struct {
	Field        string   `json:"field"`
	Relationship string   `json:"relationship"`
	TargetType   []string `json:"target_type"`
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func projectOutput(p *domain.Project) ProjectOutput {
	return ProjectOutput{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   formatTime(p.CreatedAt),
	}
}

func timelineOutput(t *domain.Timeline) TimelineOutput {
	out := TimelineOutput{
		ID:          t.ID.String(),
		ProjectID:   t.ProjectID.String(),
		Name:        t.Name,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   formatTime(t.CreatedAt),
	}
	if t.ParentTimelineID != nil {
		out.ParentID = t.ParentTimelineID.String()
	}
	return out
}

func timelineOutputs(timelines []*domain.Timeline) []TimelineOutput {
	out := make([]TimelineOutput, 0, len(timelines))
	for _, t := range timelines {
		out = append(out, timelineOutput(t))
	}
	return out
}

func eventOutput(e *domain.Event) EventOutput {
	out := EventOutput{
		ID:            e.ID.String(),
		TimelineID:    e.TimelineID.String(),
		Timestamp:     formatTime(e.Timestamp),
		EventType:     string(e.EventType),
		Description:   e.Description,
		Importance:    e.ImportanceScore.String(),
		DetailLevel:   e.DetailLevel,
		GlobalChanges: nativeProperties(e.StateDelta.GlobalChanges),
		EntityChanges: nativeEntities(e.StateDelta.EntityChanges),
		Metadata:      nativeProperties(e.Metadata),
	}
	if e.EndTimestamp != nil {
		out.EndTimestamp = formatTime(*e.EndTimestamp)
	}
	return out
}

func eventOutputs(events []*domain.Event) []EventOutput {
	out := make([]EventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, eventOutput(e))
	}
	return out
}

func entityOutput(e *domain.Entity) EntityOutput {
	return EntityOutput{
		ID:          e.ID.String(),
		ProjectID:   e.ProjectID.String(),
		EntityType:  string(e.EntityType),
		Name:        e.Name,
		Description: e.Description,
		Properties:  nativeProperties(e.Properties),
	}
}

func worldStateOutput(w domain.WorldState) WorldStateOutput {
	return WorldStateOutput{
		Global:   nativeProperties(w.GlobalProperties),
		Entities: nativeEntities(w.EntityStates),
	}
}

func snapshotOutput(s *domain.StateSnapshot) SnapshotOutput {
	return SnapshotOutput{
		ID:         s.ID.String(),
		TimelineID: s.TimelineID.String(),
		Timestamp:  formatTime(s.Timestamp),
		State:      worldStateOutput(s.State),
	}
}

func relationshipOutput(r *domain.Relationship) RelationshipOutput {
	return RelationshipOutput{
		ID:           r.ID.String(),
		SourceID:     r.SourceID.String(),
		SourceType:   string(r.SourceKind),
		TargetID:     r.TargetID.String(),
		TargetType:   string(r.TargetKind),
		RelationType: string(r.RelationType),
		Strength:     r.Strength.String(),
	}
}

func summaryOutput(s repository.TimelineSummary) SummaryOutput {
	out := SummaryOutput{
		EventCount:      s.EventCount,
		RecentEvents:    summaryEvents(s.RecentEvents),
		ImportantEvents: summaryEvents(s.ImportantEvents),
	}
	if s.FirstEvent != nil {
		out.FirstEvent = formatTime(*s.FirstEvent)
	}
	if s.LastEvent != nil {
		out.LastEvent = formatTime(*s.LastEvent)
	}
	return out
}

func summaryEvents(events []repository.SummaryEvent) []SummaryEventOutput {
	out := make([]SummaryEventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, SummaryEventOutput{
			Timestamp:   formatTime(e.Timestamp),
			Description: e.Description,
			Importance:  e.Importance.String(),
		})
	}
	return out
}

func nativeProperties(p domain.Properties) map[string]any {
	out := p.Native()
	if out == nil {
		out = map[string]any{}
	}
	return out
}

func nativeEntities(m map[uuid.UUID]domain.Properties) map[string]map[string]any {
	out := make(map[string]map[string]any, len(m))
	for id, props := range m {
		out[id.String()] = nativeProperties(props)
	}
	return out
}

func schemaOutputFromConfig(schema *config.Schema) SchemaOutput {
	out := SchemaOutput{
		Roles:       domain.ConventionalRoles(),
		EntityTypes: []EntityTypeOutput{},
	}
	if schema == nil {
		return out
	}

	out.Version = schema.Version
	out.Roles = append(out.Roles, schema.Roles...)
	for _, entityType := range schema.EntityTypes {
		entityOut := EntityTypeOutput{
			Name:          entityType.Name,
			Properties:    make([]PropertyOutput, 0, len(entityType.Properties)),
			FieldMappings: make([]FieldMappingOutput, 0, len(entityType.FieldMappings)),
		}
		for _, prop := range entityType.Properties {
			entityOut.Properties = append(entityOut.Properties, PropertyOutput{
				Name:     prop.Name,
				Type:     prop.Type,
				Values:   prop.Values,
				Default:  prop.Default,
				Required: prop.Required,
			})
		}
		for _, mapping := range entityType.FieldMappings {
			targets := mapping.TargetType
			if targets == nil {
				targets = []string{}
			}
			entityOut.FieldMappings = append(entityOut.FieldMappings, FieldMappingOutput{
				Field:        mapping.Field,
				Relationship: mapping.Relationship,
				TargetType:   targets,
			})
		}
		out.EntityTypes = append(out.EntityTypes, entityOut)
	}
	return out
}

func eventInput(input AddEventInput) (service.EventInput, error) {
	timelineID, err := parseID("timeline_id", input.TimelineID)
	if err != nil {
		return service.EventInput{}, err
	}
	ts, err := parseTime("timestamp", input.Timestamp)
	if err != nil {
		return service.EventInput{}, err
	}
	in := service.EventInput{
		TimelineID:  timelineID,
		Timestamp:   ts,
		EventType:   domain.EventType(input.EventType),
		Description: input.Description,
		DetailLevel: input.DetailLevel,
		Embedding:   input.Embedding,
	}
	if in.EventType == "" {
		in.EventType = domain.EventObservation
	}
	if in.EndTimestamp, err = parseOptionalTime("end_timestamp", input.EndTimestamp); err != nil {
		return service.EventInput{}, err
	}
	if input.Importance != "" {
		importance, err := parseDecimal("importance", input.Importance)
		if err != nil {
			return service.EventInput{}, err
		}
		in.Importance = &importance
	}
	if in.StateDelta.GlobalChanges, err = parseProperties("global_changes", input.GlobalChanges); err != nil {
		return service.EventInput{}, err
	}
	if len(input.EntityChanges) > 0 {
		in.StateDelta.EntityChanges = make(map[uuid.UUID]domain.Properties, len(input.EntityChanges))
		for key, changes := range input.EntityChanges {
			id, err := parseID("entity_changes", key)
			if err != nil {
				return service.EventInput{}, err
			}
			props, err := parseProperties("entity_changes."+key, changes)
			if err != nil {
				return service.EventInput{}, err
			}
			in.StateDelta.EntityChanges[id] = props
		}
	}
	if in.Metadata, err = parseProperties("metadata", input.Metadata); err != nil {
		return service.EventInput{}, err
	}
	return in, nil
}

func parseID(field, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, &domain.ValidationError{Field: field, Message: "is required"}
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, &domain.ValidationError{Field: field, Message: fmt.Sprintf("invalid id %q", s)}
	}
	return id, nil
}

func parseOptionalID(field, s string) (*uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := parseID(field, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseIDs(field string, values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := parseID(field, v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &domain.ValidationError{Field: field, Message: "is required"}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &domain.ValidationError{Field: field, Message: fmt.Sprintf("cannot parse time %q", s)}
}

func parseOptionalTime(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseTime(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseWindow(start, end string) (*time.Time, *time.Time, error) {
	from, err := parseOptionalTime("start", start)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseOptionalTime("end", end)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, &domain.ValidationError{Field: field, Message: fmt.Sprintf("invalid decimal %q", s)}
	}
	return d, nil
}

func parseProperties(field string, in map[string]any) (domain.Properties, error) {
	if len(in) == 0 {
		return nil, nil
	}
	props, err := domain.PropertiesFromMap(in)
	if err != nil {
		return nil, &domain.ValidationError{Field: field, Message: err.Error()}
	}
	return props, nil
}
