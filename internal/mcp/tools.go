package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"timelines/internal/domain"
	"timelines/internal/repository"
	"timelines/internal/service"
)

type CreateProjectInput struct {
	Name        string `json:"name" jsonschema:"project name"`
	Description string `json:"description,omitempty" jsonschema:"optional description"`
}

type ListProjectsInput struct{}

type CreateTimelineInput struct {
	ProjectID   string `json:"project_id" jsonschema:"owning project id"`
	Name        string `json:"name" jsonschema:"timeline name"`
	Description string `json:"description,omitempty" jsonschema:"optional description"`
	ParentID    string `json:"parent_id,omitempty" jsonschema:"parent timeline id for a branch"`
	Status      string `json:"status,omitempty" jsonschema:"canonical, hypothetical, draft, subjective or archived"`
}

type ListTimelinesInput struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	ParentID  string `json:"parent_id,omitempty" jsonschema:"only direct children of this timeline"`
}

type TimelineTreeInput struct {
	RootID   string `json:"root_id" jsonschema:"root timeline id"`
	MaxDepth *int   `json:"max_depth,omitempty" jsonschema:"maximum depth below the root, 0 for the root alone, default 10"`
}

type ForkTimelineInput struct {
	SourceID string `json:"source_id" jsonschema:"timeline to fork"`
	Name     string `json:"name" jsonschema:"name of the new branch"`
	From     string `json:"from" jsonschema:"RFC 3339 instant; events up to it are copied"`
	Status   string `json:"status,omitempty" jsonschema:"status of the branch, hypothetical by default"`
}

type AddEventInput struct {
	TimelineID    string                    `json:"timeline_id" jsonschema:"timeline id"`
	Timestamp     string                    `json:"timestamp" jsonschema:"RFC 3339 instant"`
	EndTimestamp  string                    `json:"end_timestamp,omitempty" jsonschema:"optional RFC 3339 end"`
	EventType     string                    `json:"event_type,omitempty" jsonschema:"event type, observation by default"`
	Description   string                    `json:"description" jsonschema:"what happened"`
	Importance    string                    `json:"importance,omitempty" jsonschema:"decimal between 0 and 1"`
	DetailLevel   *int                      `json:"detail_level,omitempty" jsonschema:"0 compressed, 1 summary, 2 full"`
	GlobalChanges map[string]any            `json:"global_changes,omitempty" jsonschema:"world properties this event sets"`
	EntityChanges map[string]map[string]any `json:"entity_changes,omitempty" jsonschema:"entity id to the properties this event sets"`
	Metadata      map[string]any            `json:"metadata,omitempty" jsonschema:"free-form scalar metadata"`
	Embedding     []float32                 `json:"embedding,omitempty" jsonschema:"optional vector for similarity search"`
}

type QueryEventsInput struct {
	TimelineID    string   `json:"timeline_id" jsonschema:"timeline id"`
	Start         string   `json:"start,omitempty" jsonschema:"inclusive RFC 3339 lower bound"`
	End           string   `json:"end,omitempty" jsonschema:"inclusive RFC 3339 upper bound"`
	Types         []string `json:"types,omitempty" jsonschema:"event types to keep"`
	MinImportance string   `json:"min_importance,omitempty" jsonschema:"minimum importance"`
	Limit         int      `json:"limit,omitempty" jsonschema:"maximum events"`
}

type ReconstructStateInput struct {
	TimelineID string   `json:"timeline_id" jsonschema:"timeline id"`
	At         string   `json:"at" jsonschema:"RFC 3339 instant"`
	EntityIDs  []string `json:"entity_ids,omitempty" jsonschema:"restrict entity state to these ids"`
}

type SaveCheckpointInput struct {
	TimelineID string `json:"timeline_id" jsonschema:"timeline id"`
	At         string `json:"at" jsonschema:"RFC 3339 instant"`
}

type CreateEntityInput struct {
	ProjectID   string         `json:"project_id" jsonschema:"project id"`
	EntityType  string         `json:"entity_type" jsonschema:"character, place, object, concept, organization or theme"`
	Name        string         `json:"name" jsonschema:"entity name"`
	Description string         `json:"description" jsonschema:"entity description"`
	Properties  map[string]any `json:"properties,omitempty" jsonschema:"scalar properties"`
	Embedding   []float32      `json:"embedding,omitempty" jsonschema:"optional vector for similarity search"`
}

type ListEntitiesInput struct {
	ProjectID  string `json:"project_id" jsonschema:"project id"`
	EntityType string `json:"entity_type,omitempty" jsonschema:"entity type filter"`
}

type LinkEntityInput struct {
	EventID  string `json:"event_id" jsonschema:"event id"`
	EntityID string `json:"entity_id" jsonschema:"entity id"`
	Role     string `json:"role" jsonschema:"role of the entity in the event, e.g. actor or location"`
}

type EventEntitiesInput struct {
	EventID string `json:"event_id" jsonschema:"event id"`
}

type EntityEventsInput struct {
	EntityID   string `json:"entity_id" jsonschema:"entity id"`
	TimelineID string `json:"timeline_id" jsonschema:"timeline id"`
	Role       string `json:"role,omitempty" jsonschema:"only links in this role"`
	Start      string `json:"start,omitempty" jsonschema:"inclusive RFC 3339 lower bound"`
	End        string `json:"end,omitempty" jsonschema:"inclusive RFC 3339 upper bound"`
}

type EventsAtLocationInput struct {
	LocationID string `json:"location_id" jsonschema:"location entity id"`
	TimelineID string `json:"timeline_id" jsonschema:"timeline id"`
	Start      string `json:"start,omitempty" jsonschema:"inclusive RFC 3339 lower bound"`
	End        string `json:"end,omitempty" jsonschema:"inclusive RFC 3339 upper bound"`
}

type CharacterInteractionsInput struct {
	CharacterIDs []string `json:"character_ids" jsonschema:"characters that must all take part"`
	TimelineID   string   `json:"timeline_id" jsonschema:"timeline id"`
	Start        string   `json:"start,omitempty" jsonschema:"inclusive RFC 3339 lower bound"`
	End          string   `json:"end,omitempty" jsonschema:"inclusive RFC 3339 upper bound"`
}

type EstablishCausalityInput struct {
	CauseID  string `json:"cause_id" jsonschema:"causing event id"`
	EffectID string `json:"effect_id" jsonschema:"resulting event id"`
	Strength string `json:"strength,omitempty" jsonschema:"decimal between 0 and 1, default 1"`
}

type TraceCausalityInput struct {
	EventID   string `json:"event_id" jsonschema:"event to trace from"`
	Direction string `json:"direction,omitempty" jsonschema:"forward for effects, anything else for causes"`
	MaxDepth  *int   `json:"max_depth,omitempty" jsonschema:"maximum hops, default 5"`
}

type CompressEventsInput struct {
	TimelineID    string `json:"timeline_id" jsonschema:"timeline id"`
	Before        string `json:"before" jsonschema:"compress events before this RFC 3339 instant"`
	MinImportance string `json:"min_importance,omitempty" jsonschema:"events at or above this importance are kept, default 0.3"`
}

type TimelineSummaryInput struct {
	TimelineID string `json:"timeline_id" jsonschema:"timeline id"`
	At         string `json:"at,omitempty" jsonschema:"RFC 3339 instant, now by default"`
	Recent     int    `json:"recent,omitempty" jsonschema:"number of recent events"`
	Threshold  string `json:"threshold,omitempty" jsonschema:"importance threshold for key events"`
}

type SimilarEventsInput struct {
	Embedding   []float32 `json:"embedding" jsonschema:"query vector"`
	TimelineIDs []string  `json:"timeline_ids,omitempty" jsonschema:"restrict to these timelines"`
	Limit       int       `json:"limit,omitempty" jsonschema:"maximum results"`
}

type GetSchemaInput struct{}

type ListProjectsOutput struct {
	Projects []ProjectOutput `json:"projects"`
}

type ListTimelinesOutput struct {
	Timelines []TimelineOutput `json:"timelines"`
}

type ListEventsOutput struct {
	Events []EventOutput `json:"events"`
}

type ListEntitiesOutput struct {
	Entities []EntityOutput `json:"entities"`
}

type EventEntitiesOutput struct {
	Entities []LinkedEntityOutput `json:"entities"`
}

type LinkOutput struct {
	Linked bool `json:"linked"`
}

type TraceCausalityOutput struct {
	Paths []CausalPathOutput `json:"paths"`
}

type CompressEventsOutput struct {
	Compressed int `json:"compressed"`
}

type SimilarEventsOutput struct {
	Results []ScoredEventOutput `json:"results"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "create_project", Description: "Create a project"}, s.handleCreateProject)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "list_projects", Description: "List your projects"}, s.handleListProjects)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "create_timeline", Description: "Create a root timeline or a branch of another"}, s.handleCreateTimeline)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "list_timelines", Description: "List the timelines of a project"}, s.handleListTimelines)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "timeline_tree", Description: "Return a timeline and its branches in depth-first order"}, s.handleTimelineTree)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "fork_timeline", Description: "Branch a timeline at an instant, copying its earlier events"}, s.handleForkTimeline)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "add_event", Description: "Record an event and the state changes it causes"}, s.handleAddEvent)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "query_events", Description: "List events of a timeline with optional filters"}, s.handleQueryEvents)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "reconstruct_state", Description: "Reconstruct world state at an instant"}, s.handleReconstructState)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "save_checkpoint", Description: "Save a state snapshot to speed up later reconstruction"}, s.handleSaveCheckpoint)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "create_entity", Description: "Create a character, place, object or other entity"}, s.handleCreateEntity)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "list_entities", Description: "List the entities of a project"}, s.handleListEntities)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "link_entity", Description: "Link an entity to an event in a role"}, s.handleLinkEntity)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "event_entities", Description: "List the entities linked to an event"}, s.handleEventEntities)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "entity_events", Description: "List the events an entity takes part in"}, s.handleEntityEvents)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "events_at_location", Description: "List the events at a location"}, s.handleEventsAtLocation)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "character_interactions", Description: "List events involving all the given characters"}, s.handleCharacterInteractions)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "establish_causality", Description: "Record that one event caused another"}, s.handleEstablishCausality)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "trace_causality", Description: "Follow causal links from an event"}, s.handleTraceCausality)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "compress_events", Description: "Lower the detail of old unimportant events"}, s.handleCompressEvents)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "timeline_summary", Description: "Summarize a timeline up to an instant"}, s.handleTimelineSummary)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "similar_events", Description: "Find events with similar embeddings"}, s.handleSimilarEvents)
	sdk.AddTool(s.mcp, &sdk.Tool{Name: "get_schema", Description: "Return the project schema"}, s.handleGetSchema)
}

func (s *Server) handleCreateProject(ctx context.Context, req *sdk.CallToolRequest, input CreateProjectInput) (*sdk.CallToolResult, ProjectOutput, error) {
	p, err := s.svc.CreateProject(ctx, s.user, input.Name, input.Description)
	if err != nil {
		return nil, ProjectOutput{}, err
	}
	s.logger.Debug("project created", zap.String("project", p.ID.String()))
	return nil, projectOutput(p), nil
}

func (s *Server) handleListProjects(ctx context.Context, req *sdk.CallToolRequest, input ListProjectsInput) (*sdk.CallToolResult, ListProjectsOutput, error) {
	projects, err := s.svc.ListUserProjects(ctx, s.user)
	if err != nil {
		return nil, ListProjectsOutput{}, err
	}
	out := make([]ProjectOutput, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectOutput(p))
	}
	return nil, ListProjectsOutput{Projects: out}, nil
}

func (s *Server) handleCreateTimeline(ctx context.Context, req *sdk.CallToolRequest, input CreateTimelineInput) (*sdk.CallToolResult, TimelineOutput, error) {
	projectID, err := parseID("project_id", input.ProjectID)
	if err != nil {
		return nil, TimelineOutput{}, err
	}
	parentID, err := parseOptionalID("parent_id", input.ParentID)
	if err != nil {
		return nil, TimelineOutput{}, err
	}
	t, err := s.svc.CreateTimeline(ctx, s.user, projectID, input.Name, input.Description, parentID, domain.TimelineStatus(input.Status))
	if err != nil {
		return nil, TimelineOutput{}, err
	}
	return nil, timelineOutput(t), nil
}

func (s *Server) handleListTimelines(ctx context.Context, req *sdk.CallToolRequest, input ListTimelinesInput) (*sdk.CallToolResult, ListTimelinesOutput, error) {
	projectID, err := parseID("project_id", input.ProjectID)
	if err != nil {
		return nil, ListTimelinesOutput{}, err
	}
	parentID, err := parseOptionalID("parent_id", input.ParentID)
	if err != nil {
		return nil, ListTimelinesOutput{}, err
	}
	timelines, err := s.svc.ListTimelines(ctx, s.user, projectID, parentID)
	if err != nil {
		return nil, ListTimelinesOutput{}, err
	}
	return nil, ListTimelinesOutput{Timelines: timelineOutputs(timelines)}, nil
}

func (s *Server) handleTimelineTree(ctx context.Context, req *sdk.CallToolRequest, input TimelineTreeInput) (*sdk.CallToolResult, ListTimelinesOutput, error) {
	rootID, err := parseID("root_id", input.RootID)
	if err != nil {
		return nil, ListTimelinesOutput{}, err
	}
	depth := -1
	if input.MaxDepth != nil {
		depth = *input.MaxDepth
	}
	timelines, err := s.svc.GetTimelineTree(ctx, rootID, depth)
	if err != nil {
		return nil, ListTimelinesOutput{}, err
	}
	return nil, ListTimelinesOutput{Timelines: timelineOutputs(timelines)}, nil
}

func (s *Server) handleForkTimeline(ctx context.Context, req *sdk.CallToolRequest, input ForkTimelineInput) (*sdk.CallToolResult, TimelineOutput, error) {
	sourceID, err := parseID("source_id", input.SourceID)
	if err != nil {
		return nil, TimelineOutput{}, err
	}
	from, err := parseTime("from", input.From)
	if err != nil {
		return nil, TimelineOutput{}, err
	}
	t, err := s.svc.ForkTimeline(ctx, sourceID, input.Name, from, domain.TimelineStatus(input.Status))
	if err != nil {
		return nil, TimelineOutput{}, err
	}
	return nil, timelineOutput(t), nil
}

func (s *Server) handleAddEvent(ctx context.Context, req *sdk.CallToolRequest, input AddEventInput) (*sdk.CallToolResult, EventOutput, error) {
	in, err := eventInput(input)
	if err != nil {
		return nil, EventOutput{}, err
	}
	e, err := s.svc.AddEvent(ctx, in)
	if err != nil {
		return nil, EventOutput{}, err
	}
	return nil, eventOutput(e), nil
}

func (s *Server) handleQueryEvents(ctx context.Context, req *sdk.CallToolRequest, input QueryEventsInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	timelineID, err := parseID("timeline_id", input.TimelineID)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	filter := repository.EventFilter{Limit: input.Limit}
	if filter.Start, err = parseOptionalTime("start", input.Start); err != nil {
		return nil, ListEventsOutput{}, err
	}
	if filter.End, err = parseOptionalTime("end", input.End); err != nil {
		return nil, ListEventsOutput{}, err
	}
	if input.MinImportance != "" {
		if filter.MinImportance, err = parseDecimal("min_importance", input.MinImportance); err != nil {
			return nil, ListEventsOutput{}, err
		}
	}
	for _, t := range input.Types {
		filter.Types = append(filter.Types, domain.EventType(t))
	}
	events, err := s.svc.QueryEvents(ctx, timelineID, filter)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	return nil, ListEventsOutput{Events: eventOutputs(events)}, nil
}

func (s *Server) handleReconstructState(ctx context.Context, req *sdk.CallToolRequest, input ReconstructStateInput) (*sdk.CallToolResult, WorldStateOutput, error) {
	timelineID, err := parseID("timeline_id", input.TimelineID)
	if err != nil {
		return nil, WorldStateOutput{}, err
	}
	at, err := parseTime("at", input.At)
	if err != nil {
		return nil, WorldStateOutput{}, err
	}
	var entityIDs []uuid.UUID
	if input.EntityIDs != nil {
		if entityIDs, err = parseIDs("entity_ids", input.EntityIDs); err != nil {
			return nil, WorldStateOutput{}, err
		}
	}
	state, err := s.svc.ReconstructState(ctx, timelineID, at, entityIDs)
	if err != nil {
		return nil, WorldStateOutput{}, err
	}
	return nil, worldStateOutput(state), nil
}

func (s *Server) handleSaveCheckpoint(ctx context.Context, req *sdk.CallToolRequest, input SaveCheckpointInput) (*sdk.CallToolResult, SnapshotOutput, error) {
	timelineID, err := parseID("timeline_id", input.TimelineID)
	if err != nil {
		return nil, SnapshotOutput{}, err
	}
	at, err := parseTime("at", input.At)
	if err != nil {
		return nil, SnapshotOutput{}, err
	}
	snapshot, err := s.svc.SaveCheckpoint(ctx, timelineID, at)
	if err != nil {
		return nil, SnapshotOutput{}, err
	}
	return nil, snapshotOutput(snapshot), nil
}

func (s *Server) handleCreateEntity(ctx context.Context, req *sdk.CallToolRequest, input CreateEntityInput) (*sdk.CallToolResult, EntityOutput, error) {
	projectID, err := parseID("project_id", input.ProjectID)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	props, err := parseProperties("properties", input.Properties)
	if err != nil {
		return nil, EntityOutput{}, err
	}
	e, err := s.svc.CreateEntity(ctx, s.user, service.EntityInput{
		ProjectID:   projectID,
		EntityType:  domain.EntityType(input.EntityType),
		Name:        input.Name,
		Description: input.Description,
		Properties:  props,
		Embedding:   input.Embedding,
	})
	if err != nil {
		return nil, EntityOutput{}, err
	}
	return nil, entityOutput(e), nil
}

func (s *Server) handleListEntities(ctx context.Context, req *sdk.CallToolRequest, input ListEntitiesInput) (*sdk.CallToolResult, ListEntitiesOutput, error) {
	projectID, err := parseID("project_id", input.ProjectID)
	if err != nil {
		return nil, ListEntitiesOutput{}, err
	}
	if _, err := s.svc.GetProject(ctx, s.user, projectID); err != nil {
		return nil, ListEntitiesOutput{}, err
	}
	entities, err := s.svc.ListEntities(ctx, projectID, domain.EntityType(input.EntityType))
	if err != nil {
		return nil, ListEntitiesOutput{}, err
	}
	out := make([]EntityOutput, 0, len(entities))
	for _, e := range entities {
		out = append(out, entityOutput(e))
	}
	return nil, ListEntitiesOutput{Entities: out}, nil
}

func (s *Server) handleLinkEntity(ctx context.Context, req *sdk.CallToolRequest, input LinkEntityInput) (*sdk.CallToolResult, LinkOutput, error) {
	eventID, err := parseID("event_id", input.EventID)
	if err != nil {
		return nil, LinkOutput{}, err
	}
	entityID, err := parseID("entity_id", input.EntityID)
	if err != nil {
		return nil, LinkOutput{}, err
	}
	if s.schema != nil && !s.schema.IsKnownRole(input.Role) {
		s.logger.Warn("linking with unknown role", zap.String("role", input.Role))
	}
	if err := s.svc.LinkEventEntity(ctx, eventID, entityID, input.Role); err != nil {
		return nil, LinkOutput{}, err
	}
	return nil, LinkOutput{Linked: true}, nil
}

func (s *Server) handleEventEntities(ctx context.Context, req *sdk.CallToolRequest, input EventEntitiesInput) (*sdk.CallToolResult, EventEntitiesOutput, error) {
	eventID, err := parseID("event_id", input.EventID)
	if err != nil {
		return nil, EventEntitiesOutput{}, err
	}
	linked, err := s.svc.GetEventEntities(ctx, eventID)
	if err != nil {
		return nil, EventEntitiesOutput{}, err
	}
	out := make([]LinkedEntityOutput, 0, len(linked))
	for _, l := range linked {
		out = append(out, LinkedEntityOutput{Role: l.Role, Entity: entityOutput(l.Entity)})
	}
	return nil, EventEntitiesOutput{Entities: out}, nil
}

func (s *Server) handleEntityEvents(ctx context.Context, req *sdk.CallToolRequest, input EntityEventsInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	entityID, err := parseID("entity_id", input.EntityID)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	timelineID, err := parseID("timeline_id", input.TimelineID)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	filter := repository.EntityEventFilter{Role: input.Role}
	if filter.Start, err = parseOptionalTime("start", input.Start); err != nil {
		return nil, ListEventsOutput{}, err
	}
	if filter.End, err = parseOptionalTime("end", input.End); err != nil {
		return nil, ListEventsOutput{}, err
	}
	events, err := s.svc.GetEntityEvents(ctx, entityID, timelineID, filter)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	return nil, ListEventsOutput{Events: eventOutputs(events)}, nil
}

func (s *Server) handleEventsAtLocation(ctx context.Context, req *sdk.CallToolRequest, input EventsAtLocationInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	locationID, err := parseID("location_id", input.LocationID)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	timelineID, err := parseID("timeline_id", input.TimelineID)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	start, end, err := parseWindow(input.Start, input.End)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	events, err := s.svc.GetEventsAtLocation(ctx, locationID, timelineID, start, end)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	return nil, ListEventsOutput{Events: eventOutputs(events)}, nil
}

func (s *Server) handleCharacterInteractions(ctx context.Context, req *sdk.CallToolRequest, input CharacterInteractionsInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	if len(input.CharacterIDs) == 0 {
		return nil, ListEventsOutput{}, fmt.Errorf("character_ids is required")
	}
	ids, err := parseIDs("character_ids", input.CharacterIDs)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	timelineID, err := parseID("timeline_id", input.TimelineID)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	start, end, err := parseWindow(input.Start, input.End)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	events, err := s.svc.GetCharacterInteractions(ctx, ids, timelineID, start, end)
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	return nil, ListEventsOutput{Events: eventOutputs(events)}, nil
}

func (s *Server) handleEstablishCausality(ctx context.Context, req *sdk.CallToolRequest, input EstablishCausalityInput) (*sdk.CallToolResult, RelationshipOutput, error) {
	causeID, err := parseID("cause_id", input.CauseID)
	if err != nil {
		return nil, RelationshipOutput{}, err
	}
	effectID, err := parseID("effect_id", input.EffectID)
	if err != nil {
		return nil, RelationshipOutput{}, err
	}
	strength := domain.DefaultStrength
	if input.Strength != "" {
		if strength, err = parseDecimal("strength", input.Strength); err != nil {
			return nil, RelationshipOutput{}, err
		}
	}
	rel, err := s.svc.EstablishCausality(ctx, causeID, effectID, strength)
	if err != nil {
		return nil, RelationshipOutput{}, err
	}
	return nil, relationshipOutput(rel), nil
}

func (s *Server) handleTraceCausality(ctx context.Context, req *sdk.CallToolRequest, input TraceCausalityInput) (*sdk.CallToolResult, TraceCausalityOutput, error) {
	eventID, err := parseID("event_id", input.EventID)
	if err != nil {
		return nil, TraceCausalityOutput{}, err
	}
	depth := -1
	if input.MaxDepth != nil {
		depth = *input.MaxDepth
	}
	paths, err := s.svc.TraceCausalChain(ctx, eventID, input.Direction, depth)
	if err != nil {
		return nil, TraceCausalityOutput{}, err
	}
	out := make([]CausalPathOutput, 0, len(paths))
	for _, p := range paths {
		out = append(out, CausalPathOutput{Events: eventOutputs(p.Events)})
	}
	return nil, TraceCausalityOutput{Paths: out}, nil
}

func (s *Server) handleCompressEvents(ctx context.Context, req *sdk.CallToolRequest, input CompressEventsInput) (*sdk.CallToolResult, CompressEventsOutput, error) {
	timelineID, err := parseID("timeline_id", input.TimelineID)
	if err != nil {
		return nil, CompressEventsOutput{}, err
	}
	before, err := parseTime("before", input.Before)
	if err != nil {
		return nil, CompressEventsOutput{}, err
	}
	minImportance := defaultCompressImportance
	if input.MinImportance != "" {
		if minImportance, err = parseDecimal("min_importance", input.MinImportance); err != nil {
			return nil, CompressEventsOutput{}, err
		}
	}
	n, err := s.svc.CompressEvents(ctx, timelineID, before, minImportance)
	if err != nil {
		return nil, CompressEventsOutput{}, err
	}
	return nil, CompressEventsOutput{Compressed: n}, nil
}

func (s *Server) handleTimelineSummary(ctx context.Context, req *sdk.CallToolRequest, input TimelineSummaryInput) (*sdk.CallToolResult, SummaryOutput, error) {
	timelineID, err := parseID("timeline_id", input.TimelineID)
	if err != nil {
		return nil, SummaryOutput{}, err
	}
	at := now()
	if input.At != "" {
		if at, err = parseTime("at", input.At); err != nil {
			return nil, SummaryOutput{}, err
		}
	}
	threshold := repository.DefaultImportanceThreshold
	if input.Threshold != "" {
		if threshold, err = parseDecimal("threshold", input.Threshold); err != nil {
			return nil, SummaryOutput{}, err
		}
	}
	summary, err := s.svc.GetTimelineSummary(ctx, timelineID, at, input.Recent, threshold)
	if err != nil {
		return nil, SummaryOutput{}, err
	}
	return nil, summaryOutput(summary), nil
}

func (s *Server) handleSimilarEvents(ctx context.Context, req *sdk.CallToolRequest, input SimilarEventsInput) (*sdk.CallToolResult, SimilarEventsOutput, error) {
	if len(input.Embedding) == 0 {
		return nil, SimilarEventsOutput{}, fmt.Errorf("embedding is required")
	}
	ids, err := parseIDs("timeline_ids", input.TimelineIDs)
	if err != nil {
		return nil, SimilarEventsOutput{}, err
	}
	results, err := s.svc.SearchSimilarEvents(ctx, input.Embedding, ids, input.Limit)
	if err != nil {
		return nil, SimilarEventsOutput{}, err
	}
	out := make([]ScoredEventOutput, 0, len(results))
	for _, r := range results {
		out = append(out, ScoredEventOutput{Event: eventOutput(r.Event), Score: r.Score})
	}
	return nil, SimilarEventsOutput{Results: out}, nil
}

func (s *Server) handleGetSchema(ctx context.Context, req *sdk.CallToolRequest, input GetSchemaInput) (*sdk.CallToolResult, SchemaOutput, error) {
	return nil, schemaOutputFromConfig(s.schema), nil
}
