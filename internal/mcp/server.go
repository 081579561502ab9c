// Package mcp exposes the timeline service as Model Context Protocol tools.
package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"timelines/internal/config"
	"timelines/internal/domain"
	"timelines/internal/repository"
	"timelines/internal/service"
)

// Service is the part of the timeline service the tools call.
type Service interface {
	CreateProject(ctx context.Context, userID uuid.UUID, name, description string) (*domain.Project, error)
	GetProject(ctx context.Context, userID, projectID uuid.UUID) (*domain.Project, error)
	ListUserProjects(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)

	CreateTimeline(ctx context.Context, userID, projectID uuid.UUID, name, description string, parentID *uuid.UUID, status domain.TimelineStatus) (*domain.Timeline, error)
	ListTimelines(ctx context.Context, userID, projectID uuid.UUID, parentID *uuid.UUID) ([]*domain.Timeline, error)
	GetTimelineTree(ctx context.Context, rootID uuid.UUID, maxDepth int) ([]*domain.Timeline, error)
	ForkTimeline(ctx context.Context, sourceID uuid.UUID, branchName string, from time.Time, status domain.TimelineStatus) (*domain.Timeline, error)

	AddEvent(ctx context.Context, in service.EventInput) (*domain.Event, error)
	QueryEvents(ctx context.Context, timelineID uuid.UUID, filter repository.EventFilter) ([]*domain.Event, error)
	ReconstructState(ctx context.Context, timelineID uuid.UUID, at time.Time, entityIDs []uuid.UUID) (domain.WorldState, error)
	SaveCheckpoint(ctx context.Context, timelineID uuid.UUID, at time.Time) (*domain.StateSnapshot, error)

	CreateEntity(ctx context.Context, userID uuid.UUID, in service.EntityInput) (*domain.Entity, error)
	GetEntity(ctx context.Context, id uuid.UUID) (*domain.Entity, error)
	ListEntities(ctx context.Context, projectID uuid.UUID, entityType domain.EntityType) ([]*domain.Entity, error)

	LinkEventEntity(ctx context.Context, eventID, entityID uuid.UUID, role string) error
	GetEventEntities(ctx context.Context, eventID uuid.UUID) ([]repository.EntityRole, error)
	GetEntityEvents(ctx context.Context, entityID, timelineID uuid.UUID, filter repository.EntityEventFilter) ([]*domain.Event, error)
	GetEventsAtLocation(ctx context.Context, locationID, timelineID uuid.UUID, start, end *time.Time) ([]*domain.Event, error)
	GetCharacterInteractions(ctx context.Context, characterIDs []uuid.UUID, timelineID uuid.UUID, start, end *time.Time) ([]*domain.Event, error)

	EstablishCausality(ctx context.Context, causeID, effectID uuid.UUID, strength decimal.Decimal) (*domain.Relationship, error)
	TraceCausalChain(ctx context.Context, eventID uuid.UUID, direction string, maxDepth int) ([]repository.CausalPath, error)

	CompressEvents(ctx context.Context, timelineID uuid.UUID, before time.Time, minImportance decimal.Decimal) (int, error)
	GetTimelineSummary(ctx context.Context, timelineID uuid.UUID, at time.Time, recencyWindow int, threshold decimal.Decimal) (repository.TimelineSummary, error)
	SearchSimilarEvents(ctx context.Context, embedding []float32, timelineIDs []uuid.UUID, limit int) ([]repository.ScoredEvent, error)
}

var _ Service = (*service.Service)(nil)

type Server struct {
	svc    Service
	schema *config.Schema
	user   uuid.UUID
	logger *zap.Logger
	mcp    *sdk.Server
}

// NewServer registers every tool. All calls act as user.
func NewServer(svc Service, schema *config.Schema, user uuid.UUID, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:    svc,
		schema: schema,
		user:   user,
		logger: logger.Named("mcp"),
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "timelines",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	s.logger.Info("serving mcp", zap.String("user", s.user.String()))
	return s.mcp.Run(ctx, transport)
}

// Handler serves the tools over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.mcp
	}, nil)
}
