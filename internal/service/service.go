// Package service is the use-case layer over the repository. It checks
// ownership and existence before mutating, indexes embeddings when given,
// and wraps every operation in a trace span and a structured log line.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"timelines/internal/domain"
	"timelines/internal/repository"
)

const tracerName = "timelines/service"

var ErrAccessDenied = errors.New("access denied")

type Service struct {
	repo   *repository.Repository
	logger *zap.Logger
	tracer trace.Tracer
}

func New(repo *repository.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		logger: logger.Named("service"),
		tracer: otel.Tracer(tracerName),
	}
}

// Repository exposes the underlying repository for batch tooling such as
// ingest and validation.
func (s *Service) Repository() *repository.Repository { return s.repo }

func (s *Service) Initialize(ctx context.Context) error {
	return s.repo.Initialize(ctx)
}

func (s *Service) Close(ctx context.Context) error {
	return s.repo.Close(ctx)
}

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "service."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func idAttr(key string, id uuid.UUID) attribute.KeyValue {
	return attribute.String(key, id.String())
}

// ownedProject loads a project and checks that userID owns it.
func (s *Service) ownedProject(ctx context.Context, userID, projectID uuid.UUID) (*domain.Project, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	if p == nil {
		return nil, domain.NotFound("project", projectID)
	}
	if p.UserID != userID {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrAccessDenied)
	}
	return p, nil
}

func (s *Service) requireTimeline(ctx context.Context, id uuid.UUID) (*domain.Timeline, error) {
	t, err := s.repo.GetTimeline(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting timeline: %w", err)
	}
	if t == nil {
		return nil, domain.NotFound("timeline", id)
	}
	return t, nil
}

func (s *Service) requireEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	e, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	if e == nil {
		return nil, domain.NotFound("event", id)
	}
	return e, nil
}

func (s *Service) requireEntity(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	e, err := s.repo.GetEntity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting entity: %w", err)
	}
	if e == nil {
		return nil, domain.NotFound("entity", id)
	}
	return e, nil
}
