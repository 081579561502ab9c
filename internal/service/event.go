package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"timelines/internal/domain"
	"timelines/internal/repository"
)

const DefaultRecentLimit = 50

// EventInput carries the fields of a new event. Nil pointers take the
// domain defaults. A non-empty Embedding is indexed for similarity search.
type EventInput struct {
	TimelineID   uuid.UUID
	Timestamp    time.Time
	EndTimestamp *time.Time
	EventType    domain.EventType
	Description  string
	Importance   *decimal.Decimal
	DetailLevel  *int
	StateDelta   domain.StateDelta
	Metadata     domain.Properties
	Embedding    []float32
}

func (in EventInput) options() []domain.EventOption {
	var opts []domain.EventOption
	if in.EndTimestamp != nil {
		opts = append(opts, domain.WithEndTimestamp(*in.EndTimestamp))
	}
	if in.Importance != nil {
		opts = append(opts, domain.WithImportance(*in.Importance))
	}
	if in.DetailLevel != nil {
		opts = append(opts, domain.WithDetailLevel(*in.DetailLevel))
	}
	if !in.StateDelta.IsEmpty() {
		opts = append(opts, domain.WithStateDelta(in.StateDelta))
	}
	if len(in.Metadata) > 0 {
		opts = append(opts, domain.WithEventMetadata(in.Metadata))
	}
	return opts
}

func (s *Service) AddEvent(ctx context.Context, in EventInput) (_ *domain.Event, err error) {
	ctx, span := s.start(ctx, "AddEvent", idAttr("timeline_id", in.TimelineID), attribute.String("event_type", string(in.EventType)))
	defer func() { finish(span, err) }()

	if _, err := s.requireTimeline(ctx, in.TimelineID); err != nil {
		return nil, err
	}
	e, err := s.repo.AddEvent(ctx, in.TimelineID, in.Timestamp, in.EventType, in.Description, in.options()...)
	if err != nil {
		return nil, err
	}
	if len(in.Embedding) > 0 {
		if err := s.repo.IndexEvent(ctx, e.ID, e.TimelineID, in.Embedding); err != nil {
			return nil, err
		}
	}
	s.logger.Info("event added",
		zap.Stringer("event_id", e.ID),
		zap.Stringer("timeline_id", e.TimelineID),
		zap.Time("timestamp", e.Timestamp),
		zap.String("event_type", string(e.EventType)),
		zap.Bool("indexed", len(in.Embedding) > 0 && s.repo.HasVectorStore()))
	return e, nil
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (_ *domain.Event, err error) {
	ctx, span := s.start(ctx, "GetEvent", idAttr("event_id", id))
	defer func() { finish(span, err) }()
	return s.requireEvent(ctx, id)
}

func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.start(ctx, "DeleteEvent", idAttr("event_id", id))
	defer func() { finish(span, err) }()

	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.logger.Info("event deleted", zap.Stringer("event_id", id))
	return nil
}

func (s *Service) QueryEvents(ctx context.Context, timelineID uuid.UUID, filter repository.EventFilter) (_ []*domain.Event, err error) {
	ctx, span := s.start(ctx, "QueryEvents", idAttr("timeline_id", timelineID))
	defer func() { finish(span, err) }()

	events, err := s.repo.QueryEvents(ctx, timelineID, filter)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("result_count", len(events)))
	return events, nil
}

// GetRecentEvents returns up to limit events strictly before the given
// time, newest first. A limit of zero or less means DefaultRecentLimit.
func (s *Service) GetRecentEvents(ctx context.Context, timelineID uuid.UUID, before time.Time, limit int) (_ []*domain.Event, err error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	ctx, span := s.start(ctx, "GetRecentEvents", idAttr("timeline_id", timelineID), attribute.Int("limit", limit))
	defer func() { finish(span, err) }()
	return s.repo.GetEventsBefore(ctx, timelineID, before, limit)
}
