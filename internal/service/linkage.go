package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"timelines/internal/domain"
	"timelines/internal/repository"
)

func (s *Service) LinkEventEntity(ctx context.Context, eventID, entityID uuid.UUID, role string) (err error) {
	ctx, span := s.start(ctx, "LinkEventEntity", idAttr("event_id", eventID), idAttr("entity_id", entityID))
	defer func() { finish(span, err) }()

	if _, err := s.requireEvent(ctx, eventID); err != nil {
		return err
	}
	if _, err := s.requireEntity(ctx, entityID); err != nil {
		return err
	}
	if err := s.repo.LinkEventEntity(ctx, eventID, entityID, role); err != nil {
		return err
	}
	s.logger.Debug("entity linked",
		zap.Stringer("event_id", eventID),
		zap.Stringer("entity_id", entityID),
		zap.String("role", domain.NormalizeRole(role)))
	return nil
}

func (s *Service) GetEventEntities(ctx context.Context, eventID uuid.UUID) (_ []repository.EntityRole, err error) {
	ctx, span := s.start(ctx, "GetEventEntities", idAttr("event_id", eventID))
	defer func() { finish(span, err) }()
	return s.repo.GetEventEntities(ctx, eventID)
}

func (s *Service) GetEntityEvents(ctx context.Context, entityID, timelineID uuid.UUID, filter repository.EntityEventFilter) (_ []*domain.Event, err error) {
	ctx, span := s.start(ctx, "GetEntityEvents", idAttr("entity_id", entityID), idAttr("timeline_id", timelineID))
	defer func() { finish(span, err) }()
	return s.repo.GetEntityEvents(ctx, entityID, timelineID, filter)
}

func (s *Service) GetEventsAtLocation(ctx context.Context, locationID, timelineID uuid.UUID, start, end *time.Time) (_ []*domain.Event, err error) {
	ctx, span := s.start(ctx, "GetEventsAtLocation", idAttr("entity_id", locationID), idAttr("timeline_id", timelineID))
	defer func() { finish(span, err) }()
	return s.repo.GetEventsAtLocation(ctx, locationID, timelineID, start, end)
}

// GetCharacterInteractions returns events that involve every one of the
// given characters.
func (s *Service) GetCharacterInteractions(ctx context.Context, characterIDs []uuid.UUID, timelineID uuid.UUID, start, end *time.Time) (_ []*domain.Event, err error) {
	ctx, span := s.start(ctx, "GetCharacterInteractions", idAttr("timeline_id", timelineID), attribute.Int("characters", len(characterIDs)))
	defer func() { finish(span, err) }()
	return s.repo.GetEventsWithEntities(ctx, characterIDs, timelineID, true, start, end)
}
