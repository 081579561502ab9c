package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"timelines/internal/domain"
)

func (s *Service) ReconstructState(ctx context.Context, timelineID uuid.UUID, at time.Time, entityIDs []uuid.UUID) (_ domain.WorldState, err error) {
	ctx, span := s.start(ctx, "ReconstructState", idAttr("timeline_id", timelineID), attribute.String("at", at.UTC().Format(time.RFC3339)))
	defer func() { finish(span, err) }()

	if _, err := s.requireTimeline(ctx, timelineID); err != nil {
		return domain.WorldState{}, err
	}
	return s.repo.ReconstructStateAt(ctx, timelineID, at, entityIDs)
}

// SaveCheckpoint reconstructs the full state at the given time and stores
// it as a snapshot so later reconstructions can start from it.
func (s *Service) SaveCheckpoint(ctx context.Context, timelineID uuid.UUID, at time.Time) (_ *domain.StateSnapshot, err error) {
	ctx, span := s.start(ctx, "SaveCheckpoint", idAttr("timeline_id", timelineID))
	defer func() { finish(span, err) }()

	if _, err := s.requireTimeline(ctx, timelineID); err != nil {
		return nil, err
	}
	state, err := s.repo.ReconstructStateAt(ctx, timelineID, at, nil)
	if err != nil {
		return nil, err
	}
	snap, err := s.repo.SaveStateSnapshot(ctx, timelineID, at, state)
	if err != nil {
		return nil, err
	}
	s.logger.Info("checkpoint saved",
		zap.Stringer("snapshot_id", snap.ID),
		zap.Stringer("timeline_id", timelineID),
		zap.Time("at", snap.Timestamp),
		zap.Int("entities", len(state.EntityStates)))
	return snap, nil
}

func (s *Service) ListCheckpoints(ctx context.Context, timelineID uuid.UUID) (_ []*domain.StateSnapshot, err error) {
	ctx, span := s.start(ctx, "ListCheckpoints", idAttr("timeline_id", timelineID))
	defer func() { finish(span, err) }()
	return s.repo.ListSnapshots(ctx, timelineID)
}
