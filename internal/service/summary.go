package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"timelines/internal/repository"
)

func (s *Service) CompressEvents(ctx context.Context, timelineID uuid.UUID, before time.Time, minImportance decimal.Decimal) (_ int, err error) {
	ctx, span := s.start(ctx, "CompressEvents", idAttr("timeline_id", timelineID))
	defer func() { finish(span, err) }()

	if _, err := s.requireTimeline(ctx, timelineID); err != nil {
		return 0, err
	}
	n, err := s.repo.CompressEvents(ctx, timelineID, before, minImportance)
	if err != nil {
		return n, err
	}
	span.SetAttributes(attribute.Int("compressed", n))
	s.logger.Info("events compressed",
		zap.Stringer("timeline_id", timelineID),
		zap.Time("before", before),
		zap.Stringer("min_importance", minImportance),
		zap.Int("count", n))
	return n, nil
}

func (s *Service) GetTimelineSummary(ctx context.Context, timelineID uuid.UUID, at time.Time, recencyWindow int, threshold decimal.Decimal) (_ repository.TimelineSummary, err error) {
	ctx, span := s.start(ctx, "GetTimelineSummary", idAttr("timeline_id", timelineID))
	defer func() { finish(span, err) }()

	if _, err := s.requireTimeline(ctx, timelineID); err != nil {
		return repository.TimelineSummary{}, err
	}
	return s.repo.GetTimelineSummary(ctx, timelineID, at, recencyWindow, threshold)
}

func (s *Service) SearchSimilarEvents(ctx context.Context, embedding []float32, timelineIDs []uuid.UUID, limit int) (_ []repository.ScoredEvent, err error) {
	ctx, span := s.start(ctx, "SearchSimilarEvents", attribute.Int("timelines", len(timelineIDs)), attribute.Int("limit", limit))
	defer func() { finish(span, err) }()

	if !s.repo.HasVectorStore() {
		s.logger.Debug("similarity search skipped, no vector store configured")
	}
	return s.repo.SearchSimilarEvents(ctx, embedding, timelineIDs, limit)
}

func (s *Service) SearchSimilarEntities(ctx context.Context, embedding []float32, projectID uuid.UUID, limit int) (_ []repository.ScoredEntity, err error) {
	ctx, span := s.start(ctx, "SearchSimilarEntities", idAttr("project_id", projectID), attribute.Int("limit", limit))
	defer func() { finish(span, err) }()
	return s.repo.SearchSimilarEntities(ctx, embedding, projectID, limit)
}
