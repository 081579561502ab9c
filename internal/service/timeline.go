package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"timelines/internal/domain"
)

const DefaultTreeDepth = 10

func (s *Service) CreateTimeline(ctx context.Context, userID, projectID uuid.UUID, name, description string, parentID *uuid.UUID, status domain.TimelineStatus) (_ *domain.Timeline, err error) {
	ctx, span := s.start(ctx, "CreateTimeline", idAttr("project_id", projectID))
	defer func() { finish(span, err) }()

	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.requireTimeline(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != projectID {
			return nil, &domain.ValidationError{Field: "parent_timeline_id", Message: "parent belongs to another project"}
		}
	}

	t, err := s.repo.CreateTimeline(ctx, projectID, userID, name, description, parentID, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("timeline created",
		zap.Stringer("timeline_id", t.ID),
		zap.Stringer("project_id", projectID),
		zap.String("name", t.Name),
		zap.String("status", string(t.Status)))
	return t, nil
}

func (s *Service) GetTimeline(ctx context.Context, id uuid.UUID) (_ *domain.Timeline, err error) {
	ctx, span := s.start(ctx, "GetTimeline", idAttr("timeline_id", id))
	defer func() { finish(span, err) }()
	return s.requireTimeline(ctx, id)
}

// FindTimeline returns the project's timeline called name, or nil.
func (s *Service) FindTimeline(ctx context.Context, projectID uuid.UUID, name string) (_ *domain.Timeline, err error) {
	ctx, span := s.start(ctx, "FindTimeline", idAttr("project_id", projectID))
	defer func() { finish(span, err) }()

	timelines, err := s.repo.ListTimelines(ctx, projectID, nil)
	if err != nil {
		return nil, err
	}
	for _, t := range timelines {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, nil
}

func (s *Service) ListTimelines(ctx context.Context, userID, projectID uuid.UUID, parentID *uuid.UUID) (_ []*domain.Timeline, err error) {
	ctx, span := s.start(ctx, "ListTimelines", idAttr("project_id", projectID))
	defer func() { finish(span, err) }()

	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListTimelines(ctx, projectID, parentID)
}

// GetTimelineTree returns rootID and its descendants, root first. A
// negative maxDepth uses DefaultTreeDepth.
func (s *Service) GetTimelineTree(ctx context.Context, rootID uuid.UUID, maxDepth int) (_ []*domain.Timeline, err error) {
	if maxDepth < 0 {
		maxDepth = DefaultTreeDepth
	}
	ctx, span := s.start(ctx, "GetTimelineTree", idAttr("timeline_id", rootID), attribute.Int("max_depth", maxDepth))
	defer func() { finish(span, err) }()
	return s.repo.GetTimelineTree(ctx, rootID, maxDepth)
}

func (s *Service) ForkTimeline(ctx context.Context, sourceID uuid.UUID, branchName string, from time.Time, status domain.TimelineStatus) (_ *domain.Timeline, err error) {
	ctx, span := s.start(ctx, "ForkTimeline", idAttr("timeline_id", sourceID))
	defer func() { finish(span, err) }()

	fork, err := s.repo.ForkTimeline(ctx, sourceID, branchName, from, status)
	if err != nil {
		return nil, fmt.Errorf("forking timeline %s: %w", sourceID, err)
	}
	s.logger.Info("timeline forked",
		zap.Stringer("source_id", sourceID),
		zap.Stringer("timeline_id", fork.ID),
		zap.Time("from", from))
	return fork, nil
}

func (s *Service) DeleteTimeline(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.start(ctx, "DeleteTimeline", idAttr("timeline_id", id))
	defer func() { finish(span, err) }()

	if _, err := s.requireTimeline(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTimeline(ctx, id); err != nil {
		return err
	}
	s.logger.Info("timeline deleted", zap.Stringer("timeline_id", id))
	return nil
}
