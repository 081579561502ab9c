package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timelines/internal/domain"
)

func (s *Service) CreateProject(ctx context.Context, userID uuid.UUID, name, description string) (_ *domain.Project, err error) {
	ctx, span := s.start(ctx, "CreateProject", idAttr("user_id", userID))
	defer func() { finish(span, err) }()

	p, err := s.repo.CreateProject(ctx, userID, name, description, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info("project created", zap.Stringer("project_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// GetProject returns the project if userID owns it.
func (s *Service) GetProject(ctx context.Context, userID, projectID uuid.UUID) (_ *domain.Project, err error) {
	ctx, span := s.start(ctx, "GetProject", idAttr("project_id", projectID))
	defer func() { finish(span, err) }()
	return s.ownedProject(ctx, userID, projectID)
}

func (s *Service) ListUserProjects(ctx context.Context, userID uuid.UUID) (_ []*domain.Project, err error) {
	ctx, span := s.start(ctx, "ListUserProjects", idAttr("user_id", userID))
	defer func() { finish(span, err) }()
	return s.repo.ListUserProjects(ctx, userID)
}

// EnsureProject returns the user's project called name, creating it when
// the user has none by that name.
func (s *Service) EnsureProject(ctx context.Context, userID uuid.UUID, name string) (_ *domain.Project, err error) {
	ctx, span := s.start(ctx, "EnsureProject", idAttr("user_id", userID))
	defer func() { finish(span, err) }()

	projects, err := s.repo.ListUserProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.Name == name {
			return p, nil
		}
	}
	p, err := s.repo.CreateProject(ctx, userID, name, "", nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info("project created", zap.Stringer("project_id", p.ID), zap.String("name", p.Name))
	return p, nil
}
