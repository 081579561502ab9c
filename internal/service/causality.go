package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"timelines/internal/domain"
	"timelines/internal/repository"
)

const DefaultCausalDepth = 5

// EstablishCausality records that cause led to effect.
func (s *Service) EstablishCausality(ctx context.Context, causeID, effectID uuid.UUID, strength decimal.Decimal) (_ *domain.Relationship, err error) {
	ctx, span := s.start(ctx, "EstablishCausality", idAttr("cause_id", causeID), idAttr("effect_id", effectID))
	defer func() { finish(span, err) }()

	if causeID == effectID {
		return nil, &domain.ValidationError{Field: "effect_id", Message: "an event cannot cause itself"}
	}
	if _, err := s.requireEvent(ctx, causeID); err != nil {
		return nil, err
	}
	if _, err := s.requireEvent(ctx, effectID); err != nil {
		return nil, err
	}
	rel, err := s.repo.CreateRelationship(ctx, domain.EventRef(causeID), domain.EventRef(effectID), domain.RelationCausal,
		domain.WithStrength(strength))
	if err != nil {
		return nil, err
	}
	s.logger.Info("causality established",
		zap.Stringer("relationship_id", rel.ID),
		zap.Stringer("cause_id", causeID),
		zap.Stringer("effect_id", effectID))
	return rel, nil
}

// IsForward reports whether direction asks for effects rather than causes.
func IsForward(direction string) bool {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "forward", "effects", "consequences":
		return true
	}
	return false
}

// TraceCausalChain follows causal links from eventID. Direction "forward",
// "effects" or "consequences" walks toward effects; anything else walks
// toward causes. A negative maxDepth uses DefaultCausalDepth.
func (s *Service) TraceCausalChain(ctx context.Context, eventID uuid.UUID, direction string, maxDepth int) (_ []repository.CausalPath, err error) {
	if maxDepth < 0 {
		maxDepth = DefaultCausalDepth
	}
	forward := IsForward(direction)
	ctx, span := s.start(ctx, "TraceCausalChain", idAttr("event_id", eventID),
		attribute.Bool("forward", forward), attribute.Int("max_depth", maxDepth))
	defer func() { finish(span, err) }()

	paths, err := s.repo.TraceCausality(ctx, eventID, maxDepth, forward)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("paths", len(paths)))
	return paths, nil
}
