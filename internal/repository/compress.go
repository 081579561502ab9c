package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"timelines/internal/domain"
)

// CompressEvents lowers by one the detail level of every event strictly
// before the cutoff whose importance is below minImportance and which is
// not already fully compressed. It returns the number of events changed.
func (r *Repository) CompressEvents(ctx context.Context, timelineID uuid.UUID, before time.Time, minImportance decimal.Decimal) (int, error) {
	events, err := r.storage.ListEventsByTimeline(ctx, timelineID)
	if err != nil {
		return 0, fmt.Errorf("compressing events: %w", err)
	}
	count := 0
	for _, e := range events {
		if !e.Timestamp.Before(before) || !e.ImportanceScore.LessThan(minImportance) || e.DetailLevel <= domain.DetailCompressed {
			continue
		}
		e.DetailLevel--
		if err := r.storage.UpdateEvent(ctx, e); err != nil {
			return count, fmt.Errorf("compressing event %s: %w", e.ID, err)
		}
		count++
	}
	return count, nil
}
