package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultRecencyWindow = 10

var DefaultImportanceThreshold = decimal.RequireFromString("0.7")

type SummaryEvent struct {
	Timestamp   time.Time
	Description string
	Importance  decimal.Decimal
}

// TimelineSummary condenses a timeline up to some instant. FirstEvent and
// LastEvent are nil when there are no events.
type TimelineSummary struct {
	EventCount      int
	FirstEvent      *time.Time
	LastEvent       *time.Time
	RecentEvents    []SummaryEvent
	ImportantEvents []SummaryEvent
}

// GetTimelineSummary summarises events at or before atTime. RecentEvents
// holds the latest recencyWindow events, newest first; ImportantEvents
// holds those at or above importanceThreshold in ascending order.
func (r *Repository) GetTimelineSummary(ctx context.Context, timelineID uuid.UUID, atTime time.Time, recencyWindow int, importanceThreshold decimal.Decimal) (TimelineSummary, error) {
	events, err := r.QueryEvents(ctx, timelineID, EventFilter{End: &atTime})
	if err != nil {
		return TimelineSummary{}, err
	}
	summary := TimelineSummary{
		RecentEvents:    []SummaryEvent{},
		ImportantEvents: []SummaryEvent{},
	}
	if len(events) == 0 {
		return summary, nil
	}
	if recencyWindow <= 0 {
		recencyWindow = DefaultRecencyWindow
	}

	summary.EventCount = len(events)
	first, last := events[0].Timestamp, events[len(events)-1].Timestamp
	summary.FirstEvent, summary.LastEvent = &first, &last

	for i := len(events) - 1; i >= 0 && len(summary.RecentEvents) < recencyWindow; i-- {
		summary.RecentEvents = append(summary.RecentEvents, summarise(events[i].Timestamp, events[i].Description, events[i].ImportanceScore))
	}
	for _, e := range events {
		if e.ImportanceScore.GreaterThanOrEqual(importanceThreshold) {
			summary.ImportantEvents = append(summary.ImportantEvents, summarise(e.Timestamp, e.Description, e.ImportanceScore))
		}
	}
	return summary, nil
}

func summarise(ts time.Time, description string, importance decimal.Decimal) SummaryEvent {
	return SummaryEvent{Timestamp: ts, Description: description, Importance: importance}
}
