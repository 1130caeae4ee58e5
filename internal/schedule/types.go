// Package schedule is the scheduling and conflict-resolution core: it turns
// free-text goals into time-anchored task candidates and places duration-only
// requests into a calendar of committed busy intervals. The generative oracle
// is advisory; the local conflict engine is authoritative.
package schedule

import "time"

// Category classifies where a task came from.
type Category string

const (
	CategoryUser        Category = "user"
	CategoryWork        Category = "work"
	CategoryMeeting     Category = "meeting"
	CategoryAIGenerated Category = "ai-generated"
	CategoryAIScheduled Category = "ai-scheduled"
)

// Priority is the task urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// TaskCandidate is a fully specified, time-anchored task produced by
// decomposition. Immutable once produced; persistence assigns identity.
type TaskCandidate struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Category    Category  `json:"category"`
	Priority    Priority  `json:"priority"`
}

// PlacementRequest is an unscheduled task described only by title and
// duration. Titles need not be unique.
type PlacementRequest struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"durationMinutes"`
}

// BusyInterval is a committed time range the planner must never violate.
type BusyInterval struct {
	ID    string    `json:"id,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PlacedEvent is a placement-scheduler output: a request assigned a concrete
// interval. It becomes a BusyInterval once persisted.
type PlacedEvent struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Span is a pair of absolute instants with Start < End.
type Span struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the span has positive duration.
func (s Span) Valid() bool {
	return s.Start.Before(s.End)
}

// Span returns the event's time range.
func (e PlacedEvent) Span() Span {
	return Span{Start: e.Start, End: e.End}
}

// Span returns the interval's time range.
func (b BusyInterval) Span() Span {
	return Span{Start: b.Start, End: b.End}
}

// Span returns the candidate's time range.
func (t TaskCandidate) Span() Span {
	return Span{Start: t.Start, End: t.End}
}
