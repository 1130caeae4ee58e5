package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"planr/internal/oracle"
)

// ErrInvalidRequest marks a malformed placement batch: a request with an
// empty title or non-positive duration. The whole batch is rejected, nothing
// is partially processed.
var ErrInvalidRequest = errors.New("invalid placement request")

// Planner places duration-only task requests into free calendar time. The
// oracle proposes, the conflict engine disposes: every proposed event is
// re-validated locally before it is returned.
type Planner struct {
	oracle oracle.Oracle
	logger *slog.Logger
}

func NewPlanner(o oracle.Oracle, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{oracle: o, logger: logger}
}

// PlaceTasks assigns concrete intervals to as many requests as can be placed
// without touching a busy interval or another placed event. The result may be
// smaller than the batch (the caller derives the skipped count); it is never
// partially returned alongside an error. Oracle failure is fatal here —
// unlike decomposition there is no safe heuristic placement without a
// trustworthy busy-slot plan.
func (p *Planner) PlaceTasks(ctx context.Context, requests []PlacementRequest, busy []BusyInterval) ([]PlacedEvent, error) {
	if err := validateBatch(requests); err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return []PlacedEvent{}, nil
	}

	prompt := buildPlacementPrompt(requests, busy)

	p.logger.Debug("requesting placement plan", "requests", len(requests), "busy", len(busy))

	response, err := p.oracle.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("scheduling failed: %w", err)
	}

	proposed, err := parsePlacements(response)
	if err != nil {
		p.logger.Error("unusable placement response", "error", err, "response_len", len(response))
		return nil, fmt.Errorf("scheduling failed: %w", err)
	}

	// Proposals with non-positive duration are oracle semantic violations,
	// dropped before they can reach the conflict engine.
	candidates := make([]PlacedEvent, 0, len(proposed))
	for _, ev := range proposed {
		if !ev.Span().Valid() {
			p.logger.Warn("dropping proposal with invalid interval", "title", ev.Title, "start", ev.Start, "end", ev.End)
			continue
		}
		candidates = append(candidates, ev)
	}

	placed := FilterNonOverlapping(candidates, busy)

	p.logger.Info("placement complete",
		"requested", len(requests),
		"proposed", len(proposed),
		"placed", len(placed),
	)

	return placed, nil
}

func validateBatch(requests []PlacementRequest) error {
	for i, req := range requests {
		if strings.TrimSpace(req.Title) == "" {
			return fmt.Errorf("%w: request %d has an empty title", ErrInvalidRequest, i)
		}
		if req.DurationMinutes <= 0 {
			return fmt.Errorf("%w: request %d (%q) has duration %d, want > 0", ErrInvalidRequest, i, req.Title, req.DurationMinutes)
		}
	}
	return nil
}

// parsePlacements extracts and decodes the proposed event array. Any element
// missing title, start or end makes the whole response untrustworthy and
// fails the call — malformed oracle output is not partially salvaged.
func parsePlacements(response string) ([]PlacedEvent, error) {
	raw, err := extractJSONArray(response)
	if err != nil {
		return nil, err
	}

	var items []placedItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parsing placement array: %w", err)
	}

	events := make([]PlacedEvent, 0, len(items))
	for i, item := range items {
		if item.Title == "" || item.Start == "" || item.End == "" {
			return nil, fmt.Errorf("placement element %d is missing title, start or end", i)
		}
		start, err := time.Parse(time.RFC3339, item.Start)
		if err != nil {
			return nil, fmt.Errorf("parsing start of element %d: %w", i, err)
		}
		end, err := time.Parse(time.RFC3339, item.End)
		if err != nil {
			return nil, fmt.Errorf("parsing end of element %d: %w", i, err)
		}
		events = append(events, PlacedEvent{Title: item.Title, Start: start.UTC(), End: end.UTC()})
	}

	return events, nil
}
