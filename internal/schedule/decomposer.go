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

// ErrEmptyInput is returned when decomposition is asked to work on blank
// text. It is the only error Decompose can return.
var ErrEmptyInput = errors.New("decomposition input is empty")

// Decomposer turns a free-text goal into an ordered list of time-anchored
// task candidates. The oracle improves decomposition quality but is never a
// single point of failure: oracle errors, timeouts and unparsable responses
// all route to the deterministic local fallback.
type Decomposer struct {
	oracle oracle.Oracle
	logger *slog.Logger

	// now anchors fallback tasks; overridable in tests.
	now func() time.Time
}

func NewDecomposer(o oracle.Oracle, logger *slog.Logger) *Decomposer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Decomposer{oracle: o, logger: logger, now: time.Now}
}

// Decompose produces at least one actionable task for any non-empty input,
// degrading through three tiers: oracle decomposition, single-task expansion,
// and the local pattern fallback.
func (d *Decomposer) Decompose(ctx context.Context, text string) ([]TaskCandidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	tasks, err := d.oracleDecompose(ctx, text)
	if err != nil {
		d.logger.Warn("oracle decomposition failed, using local fallback", "error", err)
		return fallbackTasks(text, d.now()), nil
	}

	// A single task back means the goal was under-decomposed; ask the oracle
	// to break it into smaller steps. Keep the original on any failure.
	if len(tasks) == 1 {
		expanded, err := d.expand(ctx, tasks[0])
		if err != nil {
			d.logger.Warn("single-task expansion failed, keeping original", "error", err)
		} else {
			tasks = expanded
		}
	}

	d.logger.Info("decomposition complete", "tasks", len(tasks))
	return tasks, nil
}

func (d *Decomposer) oracleDecompose(ctx context.Context, text string) ([]TaskCandidate, error) {
	response, err := d.oracle.Generate(ctx, buildDecomposePrompt(text, d.now()))
	if err != nil {
		return nil, err
	}
	return parseTaskCandidates(response)
}

func (d *Decomposer) expand(ctx context.Context, task TaskCandidate) ([]TaskCandidate, error) {
	response, err := d.oracle.Generate(ctx, buildExpandPrompt(task))
	if err != nil {
		return nil, err
	}
	return parseTaskCandidates(response)
}

// parseTaskCandidates locates the JSON array in an oracle response and
// repairs what it can: under-specified fields get defaults, elements with a
// missing title or a non-positive duration are dropped. An array with no
// usable elements counts as a parse failure so the caller falls back.
func parseTaskCandidates(response string) ([]TaskCandidate, error) {
	raw, err := extractJSONArray(response)
	if err != nil {
		return nil, err
	}

	var items []taskItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parsing task array: %w", err)
	}

	tasks := make([]TaskCandidate, 0, len(items))
	for _, item := range items {
		task, ok := repairTask(item)
		if !ok {
			continue
		}
		tasks = append(tasks, task)
	}

	if len(tasks) == 0 {
		return nil, fmt.Errorf("oracle response contained no usable tasks")
	}
	return tasks, nil
}

func repairTask(item taskItem) (TaskCandidate, bool) {
	if strings.TrimSpace(item.Title) == "" {
		return TaskCandidate{}, false
	}

	start, err := time.Parse(time.RFC3339, item.Start)
	if err != nil {
		return TaskCandidate{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End)
	if err != nil {
		return TaskCandidate{}, false
	}
	if !start.Before(end) {
		return TaskCandidate{}, false
	}

	category := Category(item.Category)
	if category == "" {
		category = CategoryAIGenerated
	}
	priority := Priority(item.Priority)
	if priority == "" {
		priority = PriorityMedium
	}

	return TaskCandidate{
		Title:       item.Title,
		Description: item.Description,
		Start:       start.UTC(),
		End:         end.UTC(),
		Category:    category,
		Priority:    priority,
	}, true
}
