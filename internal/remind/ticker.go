// Package remind polls the task store and raises a desktop notification
// shortly before each task starts.
package remind

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gen2brain/beeep"

	"planr/internal/store"
)

type Ticker struct {
	db     *store.DB
	lead   time.Duration
	logger *slog.Logger

	// notify is swappable in tests; defaults to a desktop notification.
	notify func(title, message string) error

	notified map[int]struct{}
}

func New(db *store.DB, leadMinutes int, logger *slog.Logger) *Ticker {
	if leadMinutes <= 0 {
		leadMinutes = 10
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Ticker{
		db:     db,
		lead:   time.Duration(leadMinutes) * time.Minute,
		logger: logger,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		notified: make(map[int]struct{}),
	}
}

// Run checks once per minute, aligned to the minute boundary, and stops when
// ctx is canceled.
func (t *Ticker) Run(ctx context.Context) error {
	t.logger.Info("reminder ticker started", "lead", t.lead)

	for {
		next := time.Now().Truncate(time.Minute).Add(time.Minute)

		select {
		case <-ctx.Done():
			t.logger.Info("reminder ticker stopped")
			return nil
		case <-time.After(time.Until(next)):
		}

		t.check(next)
	}
}

func (t *Ticker) check(now time.Time) {
	tasks, err := t.db.UpcomingTasks(now, now.Add(t.lead))
	if err != nil {
		t.logger.Error("loading upcoming tasks", "error", err)
		return
	}

	for _, task := range tasks {
		if _, seen := t.notified[task.ID]; seen {
			continue
		}
		t.notified[task.ID] = struct{}{}

		message := fmt.Sprintf("%s starts at %s", task.Title, task.Start.Local().Format("15:04"))
		if err := t.notify("planr", message); err != nil {
			t.logger.Warn("sending notification", "task", task.ID, "error", err)
			continue
		}
		t.logger.Debug("notified", "task", task.ID, "title", task.Title)
	}
}
