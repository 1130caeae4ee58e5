package store

import (
	"path/filepath"
	"testing"
	"time"

	"planr/internal/schedule"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "planr.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndListTasks(t *testing.T) {
	db := openTestDB(t)

	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	id, err := db.InsertTask(&Task{
		Title:       "Write report",
		Description: "Q3 summary",
		Start:       start,
		End:         start.Add(time.Hour),
		Category:    schedule.CategoryWork,
		Priority:    schedule.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("InsertTask: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a generated id")
	}

	tasks, err := db.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}

	got := tasks[0]
	if got.Title != "Write report" || got.Category != schedule.CategoryWork || got.Priority != schedule.PriorityHigh {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.Start.Equal(start) || !got.End.Equal(start.Add(time.Hour)) {
		t.Errorf("times mismatch: start=%s end=%s", got.Start, got.End)
	}
	if got.Completed {
		t.Error("new task should not be completed")
	}
}

func TestInsertTaskDefaults(t *testing.T) {
	db := openTestDB(t)

	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	if _, err := db.InsertTask(&Task{Title: "bare", Start: start, End: start.Add(time.Hour)}); err != nil {
		t.Fatalf("InsertTask: %v", err)
	}

	tasks, err := db.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if tasks[0].Category != schedule.CategoryUser {
		t.Errorf("category = %q, want user default", tasks[0].Category)
	}
	if tasks[0].Priority != schedule.PriorityMedium {
		t.Errorf("priority = %q, want medium default", tasks[0].Priority)
	}
}

func TestUpdateAndDeleteTask(t *testing.T) {
	db := openTestDB(t)

	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	task := Task{Title: "draft", Start: start, End: start.Add(time.Hour)}
	id, err := db.InsertTask(&task)
	if err != nil {
		t.Fatalf("InsertTask: %v", err)
	}
	task.ID = int(id)

	task.Title = "final"
	task.Completed = true
	found, err := db.UpdateTask(&task)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !found {
		t.Fatal("UpdateTask reported not found")
	}

	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got == nil || got.Title != "final" || !got.Completed {
		t.Errorf("update not persisted: %+v", got)
	}

	found, err = db.DeleteTask(task.ID)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if !found {
		t.Fatal("DeleteTask reported not found")
	}

	if found, _ := db.DeleteTask(task.ID); found {
		t.Error("deleting twice should report not found")
	}
}

func TestUpdateMissingTask(t *testing.T) {
	db := openTestDB(t)

	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	found, err := db.UpdateTask(&Task{ID: 42, Title: "ghost", Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if found {
		t.Error("expected not found for missing id")
	}
}

func TestBusyIntervals(t *testing.T) {
	db := openTestDB(t)

	start := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	events := []schedule.PlacedEvent{
		{Title: "standup", Start: start, End: start.Add(30 * time.Minute)},
		{Title: "review", Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour)},
	}
	stored, err := db.InsertPlacedEvents(events)
	if err != nil {
		t.Fatalf("InsertPlacedEvents: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d events, want 2", len(stored))
	}
	for _, task := range stored {
		if task.Category != schedule.CategoryAIScheduled {
			t.Errorf("category = %q, want ai-scheduled", task.Category)
		}
	}

	busy, err := db.BusyIntervals()
	if err != nil {
		t.Fatalf("BusyIntervals: %v", err)
	}
	if len(busy) != 2 {
		t.Fatalf("got %d busy intervals, want 2", len(busy))
	}
	for _, b := range busy {
		if b.ID == "" {
			t.Error("busy interval missing owning task id")
		}
		if !b.Start.Before(b.End) {
			t.Errorf("busy interval %s has start >= end", b.ID)
		}
	}
}

func TestUpcomingTasks(t *testing.T) {
	db := openTestDB(t)

	now := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	insert := func(title string, start time.Time, completed bool) {
		t.Helper()
		if _, err := db.InsertTask(&Task{
			Title: title, Start: start, End: start.Add(time.Hour), Completed: completed,
		}); err != nil {
			t.Fatalf("InsertTask(%q): %v", title, err)
		}
	}

	insert("past", now.Add(-time.Hour), false)
	insert("soon", now.Add(5*time.Minute), false)
	insert("soon but done", now.Add(5*time.Minute), true)
	insert("later", now.Add(2*time.Hour), false)

	got, err := db.UpcomingTasks(now, now.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("UpcomingTasks: %v", err)
	}
	if len(got) != 1 || got[0].Title != "soon" {
		t.Fatalf("got %+v, want only the pending upcoming task", got)
	}
}
