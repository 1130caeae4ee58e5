package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"planr/internal/schedule"
)

// Task is a persisted calendar task. This is the committed ground truth the
// planner's busy intervals come from.
type Task struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Category    schedule.Category `json:"category"`
	Priority    schedule.Priority `json:"priority"`
	Completed   bool              `json:"is_completed"`
	CreatedAt   time.Time         `json:"created_at"`
}

const taskColumns = "id, title, description, start_time, end_time, category, priority, is_completed, created_at"

func (db *DB) InsertTask(t *Task) (int64, error) {
	if t.Category == "" {
		t.Category = schedule.CategoryUser
	}
	if t.Priority == "" {
		t.Priority = schedule.PriorityMedium
	}

	result, err := db.Exec(
		`INSERT INTO tasks (title, description, start_time, end_time, category, priority, is_completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description,
		t.Start.UTC().Format(time.RFC3339),
		t.End.UTC().Format(time.RFC3339),
		string(t.Category), string(t.Priority), t.Completed,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting task: %w", err)
	}
	return result.LastInsertId()
}

// InsertCandidates persists a batch of decomposed task candidates, returning
// the stored tasks with their generated identifiers.
func (db *DB) InsertCandidates(candidates []schedule.TaskCandidate) ([]Task, error) {
	stored := make([]Task, 0, len(candidates))
	for _, c := range candidates {
		t := Task{
			Title:       c.Title,
			Description: c.Description,
			Start:       c.Start,
			End:         c.End,
			Category:    c.Category,
			Priority:    c.Priority,
		}
		id, err := db.InsertTask(&t)
		if err != nil {
			return nil, err
		}
		t.ID = int(id)
		stored = append(stored, t)
	}
	return stored, nil
}

// InsertPlacedEvents persists scheduler output as ai-scheduled tasks.
func (db *DB) InsertPlacedEvents(events []schedule.PlacedEvent) ([]Task, error) {
	stored := make([]Task, 0, len(events))
	for _, e := range events {
		t := Task{
			Title:    e.Title,
			Start:    e.Start,
			End:      e.End,
			Category: schedule.CategoryAIScheduled,
			Priority: schedule.PriorityMedium,
		}
		id, err := db.InsertTask(&t)
		if err != nil {
			return nil, err
		}
		t.ID = int(id)
		stored = append(stored, t)
	}
	return stored, nil
}

func (db *DB) ListTasks() ([]Task, error) {
	return db.queryTasks(
		`SELECT ` + taskColumns + ` FROM tasks ORDER BY start_time ASC`,
	)
}

func (db *DB) GetTask(id int) (*Task, error) {
	tasks, err := db.queryTasks(
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id,
	)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

func (db *DB) UpdateTask(t *Task) (bool, error) {
	result, err := db.Exec(
		`UPDATE tasks
		 SET title = ?, description = ?, start_time = ?, end_time = ?, category = ?, priority = ?, is_completed = ?
		 WHERE id = ?`,
		t.Title, t.Description,
		t.Start.UTC().Format(time.RFC3339),
		t.End.UTC().Format(time.RFC3339),
		string(t.Category), string(t.Priority), t.Completed, t.ID,
	)
	if err != nil {
		return false, fmt.Errorf("updating task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *DB) DeleteTask(id int) (bool, error) {
	result, err := db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpcomingTasks returns incomplete tasks starting within [from, to), soonest
// first. The reminder ticker polls this.
func (db *DB) UpcomingTasks(from, to time.Time) ([]Task, error) {
	return db.queryTasks(
		`SELECT `+taskColumns+` FROM tasks
		 WHERE is_completed = 0 AND start_time >= ? AND start_time < ?
		 ORDER BY start_time ASC`,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	)
}

// BusyIntervals returns every persisted task as a committed busy interval.
// Read fresh immediately before each placement call; the store does no
// transactional reasoning on the planner's behalf.
func (db *DB) BusyIntervals() ([]schedule.BusyInterval, error) {
	tasks, err := db.ListTasks()
	if err != nil {
		return nil, err
	}

	busy := make([]schedule.BusyInterval, 0, len(tasks))
	for _, t := range tasks {
		busy = append(busy, schedule.BusyInterval{
			ID:    strconv.Itoa(t.ID),
			Start: t.Start,
			End:   t.End,
		})
	}
	return busy, nil
}

func (db *DB) queryTasks(query string, args ...interface{}) ([]Task, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var category, priority string
		var startStr, endStr string
		var createdStr sql.NullString

		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description,
			&startStr, &endStr, &category, &priority, &t.Completed, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}

		t.Category = schedule.Category(category)
		t.Priority = schedule.Priority(priority)

		if ts, err := time.Parse(time.RFC3339, startStr); err == nil {
			t.Start = ts
		}
		if ts, err := time.Parse(time.RFC3339, endStr); err == nil {
			t.End = ts
		}
		if createdStr.Valid {
			if ts, err := parseStoredTime(createdStr.String); err == nil {
				t.CreatedAt = ts
			}
		}

		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// parseStoredTime accepts both RFC3339 and sqlite's CURRENT_TIMESTAMP format.
func parseStoredTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
