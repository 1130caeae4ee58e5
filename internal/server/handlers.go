package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"planr/internal/calendar"
	"planr/internal/schedule"
	"planr/internal/store"
)

type taskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Category    schedule.Category `json:"category"`
	Priority    schedule.Priority `json:"priority"`
	Completed   bool              `json:"is_completed"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.Ping(); err != nil {
		status = "database unavailable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.db.ListTasks()
	if err != nil {
		s.logger.Error("listing tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "listing tasks failed")
		return
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !req.Start.Before(req.End) {
		writeError(w, http.StatusBadRequest, "start must be before end")
		return
	}

	task := store.Task{
		Title:       req.Title,
		Description: req.Description,
		Start:       req.Start,
		End:         req.End,
		Category:    req.Category,
		Priority:    req.Priority,
	}
	id, err := s.db.InsertTask(&task)
	if err != nil {
		s.logger.Error("creating task", "error", err)
		writeError(w, http.StatusInternalServerError, "creating task failed")
		return
	}
	task.ID = int(id)

	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !req.Start.Before(req.End) {
		writeError(w, http.StatusBadRequest, "start must be before end")
		return
	}

	task := store.Task{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Start:       req.Start,
		End:         req.End,
		Category:    req.Category,
		Priority:    req.Priority,
		Completed:   req.Completed,
	}
	found, err := s.db.UpdateTask(&task)
	if err != nil {
		s.logger.Error("updating task", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "updating task failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	found, err := s.db.DeleteTask(id)
	if err != nil {
		s.logger.Error("deleting task", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "deleting task failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

func (s *Server) handleTextToTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	candidates, err := s.decomposer.Decompose(r.Context(), req.Text)
	if err != nil {
		// Only empty input reaches here; everything else falls back locally.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.db.InsertCandidates(candidates)
	if err != nil {
		s.logger.Error("persisting decomposed tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "persisting tasks failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"tasks": stored,
		"count": len(stored),
	})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tasks []schedule.PlacementRequest `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Busy intervals are read fresh per call: the local store plus, when
	// configured, the external ICS feed for the coming weeks.
	busy, err := s.db.BusyIntervals()
	if err != nil {
		s.logger.Error("loading busy intervals", "error", err)
		writeError(w, http.StatusInternalServerError, "loading busy intervals failed")
		return
	}
	if s.cfg.Calendar.Enabled && s.cfg.Calendar.Source != "" {
		now := time.Now()
		external, err := calendar.FetchBusy(r.Context(), s.cfg.Calendar.Source, now, now.AddDate(0, 0, 28))
		if err != nil {
			s.logger.Warn("external calendar unavailable, scheduling against store only", "error", err)
		} else {
			busy = append(busy, external...)
		}
	}

	placed, err := s.planner.PlaceTasks(r.Context(), req.Tasks, busy)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("placement failed", "error", err)
		writeError(w, http.StatusBadGateway, "scheduling failed")
		return
	}

	stored, err := s.db.InsertPlacedEvents(placed)
	if err != nil {
		s.logger.Error("persisting placed events", "error", err)
		writeError(w, http.StatusInternalServerError, "persisting events failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":  stored,
		"skipped": len(req.Tasks) - len(placed),
	})
}

func (s *Server) handleEnhanceGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Goal string `json:"goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Goal == "" {
		writeError(w, http.StatusBadRequest, "goal is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"goal":     req.Goal,
		"enhanced": s.decomposer.EnhanceGoal(r.Context(), req.Goal),
	})
}
