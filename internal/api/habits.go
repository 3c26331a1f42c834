package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/validation"
)

// GET /api/habits?archived=only|all
func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	var list []models.Habit
	switch r.URL.Query().Get("archived") {
	case "only":
		list = s.store.ArchivedHabits()
	case "all":
		list = s.store.Habits()
	default:
		list = s.store.ActiveHabits()
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddHabit(w http.ResponseWriter, r *http.Request) {
	var d models.HabitDraft
	if err := decodeBody(r, &d); err != nil {
		writeErr(w, err)
		return
	}
	if d.StreakGoal == 0 {
		d.StreakGoal = constants.DefaultStreakGoal
	}
	if result := validation.New().ValidateDraft(d); result.HasConflicts() {
		writeConflicts(w, result)
		return
	}
	writeJSON(w, http.StatusCreated, s.store.AddHabit(d))
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	h, ok := s.store.Habit(chi.URLParam(r, "id"))
	if !ok {
		writeErr(w, notFound(r))
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	var p models.HabitPatch
	if err := decodeBody(r, &p); err != nil {
		writeErr(w, err)
		return
	}
	if result := validation.New().ValidatePatch(p); result.HasConflicts() {
		writeConflicts(w, result)
		return
	}
	id := chi.URLParam(r, "id")
	if !s.store.UpdateHabit(id, p) {
		writeErr(w, notFound(r))
		return
	}
	h, _ := s.store.Habit(id)
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if !s.store.DeleteHabit(chi.URLParam(r, "id")) {
		writeErr(w, notFound(r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.store.ArchiveHabit)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.store.RestoreHabit)
}

func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, fn func(string) bool) {
	id := chi.URLParam(r, "id")
	if !fn(id) {
		writeErr(w, notFound(r))
		return
	}
	h, _ := s.store.Habit(id)
	writeJSON(w, http.StatusOK, h)
}

type toggleRequest struct {
	Date   string `json:"date"`
	Note   string `json:"note"`
	Mood   string `json:"mood"`
	Energy string `json:"energy"`
}

type toggleResponse struct {
	Date      string              `json:"date"`
	Completed bool                `json:"completed"`
	Summary   models.HabitSummary `json:"summary"`
	Progress  models.Progression  `json:"progress"`
}

// POST /api/habits/{id}/toggle. The date defaults to today.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if _, ok := s.store.Habit(id); !ok {
		writeErr(w, notFound(r))
		return
	}

	day := strings.TrimSpace(req.Date)
	if day == "" {
		day = s.store.Today().Format(constants.DateFormat)
	}
	extra, err := validation.CompletionDetail(req.Note, req.Mood, req.Energy)
	if err != nil {
		writeErr(w, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	completed, err := s.store.ToggleHabitCompletion(id, day, extra)
	if err != nil {
		writeErr(w, err)
		return
	}
	summary, _ := s.store.Summary(id)
	writeJSON(w, http.StatusOK, toggleResponse{
		Date:      day,
		Completed: completed,
		Summary:   summary,
		Progress:  s.engine.Progress(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.store.Summary(chi.URLParam(r, "id"))
	if !ok {
		writeErr(w, notFound(r))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func notFound(r *http.Request) error {
	return fmt.Errorf("habit %q: %w", chi.URLParam(r, "id"), apperrors.ErrNotFound)
}

func writeConflicts(w http.ResponseWriter, result validation.ValidationResult) {
	details := make([]map[string]string, len(result.Conflicts))
	for i, c := range result.Conflicts {
		details[i] = map[string]string{"type": string(c.Type), "message": c.Description}
	}
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error": map[string]interface{}{
			"message":   "validation failed",
			"status":    http.StatusBadRequest,
			"conflicts": details,
		},
	})
}
