// Package habits owns the habit collection and is the only writer of
// completion ledgers.
package habits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/utils"
)

var (
	ErrValidation = apperrors.ErrValidation
	ErrParse      = apperrors.ErrParse
	ErrNotFound   = apperrors.ErrNotFound
)

// Store keeps the collection in memory and mirrors every mutation to
// storage through a Writer. Mutations addressed to an unknown id are no-ops.
type Store struct {
	provider storage.Provider
	writer   *storage.Writer
	clock    func() time.Time
	newID    func() string
	loc      *time.Location

	mu                sync.RWMutex
	habits            []models.Habit
	version           uint64
	completionVersion uint64

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// Option configures a Store
type Option func(*Store)

func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithLocation sets the calendar used for "today"
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(p storage.Provider, w *storage.Writer, opts ...Option) *Store {
	s := &Store{
		provider: p,
		writer:   w,
		clock:    time.Now,
		newID:    uuid.NewString,
		loc:      time.Local,
		habits:   []models.Habit{},
		subs:     make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory collection with the persisted one. A missing
// key is an empty collection.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.provider.Get(ctx, constants.KeyHabits)
	if errors.Is(err, storage.ErrNotFound) {
		raw = "[]"
	} else if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}

	habits, err := decodeHabits(raw)
	if err != nil {
		return fmt.Errorf("stored habits are corrupt: %w", err)
	}

	s.mu.Lock()
	s.habits = habits
	s.mu.Unlock()
	logger.Debug("Loaded habits", "count", len(habits))
	return nil
}

// Now returns the store clock in the store's location
func (s *Store) Now() time.Time {
	return s.clock().In(s.loc)
}

// Today returns midnight of the current local day
func (s *Store) Today() time.Time {
	return utils.StartOfDay(s.Now())
}

// Location is the calendar used for ledger keys
func (s *Store) Location() *time.Location {
	return s.loc
}

// Version increases on every mutation
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// CompletionVersion increases only when a mutation may change any habit's
// id set or completions.
func (s *Store) CompletionVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completionVersion
}

// Subscribe registers fn to run after every mutation, outside the store
// lock. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// commit bumps versions and queues a snapshot. Callers hold s.mu.
func (s *Store) commit(kind ChangeKind, habitID string) Change {
	s.version++
	if kind.touchesCompletions() {
		s.completionVersion++
	}
	s.persist()
	return Change{
		Kind:              kind,
		HabitID:           habitID,
		Version:           s.version,
		CompletionVersion: s.completionVersion,
	}
}

// persist enqueues the whole collection. Enqueueing under s.mu keeps
// storage order equal to mutation order.
func (s *Store) persist() {
	data, err := json.Marshal(s.habits)
	if err != nil {
		logger.Error("Failed to serialize habits", "error", err)
		return
	}
	s.writer.Enqueue(constants.KeyHabits, string(data))
}

func (s *Store) indexOf(id string) int {
	for i := range s.habits {
		if s.habits[i].ID == id {
			return i
		}
	}
	return -1
}

// AddHabit appends a new habit with a fresh id and an empty ledger
func (s *Store) AddHabit(d models.HabitDraft) models.Habit {
	h := models.Habit{
		ID:                s.newID(),
		Name:              d.Name,
		Description:       d.Description,
		Icon:              d.Icon,
		Color:             d.Color,
		Category:          d.Category,
		StreakGoal:        d.StreakGoal,
		WeeklyGoal:        d.WeeklyGoal,
		TargetDays:        append([]string(nil), d.TargetDays...),
		IsMicroHabit:      d.IsMicroHabit,
		EstimatedDuration: d.EstimatedDuration,
		CreatedAt:         s.clock().UTC().Truncate(time.Millisecond),
		Archived:          false,
		Completions:       models.Ledger{},
	}
	if d.Reminders != nil {
		h.Reminders = append(json.RawMessage(nil), d.Reminders...)
	}

	s.mu.Lock()
	s.habits = append(s.habits, h)
	c := s.commit(ChangeAdded, h.ID)
	s.mu.Unlock()

	logger.Info("Habit added", "id", h.ID, "name", h.Name)
	s.notify(c)
	return h.Clone()
}

// UpdateHabit merges patch into the habit. Reports whether it exists.
func (s *Store) UpdateHabit(id string, patch models.HabitPatch) bool {
	return s.mutate(id, ChangeUpdated, func(h *models.Habit) {
		patch.Apply(h)
	})
}

// ArchiveHabit hides the habit from active views and keeps its history
func (s *Store) ArchiveHabit(id string) bool {
	return s.mutate(id, ChangeArchived, func(h *models.Habit) {
		h.Archived = true
	})
}

func (s *Store) RestoreHabit(id string) bool {
	return s.mutate(id, ChangeRestored, func(h *models.Habit) {
		h.Archived = false
	})
}

func (s *Store) mutate(id string, kind ChangeKind, fn func(*models.Habit)) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	fn(&s.habits[i])
	c := s.commit(kind, id)
	s.mu.Unlock()

	s.notify(c)
	return true
}

// DeleteHabit removes the habit and its history permanently
func (s *Store) DeleteHabit(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.habits = append(s.habits[:i:i], s.habits[i+1:]...)
	c := s.commit(ChangeDeleted, id)
	s.mu.Unlock()

	logger.Info("Habit deleted", "id", id)
	s.notify(c)
	return true
}

// ToggleHabitCompletion flips day on habit id. A counted entry is removed
// entirely. Otherwise the day becomes a simple completion, or a detailed
// one when extra is given (extra.Completed is forced to true).
//
// It returns whether the day is completed afterwards. Unknown ids are a
// silent no-op. A malformed day is a structural error: it returns
// ErrValidation and leaves the collection untouched. This is the only
// mutation besides ImportData that can fail.
func (s *Store) ToggleHabitCompletion(id, day string, extra *models.CompletionDetail) (bool, error) {
	if _, err := time.Parse(constants.DateFormat, day); err != nil {
		return false, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrValidation, day)
	}

	var completed bool
	found := s.mutate(id, ChangeToggled, func(h *models.Habit) {
		if h.Completions == nil {
			h.Completions = models.Ledger{}
		}
		if h.Completions.Counted(day) {
			delete(h.Completions, day)
			completed = false
			return
		}
		if extra != nil {
			d := *extra
			d.Completed = true
			h.Completions[day] = models.DetailedEntry(d)
		} else {
			h.Completions[day] = models.SimpleEntry()
		}
		completed = true
	})
	if found {
		logger.Debug("Completion toggled", "id", id, "date", day, "completed", completed)
	}
	return completed, nil
}

// ImportData replaces the whole collection with serialized, an array of
// habits as produced by ExportData. On error nothing changes.
func (s *Store) ImportData(serialized string) error {
	if strings.TrimSpace(serialized) == "" {
		return fmt.Errorf("%w: import data is empty", ErrValidation)
	}

	habits, err := decodeHabits(serialized)
	if err != nil {
		return err
	}
	if err := validateImport(habits); err != nil {
		return err
	}

	s.mu.Lock()
	s.habits = habits
	c := s.commit(ChangeImported, "")
	s.mu.Unlock()

	logger.Info("Habits imported", "count", len(habits))
	s.notify(c)
	return nil
}

// ExportData serializes the collection in order as indented JSON
func (s *Store) ExportData() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.MarshalIndent(s.habits, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export habits: %w", err)
	}
	return string(data), nil
}

// ClearAllData empties the collection and removes it from storage.
// Achievements and XP are kept.
func (s *Store) ClearAllData() {
	s.mu.Lock()
	s.habits = []models.Habit{}
	s.version++
	s.completionVersion++
	s.writer.EnqueueRemove(constants.KeyHabits)
	c := Change{
		Kind:              ChangeCleared,
		Version:           s.version,
		CompletionVersion: s.completionVersion,
	}
	s.mu.Unlock()

	logger.Info("All habits cleared")
	s.notify(c)
}

// Flush waits for every queued write to reach storage
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

func decodeHabits(raw string) ([]models.Habit, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("%w: expected a JSON array of habits", ErrParse)
	}
	var habits []models.Habit
	if err := json.Unmarshal([]byte(trimmed), &habits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if habits == nil {
		habits = []models.Habit{}
	}
	for i := range habits {
		if habits[i].Completions == nil {
			habits[i].Completions = models.Ledger{}
		}
	}
	return habits, nil
}
