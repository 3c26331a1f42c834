// Package achievements recomputes achievement progress from the habit
// collection and awards XP for new unlocks.
package achievements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/habits"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/progression"
	"github.com/julianstephens/habitlit/internal/storage"
)

// HabitSource is the part of the habit store the engine reads
type HabitSource interface {
	Habits() []models.Habit
	Today() time.Time
	CompletionVersion() uint64
}

// ChallengeCounter reports how many challenges the user has finished
type ChallengeCounter interface {
	CompletedChallenges() int
}

// FixedChallenges is a ChallengeCounter with a constant value
type FixedChallenges int

func (n FixedChallenges) CompletedChallenges() int { return int(n) }

type Engine struct {
	provider   storage.Provider
	writer     *storage.Writer
	source     HabitSource
	challenges ChallengeCounter
	clock      func() time.Time
	defs       []Definition
	onUnlock   func(models.Achievement)

	mu           sync.Mutex
	achievements []models.Achievement
	xp           int
	lastVersion  uint64
	checked      bool
}

// Option configures an Engine
type Option func(*Engine)

func WithChallengeCounter(c ChallengeCounter) Option {
	return func(e *Engine) { e.challenges = c }
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithDefinitions replaces the built-in catalog
func WithDefinitions(defs []Definition) Option {
	return func(e *Engine) { e.defs = defs }
}

// WithUnlockHook runs for every newly unlocked achievement
func WithUnlockHook(fn func(models.Achievement)) Option {
	return func(e *Engine) { e.onUnlock = fn }
}

func New(p storage.Provider, w *storage.Writer, source HabitSource, opts ...Option) *Engine {
	e := &Engine{
		provider:   p,
		writer:     w,
		source:     source,
		challenges: FixedChallenges(0),
		clock:      time.Now,
		defs:       Defaults(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load reads achievements and XP. A first launch seeds every definition;
// later launches append definitions that are not yet persisted.
func (e *Engine) Load(ctx context.Context) error {
	var list []models.Achievement
	raw, err := e.provider.Get(ctx, constants.KeyAchievements)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to load achievements: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return fmt.Errorf("stored achievements are corrupt: %w", err)
		}
	}

	xp := 0
	raw, err = e.provider.Get(ctx, constants.KeyXP)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to load xp: %w", err)
	default:
		if xp, err = strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("stored xp is corrupt: %w", err)
		}
	}

	known := make(map[string]bool, len(list))
	for _, a := range list {
		known[a.ID] = true
	}
	added := 0
	for _, d := range e.defs {
		if !known[d.ID] {
			list = append(list, d.seed())
			added++
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.achievements = list
	e.xp = xp
	if added > 0 {
		logger.Debug("Seeded achievements", "added", added)
		e.persist()
	}
	return nil
}

// CheckAchievements recomputes progress for every definition and unlocks
// those that reached their target. It returns the newly unlocked ones.
func (e *Engine) CheckAchievements() []models.Achievement {
	// The version is read before the snapshot, so the snapshot covers at
	// least that version. A mutation landing in between still notifies with
	// a newer version and gets its own pass.
	version := e.source.CompletionVersion()
	in := Input{
		Habits:     e.source.Habits(),
		Today:      e.source.Today(),
		Challenges: e.challenges.CompletedChallenges(),
	}

	e.mu.Lock()
	if e.checked && version < e.lastVersion {
		// A pass over newer data already ran
		e.mu.Unlock()
		return nil
	}
	unlocked, changed := e.recompute(in)
	e.lastVersion = version
	e.checked = true
	if changed {
		e.persist()
	}
	e.mu.Unlock()

	for _, a := range unlocked {
		logger.Info("Achievement unlocked", "id", a.ID, "title", a.Title)
		if e.onUnlock != nil {
			e.onUnlock(a)
		}
	}
	return unlocked
}

// recompute must be called with e.mu held
func (e *Engine) recompute(in Input) (unlocked []models.Achievement, changed bool) {
	defs := make(map[string]Definition, len(e.defs))
	for _, d := range e.defs {
		defs[d.ID] = d
	}

	now := e.clock().UTC().Truncate(time.Millisecond)
	for i := range e.achievements {
		a := &e.achievements[i]
		d, ok := defs[a.ID]
		if !ok {
			// Retired definition: keep it as persisted
			continue
		}
		if p := d.progress(in); p != a.Progress {
			a.Progress = p
			changed = true
		}
		if a.UnlockedAt == nil && a.Progress >= a.Target {
			at := now
			a.UnlockedAt = &at
			e.xp += constants.AchievementXP
			unlocked = append(unlocked, *a)
			changed = true
		}
	}
	return unlocked, changed
}

// persist queues achievements and XP as one batch so both always reflect
// the same pass. Callers hold e.mu.
func (e *Engine) persist() {
	data, err := json.Marshal(e.achievements)
	if err != nil {
		logger.Error("Failed to serialize achievements", "error", err)
		return
	}
	e.writer.EnqueueBatch(map[string]string{
		constants.KeyAchievements: string(data),
		constants.KeyXP:           strconv.Itoa(e.xp),
	})
}

// Bind recomputes after every store mutation that can change completion
// data, and once immediately. The returned func unbinds.
func (e *Engine) Bind(store *habits.Store) func() {
	unsubscribe := store.Subscribe(func(c habits.Change) {
		e.mu.Lock()
		stale := !e.checked || c.CompletionVersion != e.lastVersion
		e.mu.Unlock()
		if stale {
			e.CheckAchievements()
		}
	})
	e.CheckAchievements()
	return unsubscribe
}

// Achievements returns every achievement in catalog order
func (e *Engine) Achievements() []models.Achievement {
	return e.partition(func(models.Achievement) bool { return true })
}

func (e *Engine) Unlocked() []models.Achievement {
	return e.partition(models.Achievement.Unlocked)
}

func (e *Engine) Locked() []models.Achievement {
	return e.partition(func(a models.Achievement) bool { return !a.Unlocked() })
}

func (e *Engine) partition(keep func(models.Achievement) bool) []models.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Achievement, 0, len(e.achievements))
	for _, a := range e.achievements {
		if keep(a) {
			if a.UnlockedAt != nil {
				at := *a.UnlockedAt
				a.UnlockedAt = &at
			}
			out = append(out, a)
		}
	}
	return out
}

func (e *Engine) XP() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.xp
}

// Progress is the level view of the current XP
func (e *Engine) Progress() models.Progression {
	return progression.State(e.XP())
}
