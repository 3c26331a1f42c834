package validation

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitlit/internal/models"
)

// CompletionDetail builds the extra fields of a completion from user input.
// It returns nil when every field is empty, so the toggle writes the simple
// form.
func CompletionDetail(note, mood, energy string) (*models.CompletionDetail, error) {
	note = strings.TrimSpace(note)
	m := models.Mood(strings.ToLower(strings.TrimSpace(mood)))
	e := models.Energy(strings.ToLower(strings.TrimSpace(energy)))
	if note == "" && m == "" && e == "" {
		return nil, nil
	}
	if m != "" && !m.Valid() {
		return nil, fmt.Errorf("invalid mood %q (want great, good, okay, bad or terrible)", mood)
	}
	if e != "" && !e.Valid() {
		return nil, fmt.Errorf("invalid energy %q (want high, medium or low)", energy)
	}
	return &models.CompletionDetail{Completed: true, Note: note, Mood: m, Energy: e}, nil
}
