package habits

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/validation"
)

// validateImport rejects collections the store cannot address: missing or
// duplicate ids and malformed date keys. Other conflicts are logged only.
func validateImport(habits []models.Habit) error {
	result := validation.New().ValidateHabits(habits)
	blocking := result.Blocking()
	if len(blocking) == 0 {
		for _, c := range result.Conflicts {
			logger.Warn("Imported habit has a conflict", "type", c.Type, "detail", c.Description)
		}
		return nil
	}

	msgs := make([]string, len(blocking))
	for i, c := range blocking {
		msgs[i] = c.Description
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}
