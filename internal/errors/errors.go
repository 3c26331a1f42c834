package errors

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitlit/internal/logger"
)

// Error kinds shared by the store, the API and the CLI. Wrap them with
// fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrParse      = errors.New("parse error")
	ErrNotFound   = errors.New("not found")
)

// Exit codes
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitValidation = 2
	ExitNotFound   = 3
)

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrParse):
		return ExitValidation
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	default:
		return ExitFailure
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Report logs err, prints it to w and returns its exit code
func Report(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	logger.Error("Command execution failed", "error", err)
	fmt.Fprintln(w, Format(err))
	return ExitCode(err)
}

// Fatal reports err on stderr and exits with its exit code
func Fatal(err error) {
	if err != nil {
		os.Exit(Report(os.Stderr, err))
	}
}
