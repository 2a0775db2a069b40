package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUsage marks invalid commands or arguments. Never retried.
	ErrUsage = errors.New("usage error")
	// ErrValidation marks a failed precondition on the caller's input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing file, attachment, or provenance field.
	ErrNotFound = errors.New("not found")
	// ErrExternalTool marks a failed external capability invocation.
	ErrExternalTool = errors.New("external tool error")
	// ErrTransient marks failures expected to succeed on retry.
	ErrTransient = errors.New("transient failure")
)

// Exit codes reported by the process. ExitUsage is the reserved code that
// short-circuits the retry supervisor.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsUsage reports whether err carries the usage marker.
func IsUsage(err error) bool {
	return errors.Is(err, ErrUsage)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	default:
		return ExitFailure
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
