package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransientUI      = errors.New("renderer element not ready")
	ErrStabilizeTimeout = errors.New("stabilization timeout")
	ErrSearchMiss       = errors.New("no matching print")
	ErrNetwork          = errors.New("network error")
	ErrStoreConflict    = errors.New("output already exists")
	ErrFatalSetup       = errors.New("renderer setup failed")
	ErrConfiguration    = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the whole run rather than a single card.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalSetup)
}

// SkipReason maps an error to the short reason shown in per-print skip lines
// and the run summary.
func SkipReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStoreConflict):
		return "exists"
	case errors.Is(err, ErrSearchMiss):
		return "no match"
	case errors.Is(err, ErrTransientUI):
		return "renderer not ready"
	case errors.Is(err, ErrStabilizeTimeout):
		return "render unstable"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrFatalSetup):
		return "setup"
	default:
		return "error"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "capture failure"
	}
	return strings.Join(parts, ": ")
}
