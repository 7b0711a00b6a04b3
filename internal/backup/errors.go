package backup

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing means no backup monitoring configuration row exists.
	ErrConfigurationMissing = errors.New("backup monitoring configuration not found")
	// ErrMultipleConfigurations means the singleton configuration table holds more than one row.
	ErrMultipleConfigurations = errors.New("multiple backup monitoring configuration rows found")
	// ErrCheckInProgress means another backup check holds the run guard.
	ErrCheckInProgress = errors.New("backup check already in progress")
)

// UpstreamReadError wraps a failed read from one of the check's data sources.
type UpstreamReadError struct {
	Source string
	Err    error
}

func (e *UpstreamReadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Source, e.Err)
}

func (e *UpstreamReadError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err stops a run before classification.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var upstream *UpstreamReadError
	return errors.Is(err, ErrConfigurationMissing) ||
		errors.Is(err, ErrMultipleConfigurations) ||
		errors.As(err, &upstream)
}
