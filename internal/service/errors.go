package service

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectoryUnavailable means the catalog base directory could not be enumerated.
	ErrDirectoryUnavailable = errors.New("catalog directory unavailable")
	ErrInvalidCatalogConfig = errors.New("invalid catalog config")

	// Per-idea conditions. They never abort a scan; they surface as ScanWarning
	// kinds (or, for a missing key, as a silent skip).
	ErrMetricFileUnreadable = errors.New("metric file unreadable")
	ErrMetricFileMalformed  = errors.New("metric file malformed")
	ErrMetricKeyMissing     = errors.New("metric key missing")

	ErrMissingArtifact = errors.New("missing artifact")
	ErrUnknownIdea     = errors.New("unknown idea")
)

// MissingArtifactError names the diff input that could not be resolved.
type MissingArtifactError struct {
	Role string // "baseline" or "candidate"
	Path string
	Err  error
}

func (e *MissingArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s file not found: %s (%v)", e.Role, e.Path, e.Err)
	}
	return fmt.Sprintf("%s file not found: %s", e.Role, e.Path)
}

func (e *MissingArtifactError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingArtifact}
	}
	return []error{ErrMissingArtifact, e.Err}
}
