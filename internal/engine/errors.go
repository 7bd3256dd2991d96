package engine

import "errors"

var (
	// ErrNotConverged indicates at least one resource failed in a cycle.
	ErrNotConverged = errors.New("not converged")

	// ErrDiverged indicates a check found resources that need changes.
	ErrDiverged = errors.New("diverged")

	// ErrNoManifest indicates a request without a manifest.
	ErrNoManifest = errors.New("no manifest")

	// ErrNoRuns indicates no run has been recorded yet.
	ErrNoRuns = errors.New("no runs recorded")

	// ErrNotify indicates the notify command failed.
	ErrNotify = errors.New("notify failed")
)
