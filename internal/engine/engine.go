// Package engine drives reconciliation of a host's Nagios configuration.
//
// The engine package is the orchestration layer between CLI commands and the
// guarded resources. It turns a manifest into resources, runs them in a fixed
// order, serializes access to the files they touch, and records the outcome.
//
// Key components:
//   - Engine: Main orchestrator called by the CLI
//   - Reconcile: One guard/apply/verify cycle over every resource
//   - Check: Guard evaluation only, nothing is written
//   - Plan: The guarded edits a manifest would apply
package engine

import (
	"sync"

	"github.com/nagsync/nagsync/internal/clock"
	"github.com/nagsync/nagsync/internal/fsops"
	"github.com/nagsync/nagsync/internal/hash"
	"github.com/nagsync/nagsync/internal/resources"
	"github.com/nagsync/nagsync/internal/state"
)

// Engine orchestrates all nagsync operations.
// It is the main API surface called by the CLI.
type Engine struct {
	fs         fsops.FS
	hasher     hash.Hasher
	clock      clock.Clock
	runner     resources.Runner
	stateStore state.Store

	// runMu allows one reconciliation cycle at a time.
	runMu sync.Mutex
	locks *pathLocks
}

// New creates a new Engine with the given dependencies.
func New(
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	runner resources.Runner,
	stateStore state.Store,
) *Engine {
	return &Engine{
		fs:         fs,
		hasher:     hasher,
		clock:      clk,
		runner:     runner,
		stateStore: stateStore,
		locks:      newPathLocks(),
	}
}
