package engine

import (
	"github.com/nagsync/nagsync/internal/applier"
	"github.com/nagsync/nagsync/internal/config"
	"github.com/nagsync/nagsync/internal/planner"
	"github.com/nagsync/nagsync/internal/state"
)

// ReconcileRequest represents a request to converge a host.
type ReconcileRequest struct {
	// Manifest is the desired state
	Manifest *config.Manifest

	// BaseDir resolves relative manifest paths (usually the manifest's directory)
	BaseDir string

	// DryRun evaluates guards only, like Check
	DryRun bool
}

// ReconcileResult represents the result of one cycle.
type ReconcileResult struct {
	// Results holds one entry per resource, in execution order
	Results []applier.Result

	// Notified is true when the notify command ran
	Notified bool

	// Record is what was persisted to the state store
	Record *state.RunRecord

	// Check is set instead of Results for dry runs
	Check *CheckResult
}

// Changed reports whether any resource was applied.
func (r *ReconcileResult) Changed() bool {
	for _, res := range r.Results {
		if res.Status == applier.Applied {
			return true
		}
	}
	return false
}

// Failed returns the results that ended in Failed.
func (r *ReconcileResult) Failed() []applier.Result {
	var failed []applier.Result
	for _, res := range r.Results {
		if res.Status == applier.Failed {
			failed = append(failed, res)
		}
	}
	return failed
}

// CheckRequest represents a request to evaluate guards without changes.
type CheckRequest struct {
	Manifest *config.Manifest
	BaseDir  string
}

// CheckItem is the guard outcome for one resource.
type CheckItem struct {
	Resource string `json:"resource"`
	Diverged bool   `json:"diverged"`
	Error    string `json:"error,omitempty"`
}

// CheckResult represents the outcome of a check.
type CheckResult struct {
	Items []CheckItem `json:"items"`

	Record *state.RunRecord `json:"-"`
}

// Diverged returns the names of resources whose guard held.
func (r *CheckResult) Diverged() []string {
	var names []string
	for _, item := range r.Items {
		if item.Diverged {
			names = append(names, item.Resource)
		}
	}
	return names
}

// Errors returns the items whose guard could not be evaluated.
func (r *CheckResult) Errors() []CheckItem {
	var items []CheckItem
	for _, item := range r.Items {
		if item.Error != "" {
			items = append(items, item)
		}
	}
	return items
}

// PlanRequest asks for the guarded edits of a manifest, or of a single
// ad-hoc setting when Key is set.
type PlanRequest struct {
	Manifest *config.Manifest
	BaseDir  string

	File   string
	Key    string
	Values []string
}

// PlannedEdit pairs a guarded edit with the native file it targets.
type PlannedEdit struct {
	File string              `json:"file"`
	Key  string              `json:"key"`
	Edit planner.GuardedEdit `json:"-"`
}
