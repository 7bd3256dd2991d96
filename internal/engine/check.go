package engine

import (
	"context"
	"fmt"

	"github.com/nagsync/nagsync/internal/state"
)

// Check status values recorded for check runs.
const (
	CheckInSync   = "in_sync"
	CheckDiverged = "diverged"
	CheckFailed   = "failed"
)

// Check evaluates every resource's guard without changing anything.
// It returns ErrDiverged when some resource would be changed by Reconcile
// and ErrNotConverged when a guard could not be evaluated.
func (e *Engine) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	if req.Manifest == nil {
		return nil, ErrNoManifest
	}

	managed, err := e.buildResources(req.Manifest, req.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to build resources: %w", err)
	}

	started := e.clock.Now()
	result := &CheckResult{Items: make([]CheckItem, 0, len(managed))}
	for _, m := range managed {
		unlock := e.locks.lock(m.paths...)
		diverged, err := m.resource.Diverged(ctx)
		unlock()

		item := CheckItem{Resource: m.resource.Name(), Diverged: diverged}
		if err != nil {
			item.Diverged = false
			item.Error = err.Error()
		}
		result.Items = append(result.Items, item)
	}

	diverged := result.Diverged()
	failed := result.Errors()

	record := &state.RunRecord{
		Mode:       "check",
		StartedAt:  started,
		FinishedAt: e.clock.Now(),
		Converged:  len(diverged) == 0 && len(failed) == 0,
		Resources:  checkRecords(result.Items),
	}
	result.Record = record
	e.persist(ctx, req.Manifest.MetricsFile, record)

	if len(failed) > 0 {
		return result, fmt.Errorf("%w: %d guards could not be evaluated", ErrNotConverged, len(failed))
	}
	if len(diverged) > 0 {
		return result, fmt.Errorf("%w: %d of %d resources", ErrDiverged, len(diverged), len(result.Items))
	}
	return result, nil
}

func checkRecords(items []CheckItem) []state.ResourceRecord {
	records := make([]state.ResourceRecord, 0, len(items))
	for _, item := range items {
		status := CheckInSync
		switch {
		case item.Error != "":
			status = CheckFailed
		case item.Diverged:
			status = CheckDiverged
		}
		records = append(records, state.ResourceRecord{Name: item.Resource, Status: status, Error: item.Error})
	}
	return records
}
