package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nagsync/nagsync/internal/applier"
	"github.com/nagsync/nagsync/internal/config"
	"github.com/nagsync/nagsync/internal/ctxlog"
	"github.com/nagsync/nagsync/internal/metrics"
	"github.com/nagsync/nagsync/internal/state"
)

// Algorithm steps:
// 1. Build resources from the manifest
// 2. Reconcile each resource under its path locks, in order
// 3. Run the notify command if something changed and nothing failed
// 4. Persist the run record and write the metrics textfile
// 5. Return ErrNotConverged if any resource failed
func (e *Engine) Reconcile(ctx context.Context, req *ReconcileRequest) (*ReconcileResult, error) {
	if req.Manifest == nil {
		return nil, ErrNoManifest
	}
	if req.DryRun {
		check, err := e.Check(ctx, &CheckRequest{Manifest: req.Manifest, BaseDir: req.BaseDir})
		if check == nil {
			return nil, err
		}
		return &ReconcileResult{Check: check, Record: check.Record}, err
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()

	managed, err := e.buildResources(req.Manifest, req.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to build resources: %w", err)
	}

	logger := ctxlog.FromContext(ctx)
	started := e.clock.Now()
	logger.Info("reconcile started", slog.Int("resources", len(managed)))

	result := &ReconcileResult{Results: make([]applier.Result, 0, len(managed))}
	for _, m := range managed {
		unlock := e.locks.lock(m.paths...)
		res := applier.Reconcile(ctx, m.resource)
		unlock()
		result.Results = append(result.Results, res)
	}

	var notifyErr error
	failed := result.Failed()
	if result.Changed() && len(failed) == 0 && req.Manifest.Notify.Command != "" {
		notifyErr = e.notify(ctx, req.Manifest)
		result.Notified = notifyErr == nil
	}

	record := &state.RunRecord{
		Mode:       "apply",
		StartedAt:  started,
		FinishedAt: e.clock.Now(),
		Converged:  len(failed) == 0 && notifyErr == nil,
		Notified:   result.Notified,
		Resources:  toRecords(result.Results),
	}
	result.Record = record
	e.persist(ctx, req.Manifest.MetricsFile, record)

	logger.Info("reconcile finished",
		slog.Int("applied", record.Count(applier.Applied.String())),
		slog.Int("skipped", record.Count(applier.Skipped.String())),
		slog.Int("failed", len(failed)),
		slog.Bool("notified", result.Notified),
		slog.Duration("duration", record.Duration()))

	if len(failed) > 0 {
		return result, fmt.Errorf("%w: %d of %d resources failed", ErrNotConverged, len(failed), len(result.Results))
	}
	if notifyErr != nil {
		return result, notifyErr
	}
	return result, nil
}

func (e *Engine) notify(ctx context.Context, m *config.Manifest) error {
	argv := m.PlatformImpl().Shell(m.Notify.Command)
	ctxlog.FromContext(ctx).Info("running notify command", slog.String("command", m.Notify.Command))
	if _, err := e.runner.Run(ctx, argv); err != nil {
		return fmt.Errorf("%w: %v", ErrNotify, err)
	}
	return nil
}

// persist records the run. Failures are logged and do not fail the cycle.
func (e *Engine) persist(ctx context.Context, metricsFile string, record *state.RunRecord) {
	logger := ctxlog.FromContext(ctx)
	if err := e.stateStore.SaveRun(record); err != nil {
		logger.Warn("failed to save run record", "err", err)
	}
	if metricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(e.fs, metricsFile, record); err != nil {
		logger.Warn("failed to write metrics", slog.String("path", metricsFile), "err", err)
	}
}

func toRecords(results []applier.Result) []state.ResourceRecord {
	records := make([]state.ResourceRecord, 0, len(results))
	for _, r := range results {
		records = append(records, state.ResourceRecord{
			Name:   r.Resource,
			Status: r.Status.String(),
			Steps:  r.Steps,
			Error:  r.Reason(),
		})
	}
	return records
}
