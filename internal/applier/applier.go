package applier

import (
	"context"
	"errors"
	"fmt"

	"github.com/nagsync/nagsync/internal/ctxlog"
	"github.com/nagsync/nagsync/internal/planner"
)

// StructuredFile is the addressable document an edit is applied to.
type StructuredFile interface {
	Eval(expr string) (bool, error)
	Remove(path string) (int, error)
	Insert(label, anchor string, before bool) error
	Set(path, value string) error
}

// Resource is anything that can be reconciled with a guard.
type Resource interface {
	// Name identifies the resource in results and logs.
	Name() string

	// Diverged reports whether live state differs from desired state.
	Diverged(ctx context.Context) (bool, error)

	// Converge brings live state to desired state. It returns the number of
	// steps performed along with any error.
	Converge(ctx context.Context) (int, error)
}

// Reconcile runs one cycle for r.
func Reconcile(ctx context.Context, r Resource) Result {
	logger := ctxlog.FromContext(ctx).With("resource", r.Name())
	result := Result{Resource: r.Name(), Status: NotEvaluated}

	diverged, err := r.Diverged(ctx)
	if err != nil {
		return fail(ctx, result, asApplyError(err, "guard"))
	}
	if !diverged {
		result.Status = Skipped
		logger.Debug("in sync, skipping")
		return result
	}

	result.Status = Evaluating
	logger.Debug("diverged, applying")

	steps, err := r.Converge(ctx)
	result.Steps = steps
	if err != nil {
		return fail(ctx, result, asApplyError(err, "apply"))
	}

	still, err := r.Diverged(ctx)
	if err != nil {
		return fail(ctx, result, asApplyError(err, "verify"))
	}
	if still {
		return fail(ctx, result, &ApplyError{Kind: NonConvergence, OpIndex: -1, Op: "verify"})
	}

	result.Status = Applied
	logger.Info("applied", "steps", steps)
	return result
}

// Apply evaluates edit's guard against file and, if it holds, applies the
// operations in order and verifies that the guard no longer holds.
func Apply(ctx context.Context, edit planner.GuardedEdit, file StructuredFile) Result {
	return Reconcile(ctx, &editResource{edit: edit, file: file})
}

type editResource struct {
	edit planner.GuardedEdit
	file StructuredFile
}

func (r *editResource) Name() string {
	return fmt.Sprintf("%s:%s", r.edit.Filename(), r.edit.Key())
}

func (r *editResource) Diverged(ctx context.Context) (bool, error) {
	expr := r.edit.OnlyIf()
	if expr == "" {
		return false, addressingError(-1, "guard", errors.New("edit has no guard"))
	}
	diverged, err := r.file.Eval(expr)
	if err != nil {
		return false, addressingError(-1, expr, err)
	}
	return diverged, nil
}

func (r *editResource) Converge(ctx context.Context) (int, error) {
	return RunOps(r.file, r.edit.Ops())
}

// RunOps executes ops against file in order, stopping at the first failure.
// It returns the number of operations that completed.
func RunOps(file StructuredFile, ops []planner.EditOperation) (int, error) {
	for i, op := range ops {
		if err := execOp(file, op); err != nil {
			return i, addressingError(i, op.Command(), err)
		}
	}
	return len(ops), nil
}

func execOp(file StructuredFile, op planner.EditOperation) error {
	switch o := op.(type) {
	case planner.Remove:
		_, err := file.Remove(o.Key.String())
		return err
	case planner.InsertBefore:
		return file.Insert(o.Key.String(), o.Anchor, true)
	case planner.InsertAfter:
		return file.Insert(o.Key.String(), o.Anchor, false)
	case planner.SetValueAt:
		return file.Set(o.Path(), o.Value)
	case planner.SetValueAtLast:
		return file.Set(o.Path(), o.Value)
	default:
		return fmt.Errorf("unknown operation %T", op)
	}
}

// asApplyError keeps ApplyErrors as they are and classifies anything else
// as an addressing failure at stage.
func asApplyError(err error, stage string) *ApplyError {
	var applyErr *ApplyError
	if errors.As(err, &applyErr) {
		return applyErr
	}
	return addressingError(-1, stage, err)
}

func fail(ctx context.Context, result Result, err *ApplyError) Result {
	result.Status = Failed
	result.Err = err
	ctxlog.FromContext(ctx).Error("reconcile failed", "resource", result.Resource, "err", err)
	return result
}
