package resources

import (
	"context"
	"fmt"

	"github.com/nagsync/nagsync/internal/applier"
	"github.com/nagsync/nagsync/internal/augtree"
	"github.com/nagsync/nagsync/internal/fsops"
	"github.com/nagsync/nagsync/internal/planner"
	"github.com/nagsync/nagsync/internal/platform"
)

// ListEdit keeps every occurrence of Key in the Nagios main config equal to
// Values. The file is re-read for each guard evaluation, so verification
// checks what actually reached disk.
type ListEdit struct {
	FS       fsops.FS
	Platform platform.Platform
	File     string
	Key      planner.Key
	Values   []string

	loaded *augtree.File
}

func (l *ListEdit) Name() string {
	return fmt.Sprintf("edit:%s:%s", l.File, l.Key)
}

// Edit is the planned guarded edit for the current inputs.
func (l *ListEdit) Edit() planner.GuardedEdit {
	return planner.Plan(l.Values, l.Key, l.Platform.TreePath(l.File))
}

func (l *ListEdit) Diverged(ctx context.Context) (bool, error) {
	file, err := augtree.Load(l.FS, l.File, l.Platform.TreePath(l.File))
	if err != nil {
		return false, err
	}
	l.loaded = file

	expr := l.Edit().OnlyIf()
	diverged, err := file.Eval(expr)
	if err != nil {
		return false, fmt.Errorf("guard %q: %w", expr, err)
	}
	return diverged, nil
}

// Converge applies the planned operations to the tree read by the last
// Diverged call and saves it. Nothing is written when an operation fails.
func (l *ListEdit) Converge(ctx context.Context) (int, error) {
	if l.loaded == nil {
		return 0, fmt.Errorf("%s: converge before guard evaluation", l.Name())
	}

	steps, err := applier.RunOps(l.loaded, l.Edit().Ops())
	if err != nil {
		return steps, err
	}
	if err := l.loaded.Save(l.FS); err != nil {
		return steps, err
	}
	return steps, nil
}
