package applier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagsync/nagsync/internal/augtree"
	"github.com/nagsync/nagsync/internal/planner"
)

const filename = "/etc/nagios3/nagios.cfg"

func parse(t *testing.T, lines ...string) *augtree.File {
	t.Helper()
	f, err := augtree.Parse(filename, []byte(strings.Join(lines, "\n")+"\n"))
	require.NoError(t, err)
	return f
}

func TestApply_Converges(t *testing.T) {
	priors := map[string][]string{
		"no values":    nil,
		"one stale":    {"cfg_file=/etc/nagios3/old.cfg"},
		"many stale":   {"cfg_file=/a", "cfg_file=/b", "cfg_file=/c", "cfg_file=/d"},
		"partial":      {"cfg_file=/etc/nagios/b.cfg"},
		"reordered":    {"cfg_file=/etc/nagios/b.cfg", "cfg_file=/etc/nagios/x.cfg", "cfg_file=/etc/nagios/a.cfg"},
		"after anchor": {"# LOG FILE", "cfg_file=/late"},
	}
	desiredLists := [][]string{
		{},
		{"/etc/nagios/a.cfg"},
		{"/etc/nagios/a.cfg", "/etc/nagios/b.cfg"},
		{"/etc/nagios/c.cfg", "/etc/nagios/a.cfg", "/etc/nagios/b.cfg"},
	}

	for name, prior := range priors {
		for _, desired := range desiredLists {
			t.Run(fmt.Sprintf("%s/%d values", name, len(desired)), func(t *testing.T) {
				lines := append([]string{"# main"}, prior...)
				if name != "after anchor" {
					lines = append(lines, "# LOG FILE")
				}
				lines = append(lines, "log_file=/var/log/nagios3/nagios.log")
				file := parse(t, lines...)

				edit := planner.Plan(desired, planner.KeyCfgFile, filename)
				result := Apply(context.Background(), edit, file)
				require.NoError(t, result.Err)
				require.True(t, result.Status == Applied || result.Status == Skipped, "status %s", result.Status)

				diverged, err := file.Eval(edit.OnlyIf())
				require.NoError(t, err)
				assert.False(t, diverged, "guard still true after apply")

				if result.Status == Applied {
					values, err := file.Values("cfg_file")
					require.NoError(t, err)
					assert.Equal(t, len(desired), len(values))
					for i := range desired {
						assert.Equal(t, desired[i], values[i])
					}
				}
			})
		}
	}
}

func TestApply_IdempotentWhenAlreadyInSync(t *testing.T) {
	file := parse(t,
		"cfg_file=/etc/nagios/a.cfg",
		"cfg_file=/etc/nagios/b.cfg",
		"# LOG FILE",
	)
	before := string(file.Bytes())

	edit := planner.Plan([]string{"/etc/nagios/a.cfg", "/etc/nagios/b.cfg"}, planner.KeyCfgFile, filename)
	result := Apply(context.Background(), edit, file)

	assert.Equal(t, Skipped, result.Status)
	assert.Equal(t, 0, result.Steps)
	assert.False(t, file.Modified())
	assert.Equal(t, before, string(file.Bytes()))
}

func TestApply_SecondRunSkips(t *testing.T) {
	file := parse(t, "cfg_dir=/old", "# LOG FILE")
	edit := planner.Plan([]string{"/etc/nagios3/conf.d", "/etc/nagios/conf.d"}, planner.KeyCfgDir, filename)

	first := Apply(context.Background(), edit, file)
	require.Equal(t, Applied, first.Status)
	assert.Equal(t, 5, first.Steps)

	second := Apply(context.Background(), edit, file)
	assert.Equal(t, Skipped, second.Status)
}

func TestApply_EmptyDesiredRemovesAll(t *testing.T) {
	file := parse(t, "cfg_file=/a", "cfg_file=/b", "# LOG FILE")

	result := Apply(context.Background(), planner.Plan(nil, planner.KeyCfgFile, filename), file)
	require.Equal(t, Applied, result.Status)
	assert.Equal(t, "# LOG FILE\n", string(file.Bytes()))

	again := Apply(context.Background(), planner.Plan(nil, planner.KeyCfgFile, filename), file)
	assert.Equal(t, Skipped, again.Status)
}

func TestApply_MissingAnchorFails(t *testing.T) {
	file := parse(t, "cfg_file=/old", "log_file=/var/log/nagios3/nagios.log")

	result := Apply(context.Background(), planner.Plan([]string{"/new"}, planner.KeyCfgFile, filename), file)
	require.Equal(t, Failed, result.Status)
	require.ErrorIs(t, result.Err, ErrAddressing)
	require.ErrorIs(t, result.Err, augtree.ErrAddress)

	var applyErr *ApplyError
	require.True(t, errors.As(result.Err, &applyErr))
	assert.Equal(t, AddressingFailure, applyErr.Kind)
	assert.Equal(t, 1, applyErr.OpIndex)
	assert.True(t, strings.HasPrefix(applyErr.Op, "ins cfg_file before"))
	assert.Equal(t, 1, result.Steps)
	assert.Contains(t, result.Reason(), "op 1")
}

func TestApply_GuardErrorIsAddressingFailure(t *testing.T) {
	file := &fakeFile{evalErr: fmt.Errorf("%w: unreadable", augtree.ErrSyntax)}
	edit := planner.Plan([]string{"/a"}, planner.KeyCfgFile, filename)

	result := Apply(context.Background(), edit, file)
	require.Equal(t, Failed, result.Status)
	assert.ErrorIs(t, result.Err, ErrAddressing)
	assert.ErrorIs(t, result.Err, augtree.ErrSyntax)
	assert.Equal(t, 0, result.Steps)
	assert.Empty(t, file.calls, "no operation may run when the guard cannot be evaluated")
}

func TestApply_OpsRunInOrder(t *testing.T) {
	file := &fakeFile{guard: []bool{true, false}}
	edit := planner.Plan([]string{"/a", "/b"}, planner.KeyCfgFile, filename)

	result := Apply(context.Background(), edit, file)
	require.Equal(t, Applied, result.Status)
	assert.Equal(t, []string{
		"remove cfg_file",
		"insert cfg_file before /files/etc/nagios3/nagios.cfg/#comment[.='LOG FILE']",
		"set cfg_file[1] /a",
		"insert cfg_file after /files/etc/nagios3/nagios.cfg/cfg_file[last()]",
		"set cfg_file[last()] /b",
	}, file.calls)
}

func TestApply_WriteFailureStopsSequence(t *testing.T) {
	file := &fakeFile{guard: []bool{true}, setErr: errors.New("read-only tree")}
	edit := planner.Plan([]string{"/a", "/b"}, planner.KeyCfgFile, filename)

	result := Apply(context.Background(), edit, file)
	require.Equal(t, Failed, result.Status)
	assert.ErrorIs(t, result.Err, ErrAddressing)
	assert.Equal(t, 2, result.Steps)
	assert.Len(t, file.calls, 3)
}

func TestApply_NonConvergentEdit(t *testing.T) {
	file := parse(t, "cfg_file=/old", "# LOG FILE")

	// The guard asks for /new but the ops only remove; the guard can
	// never become false.
	edit := planner.NewGuardedEdit(planner.KeyCfgFile, filename,
		planner.ValuesDiffer{Key: planner.KeyCfgFile, Values: []string{"/new"}},
		[]planner.EditOperation{planner.Remove{Key: planner.KeyCfgFile}})

	result := Apply(context.Background(), edit, file)
	require.Equal(t, Failed, result.Status)
	assert.ErrorIs(t, result.Err, ErrNonConvergence)
	assert.NotErrorIs(t, result.Err, ErrAddressing)
	assert.Equal(t, 1, result.Steps)
}

// fakeFile records calls and returns scripted guard results.
type fakeFile struct {
	guard   []bool
	evalErr error
	setErr  error
	calls   []string
}

func (f *fakeFile) Eval(expr string) (bool, error) {
	if f.evalErr != nil {
		return false, f.evalErr
	}
	if len(f.guard) == 0 {
		return false, nil
	}
	next := f.guard[0]
	f.guard = f.guard[1:]
	return next, nil
}

func (f *fakeFile) Remove(path string) (int, error) {
	f.calls = append(f.calls, "remove "+path)
	return 0, nil
}

func (f *fakeFile) Insert(label, anchor string, before bool) error {
	where := "after"
	if before {
		where = "before"
	}
	f.calls = append(f.calls, fmt.Sprintf("insert %s %s %s", label, where, anchor))
	return nil
}

func (f *fakeFile) Set(path, value string) error {
	f.calls = append(f.calls, fmt.Sprintf("set %s %s", path, value))
	return f.setErr
}

func TestRunOps_CountsCompletedOperations(t *testing.T) {
	file := parse(t, "cfg_dir=/old", "# LOG FILE")
	ops := planner.Plan([]string{"/a", "/b"}, planner.KeyCfgDir, filename).Ops()

	steps, err := RunOps(file, ops)
	require.NoError(t, err)
	assert.Equal(t, len(ops), steps)
	assert.Equal(t, "cfg_dir=/a\ncfg_dir=/b\n# LOG FILE\n", string(file.Bytes()))

	steps, err = RunOps(file, []planner.EditOperation{
		planner.Remove{Key: planner.KeyCfgDir},
		planner.InsertBefore{Key: planner.KeyCfgDir, Anchor: "#comment[.='NO SUCH']"},
	})
	assert.Equal(t, 1, steps)
	require.ErrorIs(t, err, ErrAddressing)
}

func TestReconcile_Resource(t *testing.T) {
	tests := []struct {
		name       string
		res        *fakeResource
		wantStatus Status
		wantErr    error
		wantCalls  int
	}{
		{name: "in sync", res: &fakeResource{guard: []bool{false}}, wantStatus: Skipped},
		{name: "converges", res: &fakeResource{guard: []bool{true, false}, steps: 1}, wantStatus: Applied, wantCalls: 1},
		{name: "still diverged", res: &fakeResource{guard: []bool{true, true}, steps: 1}, wantStatus: Failed, wantErr: ErrNonConvergence, wantCalls: 1},
		{name: "guard error", res: &fakeResource{guardErr: errors.New("permission denied")}, wantStatus: Failed, wantErr: ErrAddressing},
		{name: "converge error", res: &fakeResource{guard: []bool{true}, convergeErr: errors.New("exit status 1")}, wantStatus: Failed, wantErr: ErrAddressing, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Reconcile(context.Background(), tt.res)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, "fake", result.Resource)
			assert.Equal(t, tt.wantCalls, tt.res.converged, "converge calls")
			if tt.wantErr != nil {
				assert.ErrorIs(t, result.Err, tt.wantErr)
			} else {
				assert.NoError(t, result.Err)
			}
		})
	}
}

type fakeResource struct {
	guard       []bool
	guardErr    error
	steps       int
	convergeErr error
	converged   int
}

func (r *fakeResource) Name() string { return "fake" }

func (r *fakeResource) Diverged(ctx context.Context) (bool, error) {
	if r.guardErr != nil {
		return false, r.guardErr
	}
	next := r.guard[0]
	r.guard = r.guard[1:]
	return next, nil
}

func (r *fakeResource) Converge(ctx context.Context) (int, error) {
	r.converged++
	return r.steps, r.convergeErr
}
