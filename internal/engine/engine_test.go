package engine

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nagsync/nagsync/internal/clock"
	"github.com/nagsync/nagsync/internal/config"
	"github.com/nagsync/nagsync/internal/fsops"
	"github.com/nagsync/nagsync/internal/hash"
	"github.com/nagsync/nagsync/internal/state"
)

const nagiosCfg = `# MAIN CONFIGURATION FILE
cfg_file=/etc/nagios3/commands.cfg
cfg_dir=/etc/nagios-plugins/config

# LOG FILE
log_file=/var/log/nagios3/nagios.log
`

var keygenTarget = regexp.MustCompile(`-f '([^']+)'`)

// fakeRunner records commands. ssh-keygen invocations create the key file
// named by -f so the keygen guard can converge.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *fakeRunner) Run(ctx context.Context, argv []string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd := strings.Join(argv, " ")
	r.calls = append(r.calls, cmd)
	if m := keygenTarget.FindStringSubmatch(cmd); m != nil {
		return nil, os.WriteFile(m[1], []byte("PRIVATE KEY"), 0600)
	}
	return nil, r.err
}

func (r *fakeRunner) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type testEnv struct {
	eng    *Engine
	dir    string
	runner *fakeRunner
	store  *state.FileStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	fs := fsops.NewRealFS()
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	clk.SetStep(time.Second)
	runner := &fakeRunner{}
	store := state.NewFileStore(fs, filepath.Join(dir, "state"))

	return &testEnv{
		eng:    New(fs, hash.NewSHA256Hasher(fs), clk, runner, store),
		dir:    dir,
		runner: runner,
		store:  store,
	}
}

func (env *testEnv) path(elem ...string) string {
	return filepath.Join(append([]string{env.dir}, elem...)...)
}

func (env *testEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	path := env.path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func (env *testEnv) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(env.path(rel))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// manifest describes a host with every resource kind. Paths are relative
// and resolved against env.dir.
func (env *testEnv) manifest(t *testing.T) *config.Manifest {
	t.Helper()
	m, err := config.Parse([]byte(`
platform: posix
metrics_file: metrics/nagsync.prom
keys:
  - path: ssh/id_rsa
fragments:
  - source: generated/nagios_host.cfg
    dest: conf.d/web01_host.cfg
edits:
  - file: nagios.cfg
    key: cfg_dir
    values: [/etc/nagios3/conf.d, /etc/nagios/conf.d]
  - file: nagios.cfg
    key: cfg_file
    values: []
prune:
  - dir: conf.d
    keep: [web01_host.cfg]
notify:
  command: service nagios3 reload
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return m
}

func (env *testEnv) seed(t *testing.T) {
	t.Helper()
	env.write(t, "nagios.cfg", nagiosCfg)
	env.write(t, "generated/nagios_host.cfg", "define host {\n  host_name web01\n}\n")
	env.write(t, "conf.d/old_host.cfg", "define host {\n  host_name gone\n}\n")
	env.write(t, "conf.d/README", "not a fragment\n")
}
