package resources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagsync/nagsync/internal/applier"
	"github.com/nagsync/nagsync/internal/fsops"
	"github.com/nagsync/nagsync/internal/planner"
	"github.com/nagsync/nagsync/internal/platform"
)

const mainCfg = `# MAIN CONFIGURATION FILE
cfg_file=/etc/nagios3/commands.cfg
cfg_dir=/etc/nagios3/conf.d

# LOG FILE
log_file=/var/log/nagios3/nagios.log
`

func writeMainCfg(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nagios.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0640))
	return path
}

func TestListEdit_AppliesAndSaves(t *testing.T) {
	path := writeMainCfg(t, mainCfg)
	edit := &ListEdit{
		FS:       fsops.NewRealFS(),
		Platform: platform.Posix{},
		File:     path,
		Key:      planner.KeyCfgDir,
		Values:   []string{"/etc/nagios3/conf.d", "/etc/nagios/conf.d"},
	}

	result := applier.Reconcile(context.Background(), edit)
	require.NoError(t, result.Err)
	assert.Equal(t, applier.Applied, result.Status)
	assert.Equal(t, 5, result.Steps)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `# MAIN CONFIGURATION FILE
cfg_file=/etc/nagios3/commands.cfg

cfg_dir=/etc/nagios3/conf.d
cfg_dir=/etc/nagios/conf.d
# LOG FILE
log_file=/var/log/nagios3/nagios.log
`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	again := applier.Reconcile(context.Background(), edit)
	assert.Equal(t, applier.Skipped, again.Status)
}

func TestListEdit_FailureLeavesFileUntouched(t *testing.T) {
	content := "cfg_file=/etc/nagios3/commands.cfg\nlog_file=/var/log/nagios3/nagios.log\n"
	path := writeMainCfg(t, content)
	edit := &ListEdit{
		FS:       fsops.NewRealFS(),
		Platform: platform.Posix{},
		File:     path,
		Key:      planner.KeyCfgFile,
		Values:   []string{"/etc/nagios/hosts.cfg"},
	}

	result := applier.Reconcile(context.Background(), edit)
	require.Equal(t, applier.Failed, result.Status)
	assert.ErrorIs(t, result.Err, applier.ErrAddressing)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestListEdit_MissingFile(t *testing.T) {
	edit := &ListEdit{
		FS:       fsops.NewRealFS(),
		Platform: platform.Posix{},
		File:     filepath.Join(t.TempDir(), "nagios.cfg"),
		Key:      planner.KeyCfgFile,
	}

	result := applier.Reconcile(context.Background(), edit)
	assert.Equal(t, applier.Failed, result.Status)
	assert.ErrorIs(t, result.Err, os.ErrNotExist)
}

func TestListEdit_ConvergeRequiresGuard(t *testing.T) {
	edit := &ListEdit{Platform: platform.Posix{}, File: "/etc/nagios3/nagios.cfg", Key: planner.KeyCfgFile}
	_, err := edit.Converge(context.Background())
	assert.Error(t, err)
}

func TestListEdit_UnstableValueLeavesFileUntouched(t *testing.T) {
	for name, value := range map[string]string{
		"line break":  "/etc/nagios/a.cfg\n/etc/x",
		"leading tab": "\t/etc/nagios/a.cfg",
		"both quotes": `/etc/it's "x".cfg`,
	} {
		t.Run(name, func(t *testing.T) {
			path := writeMainCfg(t, mainCfg)
			edit := &ListEdit{
				FS:       fsops.NewRealFS(),
				Platform: platform.Posix{},
				File:     path,
				Key:      planner.KeyCfgFile,
				Values:   []string{"/etc/nagios3/commands.cfg", value},
			}

			result := applier.Reconcile(context.Background(), edit)
			assert.Equal(t, applier.Failed, result.Status)
			assert.ErrorIs(t, result.Err, applier.ErrAddressing)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, mainCfg, string(data))
		})
	}
}
