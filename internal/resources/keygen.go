package resources

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/nagsync/nagsync/internal/fsops"
	"github.com/nagsync/nagsync/internal/platform"
)

const (
	DefaultKeyBits    = 2048
	DefaultKeyComment = "Nagios SSH key"
)

// Runner executes a command line.
type Runner interface {
	Run(ctx context.Context, argv []string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s failed: %w: %s", argv[0], err, out)
	}
	return out, nil
}

// Keygen creates the SSH key a target uses to push fragments. Like an exec
// with "creates", it only runs while the private key file is absent.
type Keygen struct {
	FS       fsops.FS
	Runner   Runner
	Platform platform.Platform
	KeyPath  string
	Bits     int
	Comment  string
}

func (k *Keygen) Name() string {
	return "keygen:" + k.keyPath()
}

func (k *Keygen) Diverged(ctx context.Context) (bool, error) {
	exists, err := k.FS.Exists(k.keyPath())
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", k.keyPath(), err)
	}
	return !exists, nil
}

// Converge creates the key directory and runs ssh-keygen through the
// platform shell.
func (k *Keygen) Converge(ctx context.Context) (int, error) {
	command, err := k.Command()
	if err != nil {
		return 0, err
	}

	dir := k.keyPath()
	if i := lastSeparator(dir); i > 0 {
		dir = dir[:i]
		if err := k.FS.MkdirAll(dir, 0700); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if _, err := k.Runner.Run(ctx, k.Platform.Shell(command)); err != nil {
		return 0, err
	}
	return 1, nil
}

// Command is the ssh-keygen invocation passed to the shell. The key path and
// comment are quoted by the platform.
func (k *Keygen) Command() (string, error) {
	bits := k.Bits
	if bits == 0 {
		bits = DefaultKeyBits
	}
	comment := k.Comment
	if comment == "" {
		comment = DefaultKeyComment
	}
	keyArg, err := k.Platform.Quote(k.keyPath())
	if err != nil {
		return "", fmt.Errorf("key path: %w", err)
	}
	commentArg, err := k.Platform.Quote(comment)
	if err != nil {
		return "", fmt.Errorf("key comment: %w", err)
	}
	return fmt.Sprintf("%s -t rsa -b %d -f %s -N '' -C %s",
		k.Platform.SSHKeygen(), bits, keyArg, commentArg), nil
}

func (k *Keygen) keyPath() string {
	if k.KeyPath != "" {
		return k.KeyPath
	}
	return k.Platform.KeyPath()
}

func lastSeparator(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return i
		}
	}
	return -1
}
