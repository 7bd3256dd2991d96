// Package platform captures the conventions that differ between the POSIX
// and Windows targets nagsync manages: path separators, the shell used to
// run commands, and where the Nagios SSH key and generated config live.
//
// Callers pick a Platform once and pass it down instead of branching on
// the operating system at each call site.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	// ErrUnknownPlatform is returned by ByName for unsupported names.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrUnsafeArgument is returned by Quote for arguments the shell
	// cannot carry literally.
	ErrUnsafeArgument = errors.New("argument cannot be quoted for shell")
)

// Platform supplies OS-specific conventions.
type Platform interface {
	// Name is "posix" or "windows".
	Name() string

	// Separator is the native path separator.
	Separator() string

	// Join joins path elements with the native separator.
	Join(elem ...string) string

	// IsAbs reports whether path is absolute on the target, regardless of
	// the host nagsync runs on.
	IsAbs(path string) bool

	// Shell wraps command for execution by the native shell.
	Shell(command string) []string

	// Quote renders arg as a single literal word for the native shell.
	Quote(arg string) (string, error)

	// ConfigDir is where generated Nagios fragments and the sync key live.
	ConfigDir() string

	// KeyPath is the private SSH key used to push fragments.
	KeyPath() string

	// SSHKeygen is the ssh-keygen executable.
	SSHKeygen() string

	// TreePath converts a native file path to the slash-separated form used
	// in structured-file addresses.
	TreePath(path string) string
}

// Posix is Linux and other Unix-like targets.
type Posix struct{}

func (Posix) Name() string      { return "posix" }
func (Posix) Separator() string { return "/" }

func (p Posix) Join(elem ...string) string {
	return join(p.Separator(), elem)
}

func (Posix) IsAbs(path string) bool { return strings.HasPrefix(path, "/") }

func (Posix) Shell(command string) []string {
	return []string{"/bin/sh", "-c", command}
}

// Quote single-quotes arg, closing and escaping any embedded quote.
func (Posix) Quote(arg string) (string, error) {
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'", nil
}

func (Posix) ConfigDir() string { return "/etc/nagios" }

func (p Posix) KeyPath() string {
	return p.Join(p.ConfigDir(), ".ssh", "id_rsa")
}

func (Posix) SSHKeygen() string { return "/usr/bin/ssh-keygen" }

func (Posix) TreePath(path string) string { return path }

// Windows targets run NSClient++ and keep everything under C:\nagios.
type Windows struct{}

func (Windows) Name() string      { return "windows" }
func (Windows) Separator() string { return `\` }

func (w Windows) Join(elem ...string) string {
	return join(w.Separator(), elem)
}

// IsAbs accepts drive paths such as C:\nagios or C:/nagios and UNC paths.
func (Windows) IsAbs(path string) bool {
	if strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//") {
		return true
	}
	if len(path) < 3 || path[1] != ':' || (path[2] != '\\' && path[2] != '/') {
		return false
	}
	c := path[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func (Windows) Shell(command string) []string {
	return []string{`C:\windows\system32\cmd.exe`, "/c", command}
}

// cmdSpecial are characters cmd.exe interprets even inside quotes, plus
// the quote characters themselves.
const cmdSpecial = "'\"%!^&|<>\r\n"

// Quote single-quotes arg for ssh-keygen.exe. cmd.exe has no escape that
// survives every metacharacter, so such arguments are rejected.
func (Windows) Quote(arg string) (string, error) {
	if strings.ContainsAny(arg, cmdSpecial) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeArgument, arg)
	}
	return "'" + arg + "'", nil
}

func (Windows) ConfigDir() string { return `C:\nagios` }

func (w Windows) KeyPath() string {
	return w.Join(w.ConfigDir(), ".ssh", "id_rsa")
}

func (Windows) SSHKeygen() string { return `C:\Windows\System32\OpenSSH\ssh-keygen.exe` }

// TreePath maps C:\nagios\nagios.cfg to /C:/nagios/nagios.cfg.
func (Windows) TreePath(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// Detect returns the platform for a GOOS value.
func Detect(goos string) Platform {
	if goos == "windows" {
		return Windows{}
	}
	return Posix{}
}

// Current returns the platform nagsync is running on.
func Current() Platform {
	return Detect(runtime.GOOS)
}

// ByName resolves "posix", "windows" or "auto" (or "") to a Platform.
func ByName(name string) (Platform, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return Current(), nil
	case "posix", "linux":
		return Posix{}, nil
	case "windows":
		return Windows{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}
}

func join(sep string, elem []string) string {
	parts := make([]string, 0, len(elem))
	for i, e := range elem {
		if e == "" {
			continue
		}
		if i > 0 {
			e = strings.TrimLeft(e, `/\`)
		}
		if i < len(elem)-1 {
			e = strings.TrimRight(e, `/\`)
		}
		parts = append(parts, e)
	}
	return strings.Join(parts, sep)
}
