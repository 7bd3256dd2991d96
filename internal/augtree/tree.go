// Package augtree models a Nagios main configuration file as an addressable
// tree, in the style of an Augeas lens.
//
// Every non-blank line becomes a node. Comment lines ("# LOG FILE") become
// nodes labelled "#comment" whose value is the comment text; settings
// ("cfg_file=/etc/nagios3/commands.cfg") become nodes labelled with the key.
// Blank lines are kept as spacers so that untouched parts of the file are
// written back byte-for-byte.
//
// Nodes are addressed with single-segment paths, either relative to the
// file ("cfg_file[2]") or absolute ("/files/etc/nagios3/nagios.cfg/cfg_file").
// Supported predicates are [N], [last()] and [.='value'].
package augtree

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nagsync/nagsync/internal/fsops"
)

const (
	// FilesRoot prefixes every absolute path.
	FilesRoot = "/files"

	// CommentLabel labels comment nodes.
	CommentLabel = "#comment"
)

var (
	// ErrAddress indicates a path that cannot be resolved as required.
	ErrAddress = errors.New("addressing failure")

	// ErrSyntax indicates a malformed file, path or expression.
	ErrSyntax = errors.New("syntax error")
)

// Node is one line of the file.
type Node struct {
	Label string
	Value string

	spacer bool
	// raw is the original line; cleared once the node is modified.
	raw string
}

// line renders the node as a line of the file.
func (n *Node) line() string {
	if n.raw != "" || n.spacer {
		return n.raw
	}
	if n.Label == CommentLabel {
		if n.Value == "" {
			return "#"
		}
		return "# " + n.Value
	}
	return n.Label + "=" + n.Value
}

// File is a parsed configuration file.
type File struct {
	// Path is the slash-separated path used to build absolute addresses.
	Path string

	// DiskPath is where the file is read from and saved to.
	DiskPath string

	mode     os.FileMode
	nodes    []*Node
	modified bool
}

// Parse builds a tree from data. filename is the slash-separated path that
// absolute addresses refer to, e.g. "/etc/nagios3/nagios.cfg".
func Parse(filename string, data []byte) (*File, error) {
	f := &File{Path: filename, DiskPath: filename, mode: 0644}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			f.nodes = append(f.nodes, &Node{spacer: true, raw: raw})
		case strings.HasPrefix(trimmed, "#"):
			text := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			f.nodes = append(f.nodes, &Node{Label: CommentLabel, Value: text, raw: raw})
		default:
			key, value, ok := strings.Cut(trimmed, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return nil, fmt.Errorf("%w: %s:%d: expected key=value, got %q", ErrSyntax, filename, lineNo, trimmed)
			}
			f.nodes = append(f.nodes, &Node{Label: key, Value: strings.TrimSpace(value), raw: raw})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", filename, err)
	}

	return f, nil
}

// Load reads diskPath through fs and parses it, addressing it as treePath.
// treePath is usually equal to diskPath; it differs on platforms whose
// native paths are not slash-separated.
func Load(fs fsops.FS, diskPath, treePath string) (*File, error) {
	data, err := fs.ReadFile(diskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", diskPath, err)
	}

	f, err := Parse(treePath, data)
	if err != nil {
		return nil, err
	}
	f.DiskPath = diskPath

	if info, err := fs.Stat(diskPath); err == nil {
		f.mode = info.Mode().Perm()
	}
	return f, nil
}

// Save writes the file back atomically, keeping its original mode.
func (f *File) Save(fs fsops.FS) error {
	if err := fs.AtomicWrite(f.DiskPath, f.Bytes(), f.mode); err != nil {
		return fmt.Errorf("failed to save %s: %w", f.DiskPath, err)
	}
	f.modified = false
	return nil
}

// Bytes renders the tree back into file content.
func (f *File) Bytes() []byte {
	var buf bytes.Buffer
	for _, n := range f.nodes {
		buf.WriteString(n.line())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Modified reports whether any edit changed the tree since it was loaded
// or last saved.
func (f *File) Modified() bool {
	return f.modified
}

// Nodes returns the addressable nodes in document order.
func (f *File) Nodes() []*Node {
	out := make([]*Node, 0, len(f.nodes))
	for _, n := range f.nodes {
		if !n.spacer {
			out = append(out, n)
		}
	}
	return out
}

// Match returns the nodes addressed by path, in document order.
func (f *File) Match(path string) ([]*Node, error) {
	sel, err := f.parsePath(path)
	if err != nil {
		return nil, err
	}
	return f.selectNodes(sel), nil
}

// Values returns the values of the nodes addressed by path.
func (f *File) Values(path string) ([]string, error) {
	nodes, err := f.Match(path)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(nodes))
	for i, n := range nodes {
		values[i] = n.Value
	}
	return values, nil
}

// Remove deletes every node addressed by path and returns how many were
// removed. Removing nothing is not an error.
func (f *File) Remove(path string) (int, error) {
	doomed, err := f.Match(path)
	if err != nil {
		return 0, err
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	drop := make(map[*Node]bool, len(doomed))
	for _, n := range doomed {
		drop[n] = true
	}
	kept := f.nodes[:0]
	for _, n := range f.nodes {
		if !drop[n] {
			kept = append(kept, n)
		}
	}
	f.nodes = kept
	f.modified = true
	return len(doomed), nil
}

// Insert creates an empty node labelled label directly before or after the
// node addressed by anchor. The anchor must resolve to exactly one node.
func (f *File) Insert(label, anchor string, before bool) error {
	if err := validateLabel(label); err != nil {
		return err
	}

	matches, err := f.Match(anchor)
	if err != nil {
		return err
	}
	if len(matches) != 1 {
		return fmt.Errorf("%w: insert anchor %q matched %d nodes, want 1", ErrAddress, anchor, len(matches))
	}

	idx := f.indexOf(matches[0])
	if !before {
		idx++
	}
	node := &Node{Label: label}
	f.nodes = append(f.nodes, nil)
	copy(f.nodes[idx+1:], f.nodes[idx:])
	f.nodes[idx] = node
	f.modified = true
	return nil
}

// Set assigns value to the node addressed by path. If nothing matches, a
// new node is appended to the end of the file; if more than one node
// matches, Set fails.
func (f *File) Set(path, value string) error {
	if err := ValidateValue(value); err != nil {
		return err
	}
	sel, err := f.parsePath(path)
	if err != nil {
		return err
	}

	matches := f.selectNodes(sel)
	switch len(matches) {
	case 0:
		if sel.label == wildcard {
			return fmt.Errorf("%w: cannot create node for wildcard path %q", ErrAddress, path)
		}
		f.nodes = append(f.nodes, &Node{Label: sel.label, Value: value})
	case 1:
		n := matches[0]
		if n.Value == value && n.raw != "" {
			return nil
		}
		n.Value = value
		n.raw = ""
	default:
		return fmt.Errorf("%w: set path %q matched %d nodes, want at most 1", ErrAddress, path, len(matches))
	}
	f.modified = true
	return nil
}

func (f *File) indexOf(target *Node) int {
	for i, n := range f.nodes {
		if n == target {
			return i
		}
	}
	return -1
}

// ValidateValue rejects values that would not read back unchanged: line
// breaks split the setting, surrounding whitespace is trimmed on parse, and a
// value holding both quote characters cannot appear in a guard list literal.
func ValidateValue(value string) error {
	switch {
	case strings.ContainsAny(value, "\r\n"):
		return fmt.Errorf("%w: value %q contains a line break", ErrSyntax, value)
	case strings.TrimSpace(value) != value:
		return fmt.Errorf("%w: value %q has surrounding whitespace", ErrSyntax, value)
	case strings.Contains(value, "'") && strings.Contains(value, `"`):
		return fmt.Errorf("%w: value %q contains both quote characters", ErrSyntax, value)
	}
	return nil
}

func validateLabel(label string) error {
	if label == "" || label == wildcard || strings.ContainsAny(label, "/[]= \t") {
		return fmt.Errorf("%w: invalid node label %q", ErrSyntax, label)
	}
	return nil
}
