package augtree

import (
	"fmt"
	"strconv"
	"strings"
)

const wildcard = "*"

type predicateKind int

const (
	predNone predicateKind = iota
	predIndex
	predLast
	predValue
)

// selector is a parsed single-segment path.
type selector struct {
	label string
	kind  predicateKind
	index int
	value string
}

// contextPrefix is the absolute prefix of nodes in this file.
func (f *File) contextPrefix() string {
	return FilesRoot + f.Path + "/"
}

// parsePath resolves path against the file context and parses the final
// segment. Absolute paths must point inside this file.
func (f *File) parsePath(path string) (selector, error) {
	segment := strings.TrimSpace(path)
	if strings.HasPrefix(segment, "/") {
		prefix := f.contextPrefix()
		if !strings.HasPrefix(segment, prefix) {
			return selector{}, fmt.Errorf("%w: path %q is outside %s", ErrAddress, path, strings.TrimSuffix(prefix, "/"))
		}
		segment = segment[len(prefix):]
	}
	return parseSegment(segment)
}

func parseSegment(segment string) (selector, error) {
	if segment == "" {
		return selector{}, fmt.Errorf("%w: empty path", ErrSyntax)
	}

	open := strings.IndexByte(segment, '[')
	label := segment
	pred := ""
	if open >= 0 {
		if !strings.HasSuffix(segment, "]") {
			return selector{}, fmt.Errorf("%w: unterminated predicate in %q", ErrSyntax, segment)
		}
		label = segment[:open]
		pred = strings.TrimSpace(segment[open+1 : len(segment)-1])
	}

	if label == "" {
		return selector{}, fmt.Errorf("%w: missing label in %q", ErrSyntax, segment)
	}
	if strings.ContainsAny(label, "/]") {
		return selector{}, fmt.Errorf("%w: nested paths are not supported: %q", ErrAddress, segment)
	}

	sel := selector{label: label}
	if open < 0 {
		return sel, nil
	}

	switch {
	case pred == "last()":
		sel.kind = predLast
	case strings.HasPrefix(pred, ".="):
		value, err := unquote(strings.TrimSpace(strings.TrimPrefix(pred, ".=")))
		if err != nil {
			return selector{}, fmt.Errorf("%w: predicate in %q: %v", ErrSyntax, segment, err)
		}
		sel.kind = predValue
		sel.value = value
	default:
		n, err := strconv.Atoi(pred)
		if err != nil || n < 1 {
			return selector{}, fmt.Errorf("%w: unsupported predicate [%s] in %q", ErrSyntax, pred, segment)
		}
		sel.kind = predIndex
		sel.index = n
	}
	return sel, nil
}

// selectNodes applies sel to the addressable nodes of the file.
func (f *File) selectNodes(sel selector) []*Node {
	var candidates []*Node
	for _, n := range f.nodes {
		if n.spacer {
			continue
		}
		if sel.label == wildcard || n.Label == sel.label {
			candidates = append(candidates, n)
		}
	}

	switch sel.kind {
	case predIndex:
		if sel.index > len(candidates) {
			return nil
		}
		return candidates[sel.index-1 : sel.index]
	case predLast:
		if len(candidates) == 0 {
			return nil
		}
		return candidates[len(candidates)-1:]
	case predValue:
		var out []*Node
		for _, n := range candidates {
			if n.Value == sel.value {
				out = append(out, n)
			}
		}
		return out
	default:
		return candidates
	}
}

// unquote strips a single pair of matching ' or " quotes.
func unquote(s string) (string, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("expected quoted string, got %q", s)
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return "", fmt.Errorf("expected quoted string, got %q", s)
	}
	inner := s[1 : len(s)-1]
	if strings.IndexByte(inner, q) >= 0 {
		return "", fmt.Errorf("unescaped quote in %q", s)
	}
	return inner, nil
}
