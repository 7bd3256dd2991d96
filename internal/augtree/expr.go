package augtree

import (
	"fmt"
	"strconv"
	"strings"
)

// Eval evaluates a guard expression against the current tree.
//
// Supported forms:
//
//	values <path> != ['a', 'b']
//	values <path> == []
//	match <path> size > 0
//
// values compares the SET of live values with the set in the literal, so
// order and duplicates do not matter. match ... size accepts >, >=, <, <=,
// == and !=.
func (f *File) Eval(expr string) (bool, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	switch tokens[0] {
	case "values":
		if len(tokens) != 4 {
			return false, fmt.Errorf("%w: want \"values <path> <op> [...]\", got %q", ErrSyntax, expr)
		}
		return f.evalValues(tokens[1], tokens[2], tokens[3])
	case "match":
		if len(tokens) != 5 || tokens[2] != "size" {
			return false, fmt.Errorf("%w: want \"match <path> size <op> <n>\", got %q", ErrSyntax, expr)
		}
		return f.evalSize(tokens[1], tokens[3], tokens[4])
	default:
		return false, fmt.Errorf("%w: unknown query %q", ErrSyntax, tokens[0])
	}
}

func (f *File) evalValues(path, op, literal string) (bool, error) {
	want, err := ParseList(literal)
	if err != nil {
		return false, err
	}
	live, err := f.Values(path)
	if err != nil {
		return false, err
	}

	equal := sameSet(live, want)
	switch op {
	case "==":
		return equal, nil
	case "!=":
		return !equal, nil
	default:
		return false, fmt.Errorf("%w: values supports == and !=, got %q", ErrSyntax, op)
	}
}

func (f *File) evalSize(path, op, rhs string) (bool, error) {
	n, err := strconv.Atoi(rhs)
	if err != nil {
		return false, fmt.Errorf("%w: size operand %q is not an integer", ErrSyntax, rhs)
	}
	nodes, err := f.Match(path)
	if err != nil {
		return false, err
	}
	size := len(nodes)

	switch op {
	case ">":
		return size > n, nil
	case ">=":
		return size >= n, nil
	case "<":
		return size < n, nil
	case "<=":
		return size <= n, nil
	case "==":
		return size == n, nil
	case "!=":
		return size != n, nil
	default:
		return false, fmt.Errorf("%w: unknown comparison %q", ErrSyntax, op)
	}
}

// ParseList parses a list literal such as ['a', "b"] or [].
func ParseList(literal string) ([]string, error) {
	s := strings.TrimSpace(literal)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("%w: expected list literal, got %q", ErrSyntax, literal)
	}
	s = strings.TrimSpace(s[1 : len(s)-1])

	values := []string{}
	for s != "" {
		q := s[0]
		if q != '\'' && q != '"' {
			return nil, fmt.Errorf("%w: expected quoted value in %q", ErrSyntax, literal)
		}
		end := strings.IndexByte(s[1:], q)
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated string in %q", ErrSyntax, literal)
		}
		values = append(values, s[1:end+1])
		s = strings.TrimSpace(s[end+2:])

		if s == "" {
			break
		}
		if s[0] != ',' {
			return nil, fmt.Errorf("%w: expected ',' in %q", ErrSyntax, literal)
		}
		s = strings.TrimSpace(s[1:])
		if s == "" {
			return nil, fmt.Errorf("%w: trailing ',' in %q", ErrSyntax, literal)
		}
	}
	return values, nil
}

// tokenize splits expr on whitespace that is outside brackets and quotes,
// so paths with predicates and list literals stay single tokens.
func tokenize(expr string) ([]string, error) {
	var (
		tokens []string
		cur    strings.Builder
		depth  int
		quote  byte
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			cur.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == '[':
			depth++
			cur.WriteByte(c)
		case c == ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced ']' in %q", ErrSyntax, expr)
			}
			cur.WriteByte(c)
		case (c == ' ' || c == '\t') && depth == 0:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 || depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced quotes or brackets in %q", ErrSyntax, expr)
	}
	flush()
	return tokens, nil
}

func sameSet(a, b []string) bool {
	left := make(map[string]struct{}, len(a))
	for _, v := range a {
		left[v] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, v := range b {
		right[v] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for v := range left {
		if _, ok := right[v]; !ok {
			return false
		}
	}
	return true
}
