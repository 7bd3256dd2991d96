package planner

import (
	"fmt"
	"strings"
)

// Guard is a precondition evaluated against the live file. A true guard
// means the file has diverged and the edit must run.
type Guard interface {
	// Expr renders the guard in the structured file's query language.
	Expr() string

	isGuard()
}

// ValuesDiffer holds while the set of live values at Key differs from
// Values.
type ValuesDiffer struct {
	Key    Key
	Values []string
}

// SizeAbove holds while Key has more than Size occurrences.
type SizeAbove struct {
	Key  Key
	Size int
}

func (g ValuesDiffer) Expr() string {
	quoted := make([]string, len(g.Values))
	for i, v := range g.Values {
		quoted[i] = quote(v)
	}
	return fmt.Sprintf("values %s != [%s]", g.Key, strings.Join(quoted, ", "))
}

func (g SizeAbove) Expr() string {
	return fmt.Sprintf("match %s size > %d", g.Key, g.Size)
}

func (ValuesDiffer) isGuard() {}
func (SizeAbove) isGuard()    {}

// quote wraps v in single quotes, or double quotes when v itself contains
// a single quote.
func quote(v string) string {
	if strings.Contains(v, "'") {
		return `"` + v + `"`
	}
	return "'" + v + "'"
}
