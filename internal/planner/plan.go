package planner

import (
	"fmt"
	"slices"
)

// AnchorComment is the comment the first value is inserted before.
const AnchorComment = "LOG FILE"

// GuardedEdit pairs a guard with the edit it protects. The pair can only be
// applied together, so the operations never run without their guard.
type GuardedEdit struct {
	key      Key
	filename string
	guard    Guard
	ops      []EditOperation
}

// NewGuardedEdit pairs an arbitrary guard and operation list. Plan is the
// normal constructor; this one exists for callers that assemble edits by
// hand.
func NewGuardedEdit(key Key, filename string, guard Guard, ops []EditOperation) GuardedEdit {
	return GuardedEdit{
		key:      key,
		filename: filename,
		guard:    guard,
		ops:      slices.Clone(ops),
	}
}

// Key returns the key this edit rebuilds.
func (e GuardedEdit) Key() Key { return e.key }

// Filename returns the file path used to build absolute addresses.
func (e GuardedEdit) Filename() string { return e.filename }

// Guard returns the guard.
func (e GuardedEdit) Guard() Guard { return e.guard }

// Ops returns a copy of the ordered operations.
func (e GuardedEdit) Ops() []EditOperation { return slices.Clone(e.ops) }

// OnlyIf renders the guard expression.
func (e GuardedEdit) OnlyIf() string {
	if e.guard == nil {
		return ""
	}
	return e.guard.Expr()
}

// Changes renders the operations as Augeas commands.
func (e GuardedEdit) Changes() []string {
	changes := make([]string, len(e.ops))
	for i, op := range e.ops {
		changes[i] = op.Command()
	}
	return changes
}

// Record is the {changes, onlyif} pair handed to an external applier.
type Record struct {
	Changes []string `json:"changes" yaml:"changes"`
	OnlyIf  string   `json:"onlyif" yaml:"onlyif"`
}

// Record renders the edit in its external string form.
func (e GuardedEdit) Record() Record {
	return Record{Changes: e.Changes(), OnlyIf: e.OnlyIf()}
}

// FilePath returns the absolute address of the file's root node.
func FilePath(filename string) string {
	return "/files" + filename
}

// KeyPath returns the absolute address of key's occurrences in filename.
func KeyPath(filename string, key Key) string {
	return fmt.Sprintf("%s/%s", FilePath(filename), key)
}

// AnchorPath returns the absolute address of the LOG FILE comment.
func AnchorPath(filename string) string {
	return fmt.Sprintf("%s/#comment[.='%s']", FilePath(filename), AnchorComment)
}

// Plan computes the guarded edit that brings key in filename to desired.
//
// The guard is built from the full desired list before anything else. An
// empty desired list uses a size guard ("match key size > 0") instead of
// comparing against an empty literal. The operations always start with a
// Remove of the whole key; for a non-empty list the first value is then
// inserted before the LOG FILE comment and every following value is
// appended after the previous one, preserving input order.
//
// desired is never modified.
func Plan(desired []string, key Key, filename string) GuardedEdit {
	values := slices.Clone(desired)

	var guard Guard
	if len(values) == 0 {
		guard = SizeAbove{Key: key, Size: 0}
	} else {
		guard = ValuesDiffer{Key: key, Values: values}
	}

	ops := []EditOperation{Remove{Key: key}}
	if len(values) == 0 {
		return GuardedEdit{key: key, filename: filename, guard: guard, ops: ops}
	}

	first, rest := values[0], values[1:]
	ops = append(ops,
		InsertBefore{Key: key, Anchor: AnchorPath(filename)},
		SetValueAt{Key: key, Index: 1, Value: first},
	)
	for _, v := range rest {
		ops = append(ops,
			InsertAfter{Key: key, Anchor: KeyPath(filename, key) + "[last()]"},
			SetValueAtLast{Key: key, Value: v},
		)
	}

	return GuardedEdit{key: key, filename: filename, guard: guard, ops: ops}
}

// PlanNamed is Plan for a key given by name. It fails fast with
// ErrUnrecognizedKey, before producing any part of a plan.
func PlanNamed(desired []string, keyName, filename string) (GuardedEdit, error) {
	key, err := ParseKey(keyName)
	if err != nil {
		return GuardedEdit{}, err
	}
	return Plan(desired, key, filename), nil
}
