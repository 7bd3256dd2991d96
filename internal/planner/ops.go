package planner

import "fmt"

// EditOperation is one primitive edit. Operations are applied strictly in
// order: SetValueAt and SetValueAtLast assume the preceding insert already
// created their slot.
type EditOperation interface {
	// Command renders the operation in Augeas command syntax.
	Command() string

	isEditOperation()
}

// Remove deletes every occurrence of Key.
type Remove struct {
	Key Key
}

// InsertBefore creates an empty Key node directly before Anchor.
type InsertBefore struct {
	Key    Key
	Anchor string
}

// InsertAfter creates an empty Key node directly after Anchor.
type InsertAfter struct {
	Key    Key
	Anchor string
}

// SetValueAt sets the Index-th (1-based) occurrence of Key.
type SetValueAt struct {
	Key   Key
	Index int
	Value string
}

// SetValueAtLast sets the last occurrence of Key.
type SetValueAtLast struct {
	Key   Key
	Value string
}

func (o Remove) Command() string {
	return "rm " + o.Key.String()
}

func (o InsertBefore) Command() string {
	return fmt.Sprintf("ins %s before %s", o.Key, o.Anchor)
}

func (o InsertAfter) Command() string {
	return fmt.Sprintf("ins %s after %s", o.Key, o.Anchor)
}

// Path is the file-relative address this operation writes to.
func (o SetValueAt) Path() string {
	return fmt.Sprintf("%s[%d]", o.Key, o.Index)
}

func (o SetValueAt) Command() string {
	return fmt.Sprintf("set %s %s", o.Path(), o.Value)
}

// Path is the file-relative address this operation writes to.
func (o SetValueAtLast) Path() string {
	return o.Key.String() + "[last()]"
}

func (o SetValueAtLast) Command() string {
	return fmt.Sprintf("set %s %s", o.Path(), o.Value)
}

func (Remove) isEditOperation()         {}
func (InsertBefore) isEditOperation()   {}
func (InsertAfter) isEditOperation()    {}
func (SetValueAt) isEditOperation()     {}
func (SetValueAtLast) isEditOperation() {}
