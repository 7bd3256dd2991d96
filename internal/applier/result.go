package applier

import "fmt"

// Status is the state of a reconciliation cycle.
type Status int

const (
	NotEvaluated Status = iota
	Evaluating
	Skipped
	Applied
	Failed
)

func (s Status) String() string {
	switch s {
	case NotEvaluated:
		return "not_evaluated"
	case Evaluating:
		return "evaluating"
	case Skipped:
		return "skipped"
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether s ends a cycle.
func (s Status) Terminal() bool {
	return s == Skipped || s == Applied || s == Failed
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of one cycle.
type Result struct {
	// Resource names what was reconciled.
	Resource string `json:"resource"`

	Status Status `json:"status"`

	// Steps counts the operations executed before the cycle ended.
	Steps int `json:"steps"`

	// Err is an *ApplyError when Status is Failed.
	Err error `json:"-"`
}

// Reason returns the failure message, or "" for successful cycles.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
