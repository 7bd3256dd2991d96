// Package applier runs the guard → apply → verify cycle.
//
// A cycle evaluates a guard against live state and returns Skipped when
// there is nothing to do. Otherwise it applies the change and evaluates the
// guard again: a guard that still holds after a successful apply means the
// change can never converge, and the cycle fails with NonConvergence rather
// than retrying. Failures are reported in the Result, never panicked, so
// the caller decides whether dependent steps (a service reload, say) may
// still run.
//
// Callers must serialize cycles against the same file: guard-then-apply is
// a check-then-act sequence.
package applier
