// Package state persists the outcome of reconciliation runs.
//
// Only the most recent run is kept. It is stored as JSON under the nagsync
// state directory and read back by `nagsync status`.
package state
