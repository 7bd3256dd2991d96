// Package planner computes guarded edits for multi-valued keys in a Nagios
// main configuration file.
//
// Plan turns a desired ordered list of values for a key such as cfg_file
// into a GuardedEdit: a guard expression that is true only while the live
// values differ from the desired set, paired with an ordered list of edit
// operations that rebuilds the key from scratch.
//
// The edit is always a full rebuild (remove every occurrence, then insert
// each value in order) rather than a minimal patch, so there are no
// partial-edit index alignment issues. Planning is pure: it never touches
// the file. Addressing failures surface when the edit is applied.
package planner
