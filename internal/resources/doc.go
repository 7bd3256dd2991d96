// Package resources holds the guarded resources, other than structured-file
// edits, that a reconciliation cycle converges: generated config fragments,
// stale fragment pruning, and SSH key provisioning.
//
// Each type implements applier.Resource, so it is only touched when its
// guard reports divergence and is verified after every change.
package resources
