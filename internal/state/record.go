package state

import "time"

// RunRecord is the outcome of one reconciliation run.
type RunRecord struct {
	// Mode is "apply" or "check".
	Mode string `json:"mode"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// Converged is true when no resource failed.
	Converged bool `json:"converged"`

	// Notified is true when the notify command ran.
	Notified bool `json:"notified,omitempty"`

	Resources []ResourceRecord `json:"resources"`
}

// ResourceRecord is the outcome for a single resource.
type ResourceRecord struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Steps  int    `json:"steps,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Duration is how long the run took.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Count returns how many resources ended with status.
func (r *RunRecord) Count(status string) int {
	n := 0
	for _, res := range r.Resources {
		if res.Status == status {
			n++
		}
	}
	return n
}
