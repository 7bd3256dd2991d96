package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/nagsync/nagsync/internal/facts"
	"github.com/nagsync/nagsync/internal/platform"
	"github.com/nagsync/nagsync/internal/state"
)

// Status returns the most recently recorded run.
func (e *Engine) Status(ctx context.Context) (*state.RunRecord, error) {
	record, err := e.stateStore.LoadLastRun()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRuns
		}
		return nil, fmt.Errorf("failed to load run record: %w", err)
	}
	return record, nil
}

// Facts collects the host facts published for this node.
func (e *Engine) Facts(ctx context.Context, p platform.Platform) (*facts.Facts, error) {
	return facts.Collect(e.fs, p)
}
