package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/nagsync/nagsync/internal/fsops"
	"github.com/nagsync/nagsync/internal/hash"
)

// ErrMissingSource indicates a fragment whose source has not been generated.
var ErrMissingSource = errors.New("fragment source missing")

// Fragment keeps Dest a byte-for-byte copy of Source.
type Fragment struct {
	FS     fsops.FS
	Hasher hash.Hasher
	Source string
	Dest   string
}

func (f *Fragment) Name() string {
	return "fragment:" + f.Dest
}

// Diverged is true when Dest is missing or its digest differs from Source.
func (f *Fragment) Diverged(ctx context.Context) (bool, error) {
	srcExists, err := f.FS.Exists(f.Source)
	if err != nil {
		return false, fmt.Errorf("failed to check source %s: %w", f.Source, err)
	}
	if !srcExists {
		return false, fmt.Errorf("%w: %s", ErrMissingSource, f.Source)
	}

	dstExists, err := f.FS.Exists(f.Dest)
	if err != nil {
		return false, fmt.Errorf("failed to check destination %s: %w", f.Dest, err)
	}
	if !dstExists {
		return true, nil
	}

	srcHash, err := f.Hasher.HashFile(f.Source)
	if err != nil {
		return false, fmt.Errorf("failed to hash source: %w", err)
	}
	dstHash, err := f.Hasher.HashFile(f.Dest)
	if err != nil {
		return false, fmt.Errorf("failed to hash destination: %w", err)
	}
	return srcHash != dstHash, nil
}

// Converge copies Source over Dest.
func (f *Fragment) Converge(ctx context.Context) (int, error) {
	if err := f.FS.Copy(f.Source, f.Dest); err != nil {
		return 0, fmt.Errorf("failed to copy %s to %s: %w", f.Source, f.Dest, err)
	}
	return 1, nil
}
