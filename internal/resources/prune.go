package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nagsync/nagsync/internal/fsops"
)

// DefaultPrunePattern selects Nagios object files.
const DefaultPrunePattern = "*.cfg"

// Prune removes files in Dir that match Pattern and are not listed in Keep.
// Subdirectories are never touched.
type Prune struct {
	FS      fsops.FS
	Dir     string
	Pattern string
	Keep    []string
}

func (p *Prune) Name() string {
	return "prune:" + p.Dir
}

// Diverged is true while any stale file exists.
func (p *Prune) Diverged(ctx context.Context) (bool, error) {
	stale, err := p.Stale()
	if err != nil {
		return false, err
	}
	return len(stale) > 0, nil
}

// Converge removes every stale file.
func (p *Prune) Converge(ctx context.Context) (int, error) {
	stale, err := p.Stale()
	if err != nil {
		return 0, err
	}
	for i, name := range stale {
		path := filepath.Join(p.Dir, name)
		if err := p.FS.Remove(path); err != nil && !os.IsNotExist(err) {
			return i, fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return len(stale), nil
}

// Stale lists the names of files that would be removed, sorted.
func (p *Prune) Stale() ([]string, error) {
	pattern := p.Pattern
	if pattern == "" {
		pattern = DefaultPrunePattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid prune pattern %q: %w", pattern, err)
	}

	keep := make(map[string]bool, len(p.Keep))
	for _, name := range p.Keep {
		if err := p.FS.ValidateName(name); err != nil {
			return nil, fmt.Errorf("invalid keep entry: %w", err)
		}
		keep[name] = true
	}

	exists, err := p.FS.Exists(p.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", p.Dir, err)
	}
	if !exists {
		return nil, nil
	}

	entries, err := p.FS.ReadDir(p.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Dir, err)
	}

	var stale []string
	for _, entry := range entries {
		if entry.IsDir() || keep[entry.Name()] {
			continue
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			stale = append(stale, entry.Name())
		}
	}
	sort.Strings(stale)
	return stale, nil
}
