package engine

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/nagsync/nagsync/internal/platform"
)

// resolvePath makes a manifest path absolute. Relative paths are taken
// relative to baseDir, normally the directory holding the manifest.
// Absoluteness follows the target platform, so C:\nagios\nagios.cfg is
// left alone when a Windows manifest is handled on a POSIX host.
func resolvePath(p platform.Platform, userPath, baseDir string) string {
	if userPath == "" {
		return ""
	}
	if p.IsAbs(userPath) {
		if !filepath.IsAbs(userPath) {
			return userPath
		}
		return filepath.Clean(userPath)
	}
	if baseDir == "" {
		return filepath.Clean(userPath)
	}
	return filepath.Clean(filepath.Join(baseDir, userPath))
}

// pathLocks hands out one mutex per file or directory so two cycles never
// interleave guard, apply and verify on the same path.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutexes for paths in sorted order and returns the
// function that releases them.
func (l *pathLocks) lock(paths ...string) func() {
	keys := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		k := filepath.Clean(p)
		if p == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	sort.Strings(keys)

	held := make([]*sync.Mutex, 0, len(keys))
	for _, k := range keys {
		m := l.get(k)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (l *pathLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}
