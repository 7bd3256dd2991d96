// Package config manages nagsync configuration and filesystem paths.
//
// The manifest describes the desired Nagios configuration for a host: list
// settings in the main config, generated fragments to sync, conf.d pruning,
// the sync key and the reload command. The default root is ~/.nagsync/
// containing config.yaml and state/.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by nagsync.
type Paths struct {
	// Root is the base directory for all nagsync data (default: ~/.nagsync)
	Root string

	// State is the directory containing run records
	State string

	// Config is the path to the manifest
	Config string
}

// DefaultPaths returns the default paths for nagsync.
// Paths can be overridden with environment variables:
// - NAGSYNC_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("NAGSYNC_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".nagsync")
	}

	return PathsAt(root), nil
}

// PathsAt returns the layout rooted at root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:   root,
		State:  filepath.Join(root, "state"),
		Config: filepath.Join(root, "config.yaml"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.State} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
