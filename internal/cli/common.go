package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nagsync/nagsync/internal/clock"
	"github.com/nagsync/nagsync/internal/config"
	"github.com/nagsync/nagsync/internal/ctxlog"
	"github.com/nagsync/nagsync/internal/engine"
	"github.com/nagsync/nagsync/internal/fsops"
	"github.com/nagsync/nagsync/internal/hash"
	"github.com/nagsync/nagsync/internal/resources"
	"github.com/nagsync/nagsync/internal/state"
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	fs := fsops.NewRealFS()
	hasher := hash.NewSHA256Hasher(fs)
	clk := &clock.RealClock{}
	stateStore := state.NewFileStore(fs, paths.State)

	return engine.New(fs, hasher, clk, resources.ExecRunner{}, stateStore), nil
}

// manifestPath returns --config or the default manifest location.
func manifestPath() (string, error) {
	if configPath != "" {
		return filepath.Abs(configPath)
	}
	paths, err := config.DefaultPaths()
	if err != nil {
		return "", fmt.Errorf("failed to get config paths: %w", err)
	}
	return paths.Config, nil
}

// loadManifest loads the manifest and returns it with the directory that
// relative manifest paths are resolved against.
func loadManifest() (*config.Manifest, string, error) {
	path, err := manifestPath()
	if err != nil {
		return nil, "", err
	}
	m, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return m, filepath.Dir(path), nil
}

// commandContext returns a context carrying the logger selected by the
// manifest and the --log-level / --log-format flags. m may be nil.
func commandContext(ctx context.Context, m *config.Manifest) context.Context {
	level, format := config.DefaultLogLevel, config.DefaultLogFormat
	if m != nil {
		level, format = m.Log.Level, m.Log.Format
	}
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return ctxlog.WithLogger(ctx, ctxlog.New(level, format, os.Stderr))
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
