package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nagsync/nagsync/internal/augtree"
	"github.com/nagsync/nagsync/internal/planner"
	"github.com/nagsync/nagsync/internal/platform"
)

// Default values applied when fields are absent from the manifest.
const (
	DefaultNagiosCfg    = "/etc/nagios3/nagios.cfg"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultInterval     = 5 * time.Minute
	DefaultPrunePattern = "*.cfg"
)

// ErrInvalid wraps every manifest validation failure.
var ErrInvalid = errors.New("invalid manifest")

// Manifest is the desired state for one host.
type Manifest struct {
	// Platform is auto, posix or windows.
	Platform string `yaml:"platform"`

	Log LogConfig `yaml:"log"`

	// NagiosCfg is the main config file edits apply to when they name none.
	NagiosCfg string `yaml:"nagios_cfg"`

	// MetricsFile, when set, receives a Prometheus textfile after each run.
	MetricsFile string `yaml:"metrics_file"`

	// Interval is how often watch mode reconciles without a manifest change.
	Interval time.Duration `yaml:"interval"`

	Keys      []KeyConfig      `yaml:"keys"`
	Fragments []FragmentConfig `yaml:"fragments"`
	Edits     []EditConfig     `yaml:"edits"`
	Prune     []PruneConfig    `yaml:"prune"`
	Notify    NotifyConfig     `yaml:"notify"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// KeyConfig provisions an SSH key. Empty fields use platform defaults.
type KeyConfig struct {
	Path    string `yaml:"path"`
	Bits    int    `yaml:"bits"`
	Comment string `yaml:"comment"`
}

// FragmentConfig keeps Dest a copy of Source.
type FragmentConfig struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

// EditConfig is one list setting in a Nagios main config.
type EditConfig struct {
	File   string   `yaml:"file"`
	Key    string   `yaml:"key"`
	Values []string `yaml:"values"`
}

// PruneConfig removes unmanaged files from a directory.
type PruneConfig struct {
	Dir     string   `yaml:"dir"`
	Pattern string   `yaml:"pattern"`
	Keep    []string `yaml:"keep"`
}

// NotifyConfig is run after a cycle that changed something and had no
// failures, typically to reload Nagios.
type NotifyConfig struct {
	Command string `yaml:"command"`
}

// Load reads and parses the manifest at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	m := defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return m, nil
}

func defaults() *Manifest {
	return &Manifest{
		Platform:  "auto",
		NagiosCfg: DefaultNagiosCfg,
		Interval:  DefaultInterval,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// applyDefaults fills per-entry defaults that depend on top-level fields.
func (m *Manifest) applyDefaults() {
	for i := range m.Edits {
		if m.Edits[i].File == "" {
			m.Edits[i].File = m.NagiosCfg
		}
	}
	for i := range m.Prune {
		if m.Prune[i].Pattern == "" {
			m.Prune[i].Pattern = DefaultPrunePattern
		}
	}
}

// Validate checks required fields and structural constraints.
func (m *Manifest) Validate() error {
	if _, err := platform.ByName(m.Platform); err != nil {
		return fmt.Errorf("%w: platform: %v", ErrInvalid, err)
	}
	switch m.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, m.Log.Level)
	}
	switch m.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, m.Log.Format)
	}
	if m.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalid)
	}

	plat := m.PlatformImpl()
	for i, k := range m.Keys {
		if k.Bits < 0 {
			return fmt.Errorf("%w: keys[%d]: bits must not be negative", ErrInvalid, i)
		}
		if _, err := plat.Quote(k.Path); err != nil {
			return fmt.Errorf("%w: keys[%d].path: %v", ErrInvalid, i, err)
		}
		if _, err := plat.Quote(k.Comment); err != nil {
			return fmt.Errorf("%w: keys[%d].comment: %v", ErrInvalid, i, err)
		}
	}

	dests := make(map[string]bool)
	for i, f := range m.Fragments {
		if f.Source == "" || f.Dest == "" {
			return fmt.Errorf("%w: fragments[%d]: source and dest are required", ErrInvalid, i)
		}
		if dests[f.Dest] {
			return fmt.Errorf("%w: fragments[%d]: duplicate dest %s", ErrInvalid, i, f.Dest)
		}
		dests[f.Dest] = true
	}

	type editID struct{ file, key string }
	edits := make(map[editID]bool)
	for i, e := range m.Edits {
		if _, err := planner.ParseKey(e.Key); err != nil {
			return fmt.Errorf("%w: edits[%d]: %v", ErrInvalid, i, err)
		}
		for j, v := range e.Values {
			if err := augtree.ValidateValue(v); err != nil {
				return fmt.Errorf("%w: edits[%d].values[%d]: %v", ErrInvalid, i, j, err)
			}
		}
		id := editID{e.File, e.Key}
		if edits[id] {
			return fmt.Errorf("%w: edits[%d]: %s already managed in %s", ErrInvalid, i, e.Key, e.File)
		}
		edits[id] = true
	}

	for i, p := range m.Prune {
		if p.Dir == "" {
			return fmt.Errorf("%w: prune[%d]: dir is required", ErrInvalid, i)
		}
		if _, err := filepath.Match(p.Pattern, ""); err != nil {
			return fmt.Errorf("%w: prune[%d]: pattern %q: %v", ErrInvalid, i, p.Pattern, err)
		}
	}

	return nil
}

// PlatformImpl resolves the configured platform.
func (m *Manifest) PlatformImpl() platform.Platform {
	p, err := platform.ByName(m.Platform)
	if err != nil {
		return platform.Current()
	}
	return p
}
