package planner

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedKey is returned for key names that are not multi-valued
// Nagios settings nagsync knows how to rebuild.
var ErrUnrecognizedKey = errors.New("unrecognized key")

// Key is a recognized multi-valued key of nagios.cfg.
type Key int

const (
	// KeyCfgFile lists individual object configuration files.
	KeyCfgFile Key = iota + 1

	// KeyCfgDir lists directories scanned for object configuration files.
	KeyCfgDir
)

var keyNames = map[Key]string{
	KeyCfgFile: "cfg_file",
	KeyCfgDir:  "cfg_dir",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// Valid reports whether k is one of the recognized keys.
func (k Key) Valid() bool {
	_, ok := keyNames[k]
	return ok
}

// ParseKey maps a key name to a Key.
func ParseKey(name string) (Key, error) {
	for k, n := range keyNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want cfg_file or cfg_dir)", ErrUnrecognizedKey, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnrecognizedKey, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so keys can be read
// straight from YAML and JSON.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
