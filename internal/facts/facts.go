// Package facts reports the node-local values the monitor needs from a
// target: the generated Nagios config and the public half of the sync key.
package facts

import (
	"fmt"
	"strings"

	"github.com/nagsync/nagsync/internal/fsops"
	"github.com/nagsync/nagsync/internal/platform"
)

// ConfigFileName is the generated config reported as nagios_config.
const ConfigFileName = "nagios_config.cfg"

// Facts are the values reported for a node.
type Facts struct {
	// NagiosConfig is the content of the generated config, or "" if absent.
	NagiosConfig string `json:"nagios_config"`

	// NagiosKeyExists is "yes" or "no".
	NagiosKeyExists string `json:"nagios_key_exists"`

	// NagiosKey is the base64 body of id_rsa.pub, without type or comment.
	NagiosKey string `json:"nagios_key"`
}

// KeyExists reports NagiosKeyExists as a bool.
func (f *Facts) KeyExists() bool {
	return f.NagiosKeyExists == "yes"
}

// Collect gathers facts for the platform p.
func Collect(fs fsops.FS, p platform.Platform) (*Facts, error) {
	facts := &Facts{NagiosKeyExists: "no"}

	cfgPath := p.Join(p.ConfigDir(), ConfigFileName)
	cfg, found, err := readOptional(fs, cfgPath)
	if err != nil {
		return nil, err
	}
	if found {
		facts.NagiosConfig = string(cfg)
	}

	pub, found, err := readOptional(fs, p.KeyPath()+".pub")
	if err != nil {
		return nil, err
	}
	if found {
		facts.NagiosKeyExists = "yes"
		facts.NagiosKey = PublicKeyBody(string(pub))
	}

	return facts, nil
}

// PublicKeyBody returns the second whitespace-separated field of an OpenSSH
// public key line ("ssh-rsa AAAA... comment"), or "" if there is none.
func PublicKeyBody(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func readOptional(fs fsops.FS, path string) ([]byte, bool, error) {
	exists, err := fs.Exists(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return nil, false, nil
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, true, nil
}
