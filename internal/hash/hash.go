// Package hash computes content digests used to decide whether a synced
// fragment on the monitor has drifted from its source on the target.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/nagsync/nagsync/internal/fsops"
)

// Hasher computes a stable digest of a file's content.
type Hasher interface {
	HashFile(path string) (string, error)
}

// SHA256Hasher hashes files read through an fsops.FS.
type SHA256Hasher struct {
	fs fsops.FS
}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher(fs fsops.FS) *SHA256Hasher {
	return &SHA256Hasher{fs: fs}
}

// HashFile returns the hex-encoded SHA-256 of the file at path.
func (h *SHA256Hasher) HashFile(path string) (string, error) {
	data, err := h.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return HashBytes(data), nil
}

// HashBytes returns the hex-encoded SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FakeHasher returns preset digests, keyed by path.
type FakeHasher struct {
	hashes map[string]string
	calls  int
}

// NewFakeHasher creates a new FakeHasher.
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{hashes: make(map[string]string)}
}

// SetHash sets the digest returned for path.
func (h *FakeHasher) SetHash(path, digest string) {
	h.hashes[path] = digest
}

// Calls reports how many times HashFile was invoked.
func (h *FakeHasher) Calls() int {
	return h.calls
}

// HashFile returns the preset digest, or an error for unknown paths.
func (h *FakeHasher) HashFile(path string) (string, error) {
	h.calls++
	if digest, ok := h.hashes[path]; ok {
		return digest, nil
	}
	return "", fmt.Errorf("no fake hash for %s", path)
}
