// Package metadata signs written tables with a manifest sidecar and verifies them.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the manifest format version.
const Version = "1"

// Suffix is appended to the table path to name its manifest.
const Suffix = ".meta.yaml"

// Manifest verification errors.
var (
	ErrNoManifest   = errors.New("no manifest found")
	ErrNoHashFound  = errors.New("no hash found in manifest")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Manifest describes one written table.
type Manifest struct {
	Version     string    `yaml:"version"`
	RunID       string    `yaml:"run_id"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Source      string    `yaml:"source"`
	Rows        int       `yaml:"rows"`
	Columns     []string  `yaml:"columns"`
	Hash        string    `yaml:"hash"`
}

// PathFor returns the default manifest path for a table.
func PathFor(tablePath string) string {
	return tablePath + Suffix
}

// CalculateHash computes the SHA-256 hash of the file at path.
func CalculateHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Sign hashes the table at tablePath and writes the manifest to manifestPath
// with a fresh hash and timestamp.
func Sign(tablePath, manifestPath string, m Manifest) (*Manifest, error) {
	hash, err := CalculateHash(tablePath)
	if err != nil {
		return nil, err
	}

	m.Version = Version
	m.Hash = hash
	m.GeneratedAt = time.Now().UTC().Truncate(time.Second)

	data, err := yaml.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	return &m, nil
}

// Read loads a manifest.
func Read(manifestPath string) (*Manifest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, manifestPath)
		}

		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}

// Verify checks that the table still matches the hash in its manifest.
func Verify(tablePath, manifestPath string) (*Manifest, error) {
	m, err := Read(manifestPath)
	if err != nil {
		return nil, err
	}

	if m.Hash == "" {
		return m, ErrNoHashFound
	}

	calculated, err := CalculateHash(tablePath)
	if err != nil {
		return m, err
	}

	if calculated != m.Hash {
		return m, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, m.Hash, calculated)
	}

	return m, nil
}
