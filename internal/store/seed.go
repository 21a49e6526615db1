package store

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sh-sharifi-190/wetransfer/internal/settings"
)

//go:embed defaults.yaml
var defaultSeed []byte

type seedFile struct {
	Entries []settings.AdminEntry `yaml:"entries"`
}

// DefaultEntries returns the entries a fresh installation declares.
func DefaultEntries() []settings.AdminEntry {
	entries, err := parseSeed(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return entries
}

// LoadSeed reads entries from a YAML file with a top-level "entries" list.
func LoadSeed(path string) ([]settings.AdminEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	entries, err := parseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return entries, nil
}

func parseSeed(data []byte) ([]settings.AdminEntry, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	seen := make(map[string]struct{}, len(seed.Entries))
	for i, entry := range seed.Entries {
		if entry.Key == "" {
			return nil, fmt.Errorf("entry %d has no key", i)
		}
		if _, dup := seen[entry.Key]; dup {
			return nil, fmt.Errorf("duplicate key %q", entry.Key)
		}
		seen[entry.Key] = struct{}{}
	}
	return seed.Entries, nil
}
