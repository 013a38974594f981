// CLAUDE:SUMMARY YAML seed loader that pre-populates the collaborators table without clobbering runtime edits.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedEntry is one collaborator binding from a seed file.
type SeedEntry struct {
	Service  string         `yaml:"service"`
	Strategy string         `yaml:"strategy"`
	Endpoint string         `yaml:"endpoint"`
	Config   map[string]any `yaml:"config"`
}

// Seed is the parsed shape of a collaborators seed file:
//
//	collaborators:
//	  - service: generate
//	    strategy: local
//	  - service: recommend
//	    strategy: http
//	    endpoint: https://recommend.internal/v1
//	    config:
//	      timeout_ms: 10000
//	      max_retries: 2
type Seed struct {
	Collaborators []SeedEntry `yaml:"collaborators"`
}

// LoadSeedFile reads a YAML seed file.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seed := &Seed{}
	if err := yaml.Unmarshal(data, seed); err != nil {
		return nil, fmt.Errorf("services: parse seed %s: %w", path, err)
	}
	return seed, nil
}

// ApplySeed inserts seed entries that are not already present in the
// collaborators table. Existing rows always win, so edits made through the
// Admin surface survive restarts; the seed only fills gaps.
func (a *Admin) ApplySeed(ctx context.Context, seed *Seed) error {
	for _, e := range seed.Collaborators {
		if e.Service == "" {
			return fmt.Errorf("services: seed entry without service name")
		}
		cfg := []byte(`{}`)
		if len(e.Config) > 0 {
			var err error
			cfg, err = json.Marshal(e.Config)
			if err != nil {
				return fmt.Errorf("services: seed config for %s: %w", e.Service, err)
			}
		}
		_, err := a.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO collaborators (service_name, strategy, endpoint, config) VALUES (?, ?, ?, ?)`,
			e.Service, e.Strategy, e.Endpoint, string(cfg))
		if err != nil {
			return fmt.Errorf("services: seed %s: %w", e.Service, err)
		}
	}
	return nil
}
