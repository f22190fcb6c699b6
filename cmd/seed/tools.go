package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/JaimeStill/agent-forge/internal/tools"
)

func init() {
	registerSeeder(&ToolSeeder{})
}

// ToolSeeder upserts the tool catalog from the embedded seed document or an
// external YAML file in the same format.
type ToolSeeder struct {
	file string
}

// Name returns "tools" as the seeder identifier.
func (s *ToolSeeder) Name() string {
	return "tools"
}

// Description returns a human-readable description of this seeder.
func (s *ToolSeeder) Description() string {
	return "Seeds the available tool catalog"
}

// SetFile configures an external seed file path, overriding the embedded default.
func (s *ToolSeeder) SetFile(path string) {
	s.file = path
}

// Seed saves every descriptor. Existing rows keep their activation state.
func (s *ToolSeeder) Seed(ctx context.Context, tx *sql.Tx) error {
	descs, err := s.load()
	if err != nil {
		return err
	}

	for _, d := range descs {
		if err := tools.Save(ctx, tx, d); err != nil {
			return fmt.Errorf("save tool %s: %w", d.Name, err)
		}
	}

	return nil
}

func (s *ToolSeeder) load() ([]tools.Descriptor, error) {
	if s.file == "" {
		return tools.Seed()
	}

	content, err := os.ReadFile(s.file)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return tools.ParseSeed(content)
}
