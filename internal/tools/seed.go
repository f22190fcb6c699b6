package tools

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedDocument struct {
	Tools []Descriptor `yaml:"tools"`
}

// Seed returns the built-in descriptors.
func Seed() ([]Descriptor, error) {
	return ParseSeed(seedYAML)
}

// ParseSeed decodes a YAML document of the form {tools: [descriptor...]}.
func ParseSeed(data []byte) ([]Descriptor, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tool seed: %w", err)
	}

	for i := range doc.Tools {
		if err := doc.Tools[i].normalize(); err != nil {
			return nil, err
		}
	}
	return doc.Tools, nil
}
