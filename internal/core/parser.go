package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseProjects parses projects.yaml content.
func ParseProjects(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse projects: %w", err)
	}
	for i, p := range cfg.Projects {
		if p.Name == "" {
			return nil, fmt.Errorf("parse projects: entry %d has no name", i)
		}
	}
	return &cfg, nil
}

// LoadProjects reads and parses the projects file at path.
func LoadProjects(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return ParseProjects(data)
}
