package core

import (
	"errors"
	"fmt"
	"strings"

	"mamos/internal/deploy"
	"mamos/internal/health"
)

var (
	ErrConfigNotFound  = errors.New("projects config not found")
	ErrProjectNotFound = errors.New("project not found in config")
)

// ProjectSpec is one entry of projects.yaml. Read-only during a run.
type ProjectSpec struct {
	Name          string               `yaml:"name"`
	Path          string               `yaml:"path"`
	BuildCommand  string               `yaml:"build_command"`
	TestCommand   string               `yaml:"test_command"`
	StartCommand  string               `yaml:"start_command"`
	HealthBaseURL string               `yaml:"health_base_url"`
	HealthChecks  []health.Check       `yaml:"health_checks"`
	Deploy        []deploy.Environment `yaml:"deploy"`
}

// DeployTarget returns the first environment whose name matches env,
// ignoring case.
func (p ProjectSpec) DeployTarget(env string) (deploy.Environment, bool) {
	if env == "" {
		return deploy.Environment{}, false
	}
	for _, e := range p.Deploy {
		if strings.EqualFold(e.Name, env) {
			return e, true
		}
	}
	return deploy.Environment{}, false
}

// Config is the ordered project set.
type Config struct {
	Projects []ProjectSpec `yaml:"projects"`
}

func (c *Config) Project(name string) (ProjectSpec, error) {
	for _, p := range c.Projects {
		if p.Name == name {
			return p, nil
		}
	}
	return ProjectSpec{}, fmt.Errorf("%w: %q", ErrProjectNotFound, name)
}

func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Projects))
	for _, p := range c.Projects {
		names = append(names, p.Name)
	}
	return names
}
