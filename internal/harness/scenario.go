// Package harness runs conformance scenarios: YAML files that name a
// chain declaration, an input schema, and the violations the static check
// is expected to report. Golden files pin the full rendered report.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance case.
type Scenario struct {
	// Name uniquely identifies the scenario; the golden file shares it.
	Name string `yaml:"name"`

	// Description explains what the scenario pins down.
	Description string `yaml:"description,omitempty"`

	// Decls is the chain declaration directory, relative to the scenario
	// file.
	Decls string `yaml:"decls"`

	// Chain names the declared chain to check.
	Chain string `yaml:"chain"`

	// Input optionally overrides the declaration's input schema. Values
	// are type expressions.
	Input map[string]string `yaml:"input,omitempty"`

	// Expect states the required outcome.
	Expect Expect `yaml:"expect"`

	// baseDir is the directory the scenario file was loaded from; Decls
	// is resolved against it.
	baseDir string
}

// Expect is the required outcome of a scenario.
type Expect struct {
	Consistent bool                `yaml:"consistent"`
	Violations []ExpectedViolation `yaml:"violations,omitempty"`
}

// ExpectedViolation matches one reported violation. All fields are exact
// matches; violations must appear in the expected order.
type ExpectedViolation struct {
	Stage string `yaml:"stage"`
	Phase string `yaml:"phase"`
	Key   string `yaml:"key,omitempty"`
	Kind  string `yaml:"kind"`
}

// LoadScenario reads one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if s.Decls == "" {
		return nil, fmt.Errorf("scenario %s: decls is required", path)
	}
	if s.Chain == "" {
		return nil, fmt.Errorf("scenario %s: chain is required", path)
	}

	s.baseDir = filepath.Dir(path)
	return &s, nil
}

// DeclsDir returns the declaration directory resolved against the
// scenario file's location.
func (s *Scenario) DeclsDir() string {
	if filepath.IsAbs(s.Decls) {
		return s.Decls
	}
	return filepath.Join(s.baseDir, s.Decls)
}

// LoadScenarios reads every .yaml scenario under dir, sorted by file name
// for a stable run order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
