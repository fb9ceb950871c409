// Package dataset loads screening scenarios: a frozen criteria set, a
// record list, and gold labels for calibration. Demo scenarios ship
// embedded; external files load from disk in the same YAML shape.
package dataset

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"sift/internal/eval"
	"sift/internal/screen"
)

//go:embed *.yaml
var scenarioFS embed.FS

// Scenario bundles everything one screening + evaluation run needs.
type Scenario struct {
	Name       string             `yaml:"name"`
	Criteria   screen.CriteriaSet `yaml:"criteria"`
	Records    []screen.Record    `yaml:"records"`
	GoldLabels map[string]bool    `yaml:"gold_labels,omitempty"`
}

// Gold wraps the scenario's labels as an eval.GoldLabelSet.
func (s *Scenario) Gold() eval.GoldLabelSet {
	return eval.GoldLabelSet{ID: s.Name + "-gold", Labels: s.GoldLabels}
}

// LoadScenario reads an embedded scenario by name.
func LoadScenario(name string) (*Scenario, error) {
	data, err := scenarioFS.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("scenario %q not found (available: %s): %w",
			name, strings.Join(ListScenarios(), ", "), err)
	}
	return parseScenario(data, name)
}

// LoadScenarioFile reads a scenario from disk.
func LoadScenarioFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return parseScenario(data, path)
}

func parseScenario(data []byte, origin string) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %q: %w", origin, err)
	}
	if len(s.Records) == 0 {
		return nil, fmt.Errorf("scenario %q: no records", origin)
	}
	seen := make(map[string]bool, len(s.Records))
	for _, r := range s.Records {
		if r.ID == "" {
			return nil, fmt.Errorf("scenario %q: record with empty id", origin)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("scenario %q: duplicate record id %q", origin, r.ID)
		}
		seen[r.ID] = true
	}
	return &s, nil
}

// ListScenarios returns the names of all embedded scenarios, sorted.
func ListScenarios() []string {
	entries, _ := scenarioFS.ReadDir(".")
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

// LoadGoldFile reads a standalone gold-label file:
// either a bare map of record id -> bool, or the scenario shape.
func LoadGoldFile(path string) (eval.GoldLabelSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return eval.GoldLabelSet{}, fmt.Errorf("read gold labels: %w", err)
	}
	var bare map[string]bool
	if err := yaml.Unmarshal(data, &bare); err == nil && len(bare) > 0 {
		return eval.GoldLabelSet{ID: path, Labels: bare}, nil
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return eval.GoldLabelSet{}, fmt.Errorf("parse gold labels %q: %w", path, err)
	}
	if len(s.GoldLabels) == 0 {
		return eval.GoldLabelSet{}, fmt.Errorf("gold labels %q: no labels found", path)
	}
	return eval.GoldLabelSet{ID: path, Labels: s.GoldLabels}, nil
}

// LoadRunConfigFile overlays YAML settings onto the default run config.
func LoadRunConfigFile(path string) (screen.RunConfig, error) {
	cfg := screen.DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read run config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse run config %q: %w", path, err)
	}
	return cfg, nil
}
