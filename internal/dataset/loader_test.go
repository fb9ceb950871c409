package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadScenario_Embedded(t *testing.T) {
	s, err := LoadScenario("diabetes-telehealth")
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if s.Name != "diabetes-telehealth" {
		t.Errorf("name = %q, want diabetes-telehealth", s.Name)
	}
	if len(s.Records) == 0 {
		t.Fatal("scenario has no records")
	}
	if s.Criteria.Empty() {
		t.Error("scenario criteria must carry signal")
	}
	if len(s.GoldLabels) == 0 {
		t.Error("demo scenario must ship gold labels for calibration")
	}
	for id := range s.GoldLabels {
		found := false
		for _, r := range s.Records {
			if r.ID == id {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("gold label %q has no matching record", id)
		}
	}

	gold := s.Gold()
	if gold.ID != "diabetes-telehealth-gold" {
		t.Errorf("gold set ID = %q", gold.ID)
	}
	if len(gold.Labels) != len(s.GoldLabels) {
		t.Errorf("gold labels = %d, want %d", len(gold.Labels), len(s.GoldLabels))
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	_, err := LoadScenario("no-such-scenario")
	if err == nil {
		t.Fatal("expected error for unknown scenario")
	}
	if !strings.Contains(err.Error(), "available:") {
		t.Errorf("error %q should list available scenarios", err)
	}
}

func TestListScenarios(t *testing.T) {
	names := ListScenarios()
	if len(names) == 0 {
		t.Fatal("no embedded scenarios")
	}
	found := false
	for _, n := range names {
		if n == "diabetes-telehealth" {
			found = true
		}
		if strings.HasSuffix(n, ".yaml") {
			t.Errorf("scenario name %q retains its extension", n)
		}
	}
	if !found {
		t.Error("diabetes-telehealth missing from scenario list")
	}
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no records",
			yaml:    "name: x\ncriteria:\n  description: d\n",
			wantErr: "no records",
		},
		{
			name:    "empty record id",
			yaml:    "name: x\nrecords:\n  - id: \"\"\n    title: t\n",
			wantErr: "empty id",
		},
		{
			name:    "duplicate record id",
			yaml:    "name: x\nrecords:\n  - id: r1\n    title: a\n  - id: r1\n    title: b\n",
			wantErr: "duplicate record id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScenario([]byte(tt.yaml), "test")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := `name: custom
criteria:
  description: custom criteria
records:
  - id: r1
    title: First record
  - id: r2
    title: Second record
gold_labels:
  r1: true
  r2: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScenarioFile(path)
	if err != nil {
		t.Fatalf("LoadScenarioFile: %v", err)
	}
	if len(s.Records) != 2 || s.Name != "custom" {
		t.Errorf("got %+v", s)
	}
}

func TestLoadGoldFile(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.yaml")
	if err := os.WriteFile(bare, []byte("r1: true\nr2: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gold, err := LoadGoldFile(bare)
	if err != nil {
		t.Fatalf("LoadGoldFile bare map: %v", err)
	}
	if !gold.Labels["r1"] || gold.Labels["r2"] {
		t.Errorf("bare labels = %v", gold.Labels)
	}

	wrapped := filepath.Join(dir, "wrapped.yaml")
	if err := os.WriteFile(wrapped, []byte("name: x\ngold_labels:\n  r3: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gold, err = LoadGoldFile(wrapped)
	if err != nil {
		t.Fatalf("LoadGoldFile scenario shape: %v", err)
	}
	if !gold.Labels["r3"] {
		t.Errorf("wrapped labels = %v", gold.Labels)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("name: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGoldFile(empty); err == nil {
		t.Error("expected error for a file with no labels")
	}
}

func TestLoadRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `quorum_size: 3
workers: 8
upper_threshold: 0.8
models:
  - id: m1
  - id: m2
  - id: m3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadRunConfigFile(path)
	if err != nil {
		t.Fatalf("LoadRunConfigFile: %v", err)
	}
	if cfg.QuorumSize != 3 || cfg.Workers != 8 || cfg.UpperThreshold != 0.8 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	// Untouched settings keep the defaults.
	if cfg.MaxTier != 3 || cfg.LowerThreshold != -0.6 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if len(cfg.Models) != 3 {
		t.Errorf("models = %d, want 3", len(cfg.Models))
	}
}
