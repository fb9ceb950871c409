package main

import (
	"testing"

	"sift/internal/screen"
)

func TestRootCommandWiring(t *testing.T) {
	want := map[string]bool{"screen": false, "evaluate": false, "scenarios": false, "serve": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	for _, flag := range []string{"log-level", "log-format"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag %q missing", flag)
		}
	}
}

func TestBuildRunConfig_StubDefaults(t *testing.T) {
	defer func() { screenFlags.workers, screenFlags.seed = 0, 0 }()
	screenFlags.workers = 7
	screenFlags.seed = 99

	cfg, err := buildRunConfig(3)
	if err != nil {
		t.Fatalf("buildRunConfig: %v", err)
	}
	if len(cfg.Models) != 3 {
		t.Fatalf("models = %d, want 3 stub voters", len(cfg.Models))
	}
	if cfg.Models[0].ID != "stub-alpha" {
		t.Errorf("first model = %q, want stub-alpha", cfg.Models[0].ID)
	}
	if cfg.Workers != 7 || cfg.Seed != 99 {
		t.Errorf("flag overrides lost: workers=%d seed=%d", cfg.Workers, cfg.Seed)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("built config invalid: %v", err)
	}
}

func TestRunScreenRejectsZeroRuns(t *testing.T) {
	defer func() { screenFlags.runs = 1 }()
	for _, runs := range []int{0, -1} {
		screenFlags.runs = runs
		err := runScreen(screenCmd, nil)
		if err == nil {
			t.Errorf("runs=%d accepted, want a configuration error", runs)
		}
	}
}

func TestCountFlips(t *testing.T) {
	a := &screen.ResultSet{Decisions: []screen.Decision{
		{RecordID: "r1", Decision: screen.DecideInclude},
		{RecordID: "r2", Decision: screen.DecideExclude},
		{RecordID: "r3", Decision: screen.DecideHumanReview},
	}}
	b := &screen.ResultSet{Decisions: []screen.Decision{
		{RecordID: "r1", Decision: screen.DecideInclude},
		{RecordID: "r2", Decision: screen.DecideInclude},
		{RecordID: "r4", Decision: screen.DecideExclude}, // unmatched, not a flip
	}}
	if got := countFlips(a, b); got != 1 {
		t.Errorf("flips = %d, want 1", got)
	}
	if got := countFlips(a, a); got != 0 {
		t.Errorf("self-comparison flips = %d, want 0", got)
	}
}
