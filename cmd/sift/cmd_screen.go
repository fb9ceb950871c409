package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sift/internal/adapter"
	"sift/internal/dataset"
	"sift/internal/format"
	"sift/internal/logging"
	"sift/internal/report"
	"sift/internal/screen"
)

var screenFlags struct {
	scenario     string
	scenarioFile string
	configFile   string
	workers      int
	seed         int64
	runs         int
	output       string
	markdown     bool
	detail       bool
}

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run HCN screening over a scenario's record list",
	Long: `Screen drives every record through the rule overlay and the tiered
multi-model consensus network, printing the decision table and an optional
per-record vote trail. With --runs > 1 it repeats the run and reports
decision flips as a determinism audit.`,
	RunE: runScreen,
}

func init() {
	f := screenCmd.Flags()
	f.StringVar(&screenFlags.scenario, "scenario", "diabetes-telehealth", "Embedded scenario name")
	f.StringVar(&screenFlags.scenarioFile, "scenario-file", "", "Scenario YAML path (overrides --scenario)")
	f.StringVar(&screenFlags.configFile, "config", "", "Run config YAML path (defaults applied otherwise)")
	f.IntVar(&screenFlags.workers, "workers", 0, "Worker pool size (0 = config default)")
	f.Int64Var(&screenFlags.seed, "seed", 0, "Run seed (0 = config default)")
	f.IntVar(&screenFlags.runs, "runs", 1, "Number of screening runs (reruns audit determinism)")
	f.StringVar(&screenFlags.output, "output", "", "Write the result set JSON to this path")
	f.BoolVar(&screenFlags.markdown, "markdown", false, "Render tables as Markdown instead of ASCII")
	f.BoolVar(&screenFlags.detail, "detail", false, "Print the per-model vote trail for every record")
}

func loadScreenScenario() (*dataset.Scenario, error) {
	if screenFlags.scenarioFile != "" {
		return dataset.LoadScenarioFile(screenFlags.scenarioFile)
	}
	return dataset.LoadScenario(screenFlags.scenario)
}

func buildRunConfig(models int) (screen.RunConfig, error) {
	var cfg screen.RunConfig
	var err error
	if screenFlags.configFile != "" {
		cfg, err = dataset.LoadRunConfigFile(screenFlags.configFile)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = screen.DefaultRunConfig()
	}
	if len(cfg.Models) == 0 {
		names := []string{"stub-alpha", "stub-beta", "stub-gamma", "stub-delta"}
		if models > len(names) {
			models = len(names)
		}
		for _, n := range names[:models] {
			cfg.Models = append(cfg.Models, screen.ModelConfig{ID: n})
		}
	}
	if screenFlags.workers > 0 {
		cfg.Workers = screenFlags.workers
	}
	if screenFlags.seed != 0 {
		cfg.Seed = screenFlags.seed
	}
	return cfg, nil
}

func tableMode() format.Mode {
	if screenFlags.markdown {
		return format.Markdown
	}
	return format.ASCII
}

func runScreen(cmd *cobra.Command, _ []string) error {
	if screenFlags.runs < 1 {
		return fmt.Errorf("--runs must be at least 1, got %d", screenFlags.runs)
	}
	scenario, err := loadScreenScenario()
	if err != nil {
		return err
	}
	cfg, err := buildRunConfig(3)
	if err != nil {
		return err
	}

	logger := logging.New("cli")
	invokers, err := adapter.StubRegistry(cfg).Wire(cfg)
	if err != nil {
		return err
	}

	var first *screen.ResultSet
	flips := 0
	for run := 1; run <= screenFlags.runs; run++ {
		sink := screen.LogSink{Logger: logging.New("progress")}
		orch, err := screen.NewOrchestrator(cfg, &scenario.Criteria, invokers, sink)
		if err != nil {
			return err
		}
		rs, err := orch.Run(cmd.Context(), scenario.Records)
		if err != nil {
			return err
		}
		if first == nil {
			first = rs
			continue
		}
		flips += countFlips(first, rs)
	}

	fmt.Println(report.DecisionTable(first, tableMode()))
	if screenFlags.detail {
		for _, d := range first.Decisions {
			fmt.Println(report.VoteTrail(d, tableMode()))
		}
	}
	if screenFlags.runs > 1 {
		fmt.Printf("Determinism audit: %d decision flip(s) across %d runs.\n", flips, screenFlags.runs)
		if flips > 0 {
			logger.Warn("nondeterministic decisions detected", "flips", flips)
		}
	}

	if screenFlags.output != "" {
		data, err := json.MarshalIndent(first, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result set: %w", err)
		}
		if err := os.WriteFile(screenFlags.output, data, 0o644); err != nil {
			return fmt.Errorf("write result set: %w", err)
		}
		logger.Info("result set written", "path", screenFlags.output, "run_id", first.ID)
	}
	return nil
}

// countFlips compares two runs record by record.
func countFlips(a, b *screen.ResultSet) int {
	byID := make(map[string]screen.DecisionClass, len(a.Decisions))
	for _, d := range a.Decisions {
		byID[d.RecordID] = d.Decision
	}
	flips := 0
	for _, d := range b.Decisions {
		if prev, ok := byID[d.RecordID]; ok && prev != d.Decision {
			flips++
		}
	}
	return flips
}
