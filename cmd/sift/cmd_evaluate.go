package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sift/internal/adapter"
	"sift/internal/dataset"
	"sift/internal/eval"
	"sift/internal/logging"
	"sift/internal/report"
	"sift/internal/screen"
)

var evaluateFlags struct {
	decisions string
	gold      string
	resamples int
	seed      int64
	buckets   int
	output    string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate screening decisions against gold-standard labels",
	Long: `Evaluate joins a result set against gold labels and computes the metric
scorecard: sensitivity, specificity, F1, Cohen's kappa, WSS@95, AUROC,
calibration error, Brier score, and 95% bootstrap confidence intervals,
plus ROC/calibration/histogram curve series.

With --decisions it evaluates a saved result set from "sift screen
--output"; otherwise it screens the scenario first and evaluates against
the scenario's own gold labels.`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.decisions, "decisions", "", "Result set JSON from 'sift screen --output'")
	f.StringVar(&evaluateFlags.gold, "gold", "", "Gold label YAML path (required with --decisions)")
	f.IntVar(&evaluateFlags.resamples, "resamples", 1000, "Bootstrap resamples for confidence intervals")
	f.Int64Var(&evaluateFlags.seed, "bootstrap-seed", 42, "Bootstrap RNG seed")
	f.IntVar(&evaluateFlags.buckets, "buckets", 10, "Calibration buckets for ECE and curves")
	f.StringVar(&evaluateFlags.output, "output", "", "Write the full evaluation report JSON to this path")

	// Shared with screen: which scenario to run when no saved decisions.
	f.StringVar(&screenFlags.scenario, "scenario", "diabetes-telehealth", "Embedded scenario name")
	f.StringVar(&screenFlags.scenarioFile, "scenario-file", "", "Scenario YAML path (overrides --scenario)")
	f.BoolVar(&screenFlags.markdown, "markdown", false, "Render tables as Markdown instead of ASCII")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	rs, gold, err := resolveEvaluationInputs(cmd)
	if err != nil {
		return err
	}

	rep := eval.Evaluate(rs, gold, eval.Options{
		Resamples:  evaluateFlags.resamples,
		Seed:       evaluateFlags.seed,
		ECEBuckets: evaluateFlags.buckets,
	})

	fmt.Println(report.JoinLine(rep))
	fmt.Println(report.SummaryLine(rep))
	fmt.Println()
	fmt.Println(report.Scorecard(rep, tableMode()))

	if evaluateFlags.output != "" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(evaluateFlags.output, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logging.New("cli").Info("evaluation report written", "path", evaluateFlags.output)
	}
	return nil
}

func resolveEvaluationInputs(cmd *cobra.Command) (*screen.ResultSet, eval.GoldLabelSet, error) {
	if evaluateFlags.decisions != "" {
		if evaluateFlags.gold == "" {
			return nil, eval.GoldLabelSet{}, fmt.Errorf("--gold is required with --decisions")
		}
		data, err := os.ReadFile(evaluateFlags.decisions)
		if err != nil {
			return nil, eval.GoldLabelSet{}, fmt.Errorf("read decisions: %w", err)
		}
		var rs screen.ResultSet
		if err := json.Unmarshal(data, &rs); err != nil {
			return nil, eval.GoldLabelSet{}, fmt.Errorf("parse decisions %q: %w", evaluateFlags.decisions, err)
		}
		gold, err := dataset.LoadGoldFile(evaluateFlags.gold)
		if err != nil {
			return nil, eval.GoldLabelSet{}, err
		}
		return &rs, gold, nil
	}

	scenario, err := loadScreenScenario()
	if err != nil {
		return nil, eval.GoldLabelSet{}, err
	}
	if len(scenario.GoldLabels) == 0 {
		return nil, eval.GoldLabelSet{}, fmt.Errorf("scenario %q has no gold labels", scenario.Name)
	}

	cfg, err := buildRunConfig(3)
	if err != nil {
		return nil, eval.GoldLabelSet{}, err
	}
	invokers, err := adapter.StubRegistry(cfg).Wire(cfg)
	if err != nil {
		return nil, eval.GoldLabelSet{}, err
	}
	orch, err := screen.NewOrchestrator(cfg, &scenario.Criteria, invokers,
		screen.LogSink{Logger: logging.New("progress")})
	if err != nil {
		return nil, eval.GoldLabelSet{}, err
	}
	rs, err := orch.Run(cmd.Context(), scenario.Records)
	if err != nil {
		return nil, eval.GoldLabelSet{}, err
	}
	return rs, scenario.Gold(), nil
}
