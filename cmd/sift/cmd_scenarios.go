package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sift/internal/dataset"
	"sift/internal/format"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the embedded screening scenarios",
	RunE:  runScenarios,
}

func runScenarios(_ *cobra.Command, _ []string) error {
	t := format.NewTable(format.ASCII)
	t.Header("Scenario", "Records", "Gold labels", "Criteria")
	for _, name := range dataset.ListScenarios() {
		s, err := dataset.LoadScenario(name)
		if err != nil {
			return err
		}
		t.Row(name, len(s.Records), len(s.GoldLabels), s.Criteria.Name)
	}
	fmt.Println(t.String())
	return nil
}
