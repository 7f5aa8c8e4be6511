package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemaflow/schemaflow/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	Failures []string `json:"failures,omitempty"`
}

// TestResult is the JSON payload of the test command.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run every scenario file in a directory. Each scenario names a chain
declaration directory, an optional input schema override, and the exact
violations the check must report.

Exit codes:
  0 - all scenarios passed
  1 - one or more scenarios failed
  2 - command error (invalid paths, unreadable scenarios)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	scenarios, err := harness.LoadScenarios(scenariosDir)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("loading scenarios: %v", err))
	}
	if len(scenarios) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarios)),
		Total:     len(scenarios),
	}
	for _, s := range scenarios {
		sr := runScenario(formatter, s)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.Format == "json" {
		if result.Failed > 0 {
			if err := formatter.Failure("E_TEST_FAILED",
				fmt.Sprintf("%d scenario(s) failed", result.Failed), result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
		}
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "Summary: %d passed, %d failed, %d total\n",
		result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// runScenario executes one scenario and renders its line in text mode.
func runScenario(formatter *OutputFormatter, s *harness.Scenario) ScenarioResult {
	w := formatter.Writer

	result, err := harness.Run(s)
	if err != nil {
		if formatter.Format != "json" {
			fmt.Fprintf(w, "FAIL %s\n", s.Name)
			fmt.Fprintf(w, "  %v\n", err)
		}
		return ScenarioResult{Name: s.Name, Pass: false, Failures: []string{err.Error()}}
	}

	if result.Passed() {
		if formatter.Format != "json" {
			fmt.Fprintf(w, "ok   %s\n", s.Name)
		}
		return ScenarioResult{Name: s.Name, Pass: true}
	}

	if formatter.Format != "json" {
		fmt.Fprintf(w, "FAIL %s\n", s.Name)
		for _, f := range result.Failures {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	return ScenarioResult{Name: s.Name, Pass: false, Failures: result.Failures}
}
