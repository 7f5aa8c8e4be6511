package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemaflow/schemaflow/internal/compile"
	"github.com/schemaflow/schemaflow/internal/report"
	"github.com/schemaflow/schemaflow/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Chain string // check only this chain
	DB    string // record reports into this SQLite database
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Reports    []report.JSON `json:"reports"`
	Consistent bool          `json:"consistent"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <decls-dir>",
		Short: "Statically check declared chains",
		Long: `Check every chain declared in a directory of CUE files against its own
declared input schema. Reports all violations; never executes a stage.

Exit codes:
  0 - every chain is consistent
  1 - violations found
  2 - command error (bad paths, malformed declarations)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Chain, "chain", "", "check only the named chain")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record reports into this SQLite database")

	return cmd
}

func runCheck(opts *CheckOptions, declsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, chains, err := loadChains(formatter, declsDir, opts.Chain)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Loaded %d CUE file(s), %d chain(s)", loaded.FileCount, len(loaded.Chains))

	reports := make([]*report.Report, 0, len(chains))
	for _, c := range chains {
		reports = append(reports, &report.Report{
			Chain:       c.Name,
			Fingerprint: c.Fingerprint,
			Violations:  c.Pipeline.CheckStatic(c.Input),
		})
	}

	if opts.DB != "" {
		if err := recordReports(cmd, opts.DB, reports); err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("recording reports: %v", err))
		}
		formatter.VerboseLog("Recorded %d report(s) in %s", len(reports), opts.DB)
	}

	return renderReports(formatter, reports)
}

// loadChains loads a declaration directory and selects the chains to
// check. Declaration defects are command errors: the check never ran.
func loadChains(formatter *OutputFormatter, declsDir, only string) (*compile.LoadResult, []*compile.CompiledChain, error) {
	loaded, errs := compile.LoadDir(declsDir)
	if len(errs) > 0 {
		for _, err := range errs {
			var loadErr *compile.LoadError
			if errors.As(err, &loadErr) {
				_ = formatter.Failure(loadErr.Code, loadErr.Message, nil)
			} else {
				_ = formatter.Failure(compile.ErrCodeGeneric, err.Error(), nil)
			}
		}
		return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("%d declaration error(s)", len(errs)))
	}

	if only == "" {
		return loaded, loaded.Chains, nil
	}
	c := loaded.Chain(only)
	if c == nil {
		_ = formatter.Failure(compile.ErrCodeGeneric,
			fmt.Sprintf("chain %q not declared in %s (have: %s)", only, declsDir, strings.Join(chainNames(loaded), ", ")), nil)
		return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("chain %q not found", only))
	}
	return loaded, []*compile.CompiledChain{c}, nil
}

func chainNames(loaded *compile.LoadResult) []string {
	names := make([]string, 0, len(loaded.Chains))
	for _, c := range loaded.Chains {
		names = append(names, c.Name)
	}
	return names
}

func recordReports(cmd *cobra.Command, dbPath string, reports []*report.Report) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, r := range reports {
		if _, err := s.WriteReport(cmd.Context(), r.ToJSON()); err != nil {
			return err
		}
	}
	return nil
}

func renderReports(formatter *OutputFormatter, reports []*report.Report) error {
	violations := 0
	for _, r := range reports {
		violations += len(r.Violations)
	}

	if formatter.Format == "json" {
		result := CheckResult{
			Reports:    make([]report.JSON, 0, len(reports)),
			Consistent: violations == 0,
		}
		for _, r := range reports {
			result.Reports = append(result.Reports, r.ToJSON())
		}
		if violations > 0 {
			if err := formatter.Failure("E_INCONSISTENT",
				fmt.Sprintf("%d violation(s) found", violations), result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("%d violation(s) found", violations))
		}
		return formatter.Success(result)
	}

	for _, r := range reports {
		r.RenderText(formatter.Writer)
	}
	if violations > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d violation(s) found", violations))
	}
	return nil
}
