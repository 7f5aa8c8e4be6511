package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/schemaflow/schemaflow/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Chain string
	Limit int
}

// HistoryEntry is one stored report in the history listing.
type HistoryEntry struct {
	ID             string `json:"id"`
	Chain          string `json:"chain"`
	Fingerprint    string `json:"fingerprint"`
	CreatedAt      string `json:"createdAt"`
	ViolationCount int    `json:"violationCount"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded check reports",
		Long: `List check reports previously recorded with "check --db". Newest
first. The fingerprint column tells whether the chain declaration has
drifted between runs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database written by check --db (required)")
	cmd.Flags().StringVar(&opts.Chain, "chain", "", "list only reports for the named chain")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum reports to list (0 for all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.DB))
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("opening database: %v", err))
	}
	defer s.Close()

	records, err := s.ListReports(cmd.Context(), opts.Chain, opts.Limit)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("listing reports: %v", err))
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, HistoryEntry{
			ID:             rec.ID,
			Chain:          rec.Chain,
			Fingerprint:    rec.Fingerprint,
			CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
			ViolationCount: rec.ViolationCount,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No reports recorded.")
		return nil
	}
	for _, e := range entries {
		status := "consistent"
		if e.ViolationCount == 1 {
			status = "1 violation"
		} else if e.ViolationCount > 1 {
			status = fmt.Sprintf("%d violations", e.ViolationCount)
		}
		fmt.Fprintf(formatter.Writer, "%s  %s  %-12s %s\n", e.CreatedAt, e.ID, e.Chain, status)
	}
	return nil
}
