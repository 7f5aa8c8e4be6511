package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/schemaflow/schemaflow/internal/compile"
	"github.com/schemaflow/schemaflow/schema"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	Chain string
}

// ChainDescription is the JSON payload of the describe command. Schemas
// are rendered as key to type-expression maps plus an explicit key order.
type ChainDescription struct {
	Name             string            `json:"name"`
	Fingerprint      string            `json:"fingerprint"`
	Stages           []string          `json:"stages"`
	RequiredInput    map[string]string `json:"requiredInput"`
	RequiredFitInput map[string]string `json:"requiredFitInput"`
	ProducedOutput   map[string]string `json:"producedOutput"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <decls-dir>",
		Short: "Show a chain's derived contract",
		Long: `Show what a declared chain needs and produces as a whole: the net
required input (keys some stage reads that no earlier stage produces),
the net fit-time requirement, and the net produced output.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Chain, "chain", "", "describe only the named chain")

	return cmd
}

func runDescribe(opts *DescribeOptions, declsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	_, chains, err := loadChains(formatter, declsDir, opts.Chain)
	if err != nil {
		return err
	}

	descriptions := make([]ChainDescription, 0, len(chains))
	for _, c := range chains {
		descriptions = append(descriptions, describeChain(c))
	}

	if formatter.Format == "json" {
		return formatter.Success(descriptions)
	}
	for i, d := range descriptions {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		renderDescription(formatter, d)
	}
	return nil
}

func describeChain(c *compile.CompiledChain) ChainDescription {
	return ChainDescription{
		Name:             c.Name,
		Fingerprint:      c.Fingerprint,
		Stages:           c.Pipeline.Names(),
		RequiredInput:    schemaMap(c.Pipeline.RequiredInput()),
		RequiredFitInput: schemaMap(c.Pipeline.RequiredFitInput()),
		ProducedOutput:   schemaMap(c.Pipeline.ProducedOutput()),
	}
}

func schemaMap(s *schema.Schema) map[string]string {
	out := make(map[string]string, s.Len())
	for _, e := range s.Entries() {
		out[e.Key] = e.Type.String()
	}
	return out
}

func renderDescription(formatter *OutputFormatter, d ChainDescription) {
	w := formatter.Writer
	fmt.Fprintf(w, "chain %q\n", d.Name)
	fmt.Fprintf(w, "  fingerprint: %s\n", d.Fingerprint)
	fmt.Fprintf(w, "  stages:\n")
	for _, name := range d.Stages {
		fmt.Fprintf(w, "    - %s\n", name)
	}
	renderSchemaSection(formatter, "required input (transform)", d.RequiredInput)
	renderSchemaSection(formatter, "required input (fit)", d.RequiredFitInput)
	renderSchemaSection(formatter, "produced output", d.ProducedOutput)
}

func renderSchemaSection(formatter *OutputFormatter, title string, entries map[string]string) {
	w := formatter.Writer
	fmt.Fprintf(w, "  %s:\n", title)
	if len(entries) == 0 {
		fmt.Fprintf(w, "    (none)\n")
		return
	}
	for _, key := range sortedKeys(entries) {
		fmt.Fprintf(w, "    %s: %s\n", key, entries[key])
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
