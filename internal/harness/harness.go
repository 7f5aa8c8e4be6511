package harness

import (
	"fmt"
	"sort"

	"github.com/schemaflow/schemaflow/internal/compile"
	"github.com/schemaflow/schemaflow/internal/report"
	"github.com/schemaflow/schemaflow/schema"
)

// Result is the outcome of running one scenario.
type Result struct {
	Scenario *Scenario
	Report   report.Report

	// Failures lists every way the outcome diverged from the scenario's
	// expectations. Empty means the scenario passed.
	Failures []string
}

// Passed reports whether the scenario's expectations held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run loads the scenario's chain declaration, runs the static check and
// compares the outcome against the expectations.
func Run(s *Scenario) (*Result, error) {
	loaded, errs := compile.LoadDir(s.DeclsDir())
	if len(errs) > 0 {
		return nil, fmt.Errorf("scenario %q: loading declarations: %w", s.Name, errs[0])
	}

	compiled := loaded.Chain(s.Chain)
	if compiled == nil {
		return nil, fmt.Errorf("scenario %q: chain %q not found in %s", s.Name, s.Chain, s.DeclsDir())
	}

	input := compiled.Input
	if len(s.Input) > 0 {
		override, err := parseInput(s.Input)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		input = override
	}

	rep := report.Report{
		Chain:       compiled.Name,
		Fingerprint: compiled.Fingerprint,
		Violations:  compiled.Pipeline.CheckStatic(input),
	}

	result := &Result{Scenario: s, Report: rep}
	result.compare()
	return result, nil
}

func parseInput(decl map[string]string) (*schema.Schema, error) {
	keys := make([]string, 0, len(decl))
	for k := range decl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := schema.New()
	for _, key := range keys {
		t, err := schema.Parse(decl[key])
		if err != nil {
			return nil, fmt.Errorf("input.%s: %w", key, err)
		}
		s.Set(key, t)
	}
	return s, nil
}

// compare fills Failures with every divergence between the report and the
// scenario's expectations.
func (r *Result) compare() {
	expect := r.Scenario.Expect

	if expect.Consistent != r.Report.Consistent() {
		r.fail("expected consistent=%v, got %d violation(s)", expect.Consistent, len(r.Report.Violations))
	}

	if len(expect.Violations) == 0 {
		return
	}
	if len(expect.Violations) != len(r.Report.Violations) {
		r.fail("expected %d violation(s), got %d", len(expect.Violations), len(r.Report.Violations))
	}

	n := len(expect.Violations)
	if len(r.Report.Violations) < n {
		n = len(r.Report.Violations)
	}
	for i := 0; i < n; i++ {
		want := expect.Violations[i]
		got := r.Report.Violations[i]
		if want.Stage != got.Stage {
			r.fail("violation %d: expected stage %q, got %q", i, want.Stage, got.Stage)
		}
		if want.Phase != string(got.Phase) {
			r.fail("violation %d: expected phase %q, got %q", i, want.Phase, got.Phase)
		}
		if want.Key != got.Key {
			r.fail("violation %d: expected key %q, got %q", i, want.Key, got.Key)
		}
		if want.Kind != string(got.Kind) {
			r.fail("violation %d: expected kind %q, got %q", i, want.Kind, got.Kind)
		}
	}
}

func (r *Result) fail(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}
