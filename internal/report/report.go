// Package report renders the outcome of a chain check for humans and for
// machine consumption. The rendering is deterministic so reports can be
// compared against golden files.
package report

import (
	"fmt"
	"io"

	"github.com/schemaflow/schemaflow/contract"
)

// Report is the outcome of one chain check.
type Report struct {
	Chain       string
	Fingerprint string
	Violations  []contract.Violation
}

// Consistent reports whether the check found no violations. An empty
// violation list is the sole "pipeline is consistent" signal.
func (r *Report) Consistent() bool { return len(r.Violations) == 0 }

// RenderText writes the human-readable report:
//
//	chain "lasso": 2 violations
//	  1. [MISSING_KEY] model/fit key "alpha": required key "alpha" (float) is absent
//	  2. ...
func (r *Report) RenderText(w io.Writer) {
	switch n := len(r.Violations); n {
	case 0:
		fmt.Fprintf(w, "chain %q: consistent\n", r.Chain)
	case 1:
		fmt.Fprintf(w, "chain %q: 1 violation\n", r.Chain)
	default:
		fmt.Fprintf(w, "chain %q: %d violations\n", r.Chain, n)
	}
	for i, v := range r.Violations {
		fmt.Fprintf(w, "  %d. %s\n", i+1, v.String())
	}
}

// JSON is the wire form of a report. Types are rendered in the
// declaration grammar.
type JSON struct {
	Chain       string          `json:"chain"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Consistent  bool            `json:"consistent"`
	Violations  []ViolationJSON `json:"violations"`
}

// ViolationJSON is the wire form of one violation.
type ViolationJSON struct {
	Stage    string `json:"stage,omitempty"`
	Phase    string `json:"phase"`
	Key      string `json:"key,omitempty"`
	Kind     string `json:"kind"`
	Expected string `json:"expected,omitempty"`
	Observed string `json:"observed,omitempty"`
	Message  string `json:"message"`
}

// ToJSON converts the report to its wire form.
func (r *Report) ToJSON() JSON {
	out := JSON{
		Chain:       r.Chain,
		Fingerprint: r.Fingerprint,
		Consistent:  r.Consistent(),
		Violations:  make([]ViolationJSON, 0, len(r.Violations)),
	}
	for _, v := range r.Violations {
		vj := ViolationJSON{
			Stage:   v.Stage,
			Phase:   string(v.Phase),
			Key:     v.Key,
			Kind:    string(v.Kind),
			Message: v.Message,
		}
		if v.Expected != nil {
			vj.Expected = v.Expected.String()
		}
		if v.Observed != nil {
			vj.Observed = v.Observed.String()
		}
		out.Violations = append(out.Violations, vj)
	}
	return out
}
