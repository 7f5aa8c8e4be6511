// Package chain composes named stage contracts into an ordered pipeline
// and statically verifies the schema flow through it: every key a stage
// reads must be produced, with a compatible type, by an earlier stage or
// the initial input, and every stage that depends on fitted state must
// have been fit first.
//
// The composer never executes a stage and never raises on inconsistency;
// it returns the full violation list, and an empty list is the sole
// "pipeline is consistent" signal. A check call is a pure fold over
// immutable contracts, so independent checks may run concurrently without
// coordination.
package chain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schemaflow/schemaflow/contract"
	"github.com/schemaflow/schemaflow/schema"
)

// Link is one named stage of a chain.
type Link struct {
	Name     string
	Contract *contract.Contract
}

// Chain is an ordered sequence of named stage contracts.
type Chain struct {
	links []Link
}

// New builds a chain. Names address per-stage parameters and diagnostics,
// so they must be non-empty, unique, and free of '/' (reserved for
// namespacing the state keys of nested chains).
func New(links ...Link) (*Chain, error) {
	if len(links) == 0 {
		return nil, fmt.Errorf("chain must have at least one stage")
	}
	seen := make(map[string]bool, len(links))
	for i, link := range links {
		if link.Name == "" {
			return nil, fmt.Errorf("stage %d: name must be non-empty", i)
		}
		if strings.Contains(link.Name, "/") {
			return nil, fmt.Errorf("stage %q: name must not contain '/'", link.Name)
		}
		if link.Contract == nil {
			return nil, fmt.Errorf("stage %q: contract is required", link.Name)
		}
		if seen[link.Name] {
			return nil, fmt.Errorf("duplicate stage name %q", link.Name)
		}
		seen[link.Name] = true
	}
	out := &Chain{links: make([]Link, len(links))}
	copy(out.links, links)
	return out, nil
}

// MustNew is New panicking on error, for declaration sites in tests.
func MustNew(links ...Link) *Chain {
	c, err := New(links...)
	if err != nil {
		panic(err)
	}
	return c
}

// Links returns the links in order. The slice is a copy.
func (c *Chain) Links() []Link {
	out := make([]Link, len(c.links))
	copy(out, c.links)
	return out
}

// Names returns the stage names in order.
func (c *Chain) Names() []string {
	out := make([]string, len(c.links))
	for i, l := range c.links {
		out[i] = l.Name
	}
	return out
}

// CheckFit simulates the fit phase over concrete initial data and
// per-stage parameters (stage name to parameter mapping). The working
// schema starts from the observed keys and types of data and is folded
// through each stage's producedOrModified slot in order.
//
// A parameter mapping addressed to a name not in the chain yields an
// UnknownStage violation so typos surface in the same report.
func (c *Chain) CheckFit(data map[string]any, params map[string]map[string]any) []contract.Violation {
	if params == nil {
		params = map[string]map[string]any{}
	}
	run := newRun(c)
	run.fitPass(observedSchema(data), params)
	return run.violations
}

// CheckTransform simulates the transform phase over concrete initial
// data. No fit phase precedes it in this invocation, so every stage that
// declares fitted state yields a NotFitted violation; run Check to
// simulate fit followed by transform.
func (c *Chain) CheckTransform(data map[string]any) []contract.Violation {
	run := newRun(c)
	run.transformPass(observedSchema(data))
	return run.violations
}

// Check simulates the fit phase and then the transform phase in one
// invocation. Stages covered by the fit pass count as fitted during the
// transform pass.
func (c *Chain) Check(data map[string]any, params map[string]map[string]any) []contract.Violation {
	if params == nil {
		params = map[string]map[string]any{}
	}
	run := newRun(c)
	run.fitPass(observedSchema(data), params)
	run.transformPass(observedSchema(data))
	return run.violations
}

// CheckStatic verifies the whole chain against a declared initial input
// schema, before any stage executes and with no payload at all. Both
// phases are simulated; fit-phase coverage satisfies the transform-phase
// fitted precondition.
func (c *Chain) CheckStatic(input *schema.Schema) []contract.Violation {
	run := newRun(c)
	run.fitPass(input.Clone(), nil)
	run.transformPass(input.Clone())
	return run.violations
}

// run carries the ephemeral state of one check invocation: the violation
// list and the per-stage fitted flags set during the fit pass. It is
// created per call and discarded; nothing is shared between invocations.
type run struct {
	chain      *Chain
	fitted     map[string]bool
	violations []contract.Violation
}

func newRun(c *Chain) *run {
	return &run{chain: c, fitted: make(map[string]bool, len(c.links))}
}

func (r *run) collect(stage string, vs []contract.Violation) {
	for _, v := range vs {
		v.Stage = stage
		r.violations = append(r.violations, v)
	}
}

// fitPass folds the working schema through the chain checking each
// stage's fit requirements, and marks every simulated stage as fitted.
// Parameters are checked concretely when supplied. fittedState keys are
// never merged into the working schema; they are private to their stage.
func (r *run) fitPass(working *schema.Schema, params map[string]map[string]any) {
	for _, link := range r.chain.links {
		r.collect(link.Name, link.Contract.CheckStatic(working, contract.PhaseFit))
		if params != nil {
			r.collect(link.Name, checkParams(link.Contract, params[link.Name]))
		}
		r.fitted[link.Name] = true
		fold(working, link.Contract)
	}
	if params != nil {
		r.unknownStages(params)
	}
}

// transformPass folds the working schema through the chain checking each
// stage's transform requirements, gating the not-fitted precondition on
// the fitted flags of this run.
func (r *run) transformPass(working *schema.Schema) {
	for _, link := range r.chain.links {
		r.collect(link.Name, link.Contract.CheckStatic(working, contract.PhaseTransform))
		if !r.fitted[link.Name] && link.Contract.Stateful() {
			r.collect(link.Name, []contract.Violation{link.Contract.NotFittedViolation()})
		}
		fold(working, link.Contract)
	}
}

// fold merges a stage's produced/modified keys into the working schema.
// Later writers overwrite earlier ones: producedOrModified covers
// modification, so a stage changing a key's type in place is the normal
// case, not a conflict.
func fold(working *schema.Schema, c *contract.Contract) {
	for _, e := range c.ProducedOrModified().Entries() {
		working.Set(e.Key, e.Type)
	}
}

// checkParams runs the concrete parameter portion of a stage's fit check.
// Data requirements were already checked statically against the working
// schema.
func checkParams(c *contract.Contract, params map[string]any) []contract.Violation {
	return c.CheckFitParameters(params)
}

func (r *run) unknownStages(params map[string]map[string]any) {
	names := make(map[string]bool, len(r.chain.links))
	for _, l := range r.chain.links {
		names[l.Name] = true
	}
	var unknown []string
	for name := range params {
		if !names[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		r.violations = append(r.violations, contract.Violation{
			Stage:   name,
			Phase:   contract.PhaseFit,
			Kind:    contract.UnknownStage,
			Message: fmt.Sprintf("parameters address stage %q, which is not in the chain", name),
		})
	}
}

// observedSchema builds the initial working schema from the observed keys
// and types of a concrete payload.
func observedSchema(data map[string]any) *schema.Schema {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := schema.New()
	for _, k := range keys {
		s.Set(k, schema.Infer(data[k]))
	}
	return s
}
