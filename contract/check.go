package contract

import (
	"sort"

	"github.com/schemaflow/schemaflow/schema"
)

// CheckFit compares concrete fit-time data and parameters against the
// contract. Payload values may be real values (their type is inferred) or
// schema.Type descriptors (used as-is). The check is exhaustive: every
// violation found is returned, never just the first. The contract's
// transformation logic is never invoked.
//
// Extra data keys are allowed (a payload legitimately carries keys this
// stage does not consume); extra parameter keys are not, because the
// parameter mapping is addressed to this stage alone.
func (c *Contract) CheckFit(data map[string]any, params map[string]any) []Violation {
	ck := &checker{phase: PhaseFit}
	ck.requireData(c.fitRequires, data)
	ck.requireParams(c.fitParameters, params)
	return ck.out
}

// CheckTransform compares concrete transform-time data against the
// contract. When fitted is false and the stage declares fitted state, a
// single NotFitted violation is emitted regardless of the data; stages
// with no fitted state are exempt.
func (c *Contract) CheckTransform(data map[string]any, fitted bool) []Violation {
	ck := &checker{phase: PhaseTransform}
	if !fitted && c.Stateful() {
		ck.add(notFitted(c.fittedState.Keys()))
	}
	ck.requireData(c.transformRequires, data)
	return ck.out
}

// CheckFitParameters checks only the parameter portion of the fit
// contract. The chain composer uses it when the data side is checked
// statically against an upstream schema but parameters are concrete.
func (c *Contract) CheckFitParameters(params map[string]any) []Violation {
	ck := &checker{phase: PhaseFit}
	ck.requireParams(c.fitParameters, params)
	return ck.out
}

// NotFittedViolation returns the violation emitted when a stateful
// stage's transform precondition is unsatisfied.
func (c *Contract) NotFittedViolation() Violation {
	return notFitted(c.fittedState.Keys())
}

// CheckStatic is the data-free variant used during chain composition: it
// compares a declared upstream schema against the phase's required schema
// with the same compatibility predicate, no payload involved.
func (c *Contract) CheckStatic(incoming *schema.Schema, phase Phase) []Violation {
	required := c.transformRequires
	if phase == PhaseFit {
		required = c.fitRequires
	}
	ck := &checker{phase: phase}
	for _, e := range required.Entries() {
		if !incoming.Has(e.Key) {
			ck.add(missingKey(phase, e.Key, e.Type))
			continue
		}
		if observed := incoming.Get(e.Key); !schema.Compatible(e.Type, observed) {
			ck.add(mismatch(phase, e.Key, e.Type, observed))
		}
	}
	return ck.out
}

// checker accumulates violations during one check call.
type checker struct {
	phase Phase
	out   []Violation
}

func (ck *checker) add(v Violation) {
	ck.out = append(ck.out, v)
}

func (ck *checker) requireData(required *schema.Schema, data map[string]any) {
	for _, e := range required.Entries() {
		value, ok := data[e.Key]
		if !ok {
			ck.add(missingKey(ck.phase, e.Key, e.Type))
			continue
		}
		observed := schema.Infer(value)
		if observed == nil || !schema.Compatible(e.Type, observed) {
			ck.add(mismatch(ck.phase, e.Key, e.Type, observed))
		}
	}
}

func (ck *checker) requireParams(declared *schema.Schema, params map[string]any) {
	ck.requireData(declared, params)

	// Undeclared parameters surface too; sorted for deterministic reports.
	extras := make([]string, 0, len(params))
	for key := range params {
		if !declared.Has(key) {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		ck.add(unexpectedKey(ck.phase, key, schema.Infer(params[key])))
	}
}
