package contract

import (
	"fmt"
	"strings"

	"github.com/schemaflow/schemaflow/schema"
)

// Kind categorizes a violation.
type Kind string

const (
	// MissingKey means a declared key is absent from the observed data or
	// upstream schema.
	MissingKey Kind = "MISSING_KEY"

	// TypeMismatch means the key is present but its base type disagrees.
	TypeMismatch Kind = "TYPE_MISMATCH"

	// ShapeMismatch means both sides are arrays of the same element kind
	// but the rank or a fixed dimension disagrees.
	ShapeMismatch Kind = "SHAPE_MISMATCH"

	// NotFitted means a transform-phase check ran for a stage whose
	// fit-state precondition was not satisfied.
	NotFitted Kind = "NOT_FITTED"

	// UnexpectedKey means a supplied fit parameter is not declared by the
	// stage's parameter schema.
	UnexpectedKey Kind = "UNEXPECTED_KEY"

	// UnknownStage means a per-stage parameter mapping addresses a stage
	// name that is not part of the chain.
	UnknownStage Kind = "UNKNOWN_STAGE"
)

// Phase names the stage lifecycle phase a check belongs to.
type Phase string

const (
	PhaseFit       Phase = "fit"
	PhaseTransform Phase = "transform"
)

// Violation is one point of inconsistency between a declared contract and
// an observed payload or upstream-declared schema. Violations are data:
// they are accumulated and returned, never used as control flow.
type Violation struct {
	// Stage names the offending stage. Empty for a bare stage-level check;
	// the chain composer fills it in.
	Stage string `json:"stage,omitempty"`

	// Phase is the lifecycle phase the check belonged to.
	Phase Phase `json:"phase"`

	// Key is the offending schema key. Empty for stage-level violations
	// such as NotFitted.
	Key string `json:"key,omitempty"`

	Kind Kind `json:"kind"`

	// Expected is the declared type, when the violation concerns one key.
	Expected schema.Type `json:"-"`

	// Observed is the observed type, when one was available.
	Observed schema.Type `json:"-"`

	Message string `json:"message"`
}

// String renders the violation for diagnostics:
//
//	[TYPE_MISMATCH] scale/fit key "x": expected array[float, (?, ?)], observed float
func (v Violation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", v.Kind)
	if v.Stage != "" {
		fmt.Fprintf(&b, " %s/%s", v.Stage, v.Phase)
	} else {
		fmt.Fprintf(&b, " %s", v.Phase)
	}
	if v.Key != "" {
		fmt.Fprintf(&b, " key %q", v.Key)
	}
	fmt.Fprintf(&b, ": %s", v.Message)
	return b.String()
}

func missingKey(phase Phase, key string, declared schema.Type) Violation {
	return Violation{
		Phase:    phase,
		Key:      key,
		Kind:     MissingKey,
		Expected: declared,
		Message:  fmt.Sprintf("required key %q (%s) is absent", key, declared),
	}
}

func mismatch(phase Phase, key string, declared, observed schema.Type) Violation {
	kind := TypeMismatch
	if schema.Classify(declared, observed) == schema.MatchWrongShape {
		kind = ShapeMismatch
	}
	observedText := "an undeterminable type"
	if observed != nil {
		observedText = observed.String()
	}
	return Violation{
		Phase:    phase,
		Key:      key,
		Kind:     kind,
		Expected: declared,
		Observed: observed,
		Message:  fmt.Sprintf("expected %s, observed %s", declared, observedText),
	}
}

func unexpectedKey(phase Phase, key string, observed schema.Type) Violation {
	return Violation{
		Phase:    phase,
		Key:      key,
		Kind:     UnexpectedKey,
		Observed: observed,
		Message:  fmt.Sprintf("parameter %q is not declared by the stage", key),
	}
}

func notFitted(stateKeys []string) Violation {
	return Violation{
		Phase:   PhaseTransform,
		Kind:    NotFitted,
		Message: fmt.Sprintf("stage must be fit before transform (fitted state: %s)", strings.Join(stateKeys, ", ")),
	}
}
