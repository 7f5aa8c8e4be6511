// Package contract declares the per-stage schema contract and the checkers
// that compare it against concrete payloads or upstream-declared schemas.
//
// A contract is immutable once constructed. Construction is the single
// hard-failure path: a malformed contract (an invalid type descriptor in
// any slot) cannot be meaningfully checked against anything, so New
// rejects it with a MalformedError. Every inconsistency found after
// construction is collected as a Violation value, never raised.
package contract

import (
	"fmt"
	"strings"

	"github.com/schemaflow/schemaflow/schema"
)

// Malformed-contract problem codes (E100-E199).
const (
	CodeNilType       = "E101" // slot entry has no type
	CodeInvalidType   = "E102" // type descriptor failed validation
	CodeReservedState = "E103" // fitted-state key also declared as produced
)

// Problem is one defect found in a contract declaration.
type Problem struct {
	Slot    string `json:"slot"`
	Key     string `json:"key"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("[%s] %s.%s: %s", p.Code, p.Slot, p.Key, p.Message)
}

// MalformedError is the hard failure returned when a contract declares an
// invalid type descriptor. It carries every problem found, not just the
// first.
type MalformedError struct {
	Problems []Problem
}

func (e *MalformedError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return fmt.Sprintf("malformed contract: %s", strings.Join(msgs, "; "))
}

// Spec enumerates the five schema slots of a stage contract. Omitted slots
// default to empty.
type Spec struct {
	// FitRequires is the data schema the stage reads during fit.
	FitRequires *schema.Schema

	// TransformRequires is the data schema the stage reads during transform.
	TransformRequires *schema.Schema

	// FitParameters is the schema of parameters passed to fit.
	FitParameters *schema.Schema

	// FittedState is the schema of internal state computed by fit. Its keys
	// are private to the stage: they are never visible to downstream stages
	// and exist solely to gate the stage's own not-fitted precondition.
	FittedState *schema.Schema

	// ProducedOrModified is the schema of keys the stage writes into the
	// payload during transform.
	ProducedOrModified *schema.Schema
}

// Contract is an immutable five-slot stage contract.
type Contract struct {
	fitRequires        *schema.Schema
	transformRequires  *schema.Schema
	fitParameters      *schema.Schema
	fittedState        *schema.Schema
	producedOrModified *schema.Schema
}

// New validates the spec and builds a contract. The input schemas are
// copied; later mutation of the spec does not affect the contract.
func New(spec Spec) (*Contract, error) {
	var problems []Problem

	slots := []struct {
		name string
		s    *schema.Schema
	}{
		{"fitRequires", spec.FitRequires},
		{"transformRequires", spec.TransformRequires},
		{"fitParameters", spec.FitParameters},
		{"fittedState", spec.FittedState},
		{"producedOrModified", spec.ProducedOrModified},
	}
	for _, slot := range slots {
		for _, e := range slot.s.Entries() {
			if e.Type == nil {
				problems = append(problems, Problem{
					Slot:    slot.name,
					Key:     e.Key,
					Code:    CodeNilType,
					Message: "type is required",
				})
				continue
			}
			if err := schema.Validate(e.Type); err != nil {
				problems = append(problems, Problem{
					Slot:    slot.name,
					Key:     e.Key,
					Code:    CodeInvalidType,
					Message: err.Error(),
				})
			}
		}
	}

	// Fitted state is stage-private; a key cannot be both private state and
	// a produced payload key.
	for _, key := range spec.FittedState.Keys() {
		if spec.ProducedOrModified.Has(key) {
			problems = append(problems, Problem{
				Slot:    "fittedState",
				Key:     key,
				Code:    CodeReservedState,
				Message: "fitted-state key also declared in producedOrModified",
			})
		}
	}

	if len(problems) > 0 {
		return nil, &MalformedError{Problems: problems}
	}

	return &Contract{
		fitRequires:        spec.FitRequires.Clone(),
		transformRequires:  spec.TransformRequires.Clone(),
		fitParameters:      spec.FitParameters.Clone(),
		fittedState:        spec.FittedState.Clone(),
		producedOrModified: spec.ProducedOrModified.Clone(),
	}, nil
}

// MustNew is New panicking on error, for declaration sites in tests.
func MustNew(spec Spec) *Contract {
	c, err := New(spec)
	if err != nil {
		panic(err)
	}
	return c
}

// FitRequires returns a copy of the fit-time data schema.
func (c *Contract) FitRequires() *schema.Schema { return c.fitRequires.Clone() }

// TransformRequires returns a copy of the transform-time data schema.
func (c *Contract) TransformRequires() *schema.Schema { return c.transformRequires.Clone() }

// FitParameters returns a copy of the fit parameter schema.
func (c *Contract) FitParameters() *schema.Schema { return c.fitParameters.Clone() }

// FittedState returns a copy of the stage-private fitted-state schema.
func (c *Contract) FittedState() *schema.Schema { return c.fittedState.Clone() }

// ProducedOrModified returns a copy of the produced/modified schema.
func (c *Contract) ProducedOrModified() *schema.Schema { return c.producedOrModified.Clone() }

// Stateful reports whether the stage depends on fitted internal state.
// Stateless stages are exempt from the not-fitted precondition.
func (c *Contract) Stateful() bool { return c.fittedState.Len() > 0 }
