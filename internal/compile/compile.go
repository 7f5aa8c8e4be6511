// Package compile turns CUE declaration files into checkable chains.
//
// A declaration file names chains under the top-level "chain" field; each
// chain declares an input schema and an ordered stage list whose five
// schema slots map key names to type expressions:
//
//	chain: lasso: {
//		input: {
//			x: "array[float, (?, ?)]"
//			y: "sequence[float]"
//		}
//		stages: [
//			{
//				name: "model"
//				fitRequires: {x: "array[float, (?, ?)]", y: "sequence[float]"}
//				fitParameters: alpha: "float"
//				fittedState: model: "opaque[Model]"
//				producedOrModified: y_hat: "sequence[float]"
//			},
//		]
//	}
package compile

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/schemaflow/schemaflow/chain"
	"github.com/schemaflow/schemaflow/contract"
	"github.com/schemaflow/schemaflow/schema"
)

// StageDecl is the declaration form of one stage. Slot maps go from key
// name to a type expression in the schema.Parse grammar.
type StageDecl struct {
	Name               string            `json:"name"`
	FitRequires        map[string]string `json:"fitRequires"`
	TransformRequires  map[string]string `json:"transformRequires"`
	FitParameters      map[string]string `json:"fitParameters"`
	FittedState        map[string]string `json:"fittedState"`
	ProducedOrModified map[string]string `json:"producedOrModified"`
}

// ChainDecl is the declaration form of one chain.
type ChainDecl struct {
	Input  map[string]string `json:"input"`
	Stages []StageDecl       `json:"stages"`
}

// CompiledChain is a declaration turned into checkable form.
type CompiledChain struct {
	Name        string
	Input       *schema.Schema
	Pipeline    *chain.Chain
	Fingerprint string
}

// CompileError is a defect in a declaration, with the CUE source position
// when one is available.
type CompileError struct {
	Chain   string
	Path    string // "stages[1].fitParameters.alpha" style
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: chain %q: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Chain, e.Path, e.Message)
	}
	return fmt.Sprintf("chain %q: %s: %s", e.Chain, e.Path, e.Message)
}

// CompileChain decodes and compiles one chain declaration. The CUE value
// is the chain struct itself; name is its label.
func CompileChain(name string, v cue.Value) (*CompiledChain, error) {
	if err := v.Err(); err != nil {
		return nil, &CompileError{Chain: name, Path: "chain", Message: err.Error(), Pos: v.Pos()}
	}

	var decl ChainDecl
	if err := v.Decode(&decl); err != nil {
		return nil, &CompileError{Chain: name, Path: "chain", Message: err.Error(), Pos: v.Pos()}
	}

	return Build(name, decl, v.Pos())
}

// Build compiles an already-decoded declaration. Split from CompileChain
// so declarations can also come from plain Go values (the test harness
// decodes them from YAML).
func Build(name string, decl ChainDecl, pos token.Pos) (*CompiledChain, error) {
	if len(decl.Stages) == 0 {
		return nil, &CompileError{Chain: name, Path: "stages", Message: "at least one stage is required", Pos: pos}
	}

	input, err := buildSchema(name, "input", decl.Input, pos)
	if err != nil {
		return nil, err
	}

	links := make([]chain.Link, 0, len(decl.Stages))
	for i, stage := range decl.Stages {
		if stage.Name == "" {
			return nil, &CompileError{
				Chain:   name,
				Path:    fmt.Sprintf("stages[%d].name", i),
				Message: "stage name is required",
				Pos:     pos,
			}
		}

		spec := contract.Spec{}
		slots := []struct {
			path  string
			decl  map[string]string
			field **schema.Schema
		}{
			{"fitRequires", stage.FitRequires, &spec.FitRequires},
			{"transformRequires", stage.TransformRequires, &spec.TransformRequires},
			{"fitParameters", stage.FitParameters, &spec.FitParameters},
			{"fittedState", stage.FittedState, &spec.FittedState},
			{"producedOrModified", stage.ProducedOrModified, &spec.ProducedOrModified},
		}
		for _, slot := range slots {
			s, err := buildSchema(name, fmt.Sprintf("stages[%d].%s", i, slot.path), slot.decl, pos)
			if err != nil {
				return nil, err
			}
			*slot.field = s
		}

		c, err := contract.New(spec)
		if err != nil {
			return nil, &CompileError{
				Chain:   name,
				Path:    fmt.Sprintf("stages[%d]", i),
				Message: err.Error(),
				Pos:     pos,
			}
		}
		links = append(links, chain.Link{Name: stage.Name, Contract: c})
	}

	pipeline, err := chain.New(links...)
	if err != nil {
		return nil, &CompileError{Chain: name, Path: "stages", Message: err.Error(), Pos: pos}
	}

	return &CompiledChain{
		Name:        name,
		Input:       input,
		Pipeline:    pipeline,
		Fingerprint: pipeline.Fingerprint(),
	}, nil
}

// buildSchema parses a slot's key -> type-expression map. Keys are sorted
// for a deterministic schema order; declaration order inside a map is not
// semantically significant.
func buildSchema(chainName, path string, decl map[string]string, pos token.Pos) (*schema.Schema, error) {
	keys := make([]string, 0, len(decl))
	for k := range decl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := schema.New()
	for _, key := range keys {
		t, err := schema.Parse(decl[key])
		if err != nil {
			return nil, &CompileError{
				Chain:   chainName,
				Path:    path + "." + key,
				Message: err.Error(),
				Pos:     pos,
			}
		}
		s.Set(key, t)
	}
	return s, nil
}
