package chain

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"

	"github.com/schemaflow/schemaflow/contract"
	"github.com/schemaflow/schemaflow/schema"
)

// RequiredInput is the chain's net transform-time requirement: every key
// some stage reads at transform that no earlier stage produced. A key's
// type is the one required by the first stage that needs it.
func (c *Chain) RequiredInput() *schema.Schema {
	required := schema.New()
	working := schema.New()
	for _, link := range c.links {
		for _, e := range link.Contract.TransformRequires().Entries() {
			if !working.Has(e.Key) && !required.Has(e.Key) {
				required.Set(e.Key, e.Type)
			}
		}
		fold(working, link.Contract)
	}
	return required
}

// RequiredFitInput is the chain's net fit-time requirement. A stage with
// no fit requirements of its own still needs its transform requirements
// during a chain fit, because earlier stages transform the payload before
// later stages fit on it.
func (c *Chain) RequiredFitInput() *schema.Schema {
	required := schema.New()
	working := schema.New()
	for _, link := range c.links {
		stage := link.Contract.FitRequires()
		if stage.Len() == 0 {
			stage = link.Contract.TransformRequires()
		}
		for _, e := range stage.Entries() {
			if !working.Has(e.Key) && !required.Has(e.Key) {
				required.Set(e.Key, e.Type)
			}
		}
		fold(working, link.Contract)
	}
	return required
}

// ProducedOutput is the chain's net production: the final working-schema
// delta versus the initial input, which is every key written by some
// stage, at the type its last writer gave it.
func (c *Chain) ProducedOutput() *schema.Schema {
	working := schema.New()
	for _, link := range c.links {
		fold(working, link.Contract)
	}
	return working
}

// Contract derives the chain's own stage contract, so a chain can be
// nested as one stage inside a larger chain. Fit parameters and fitted
// state of the member stages are namespaced as "stage/key"; the derived
// contract is stateful exactly when any member stage is.
func (c *Chain) Contract() (*contract.Contract, error) {
	params := schema.New()
	state := schema.New()
	for _, link := range c.links {
		for _, e := range link.Contract.FitParameters().Entries() {
			params.Set(link.Name+"/"+e.Key, e.Type)
		}
		for _, e := range link.Contract.FittedState().Entries() {
			state.Set(link.Name+"/"+e.Key, e.Type)
		}
	}
	return contract.New(contract.Spec{
		FitRequires:        c.RequiredFitInput(),
		TransformRequires:  c.RequiredInput(),
		FitParameters:      params,
		FittedState:        state,
		ProducedOrModified: c.ProducedOutput(),
	})
}

// Domain prefix for chain fingerprints.
const fingerprintDomain = "schemaflow/chain/v1"

// Fingerprint returns a content hash of the chain declaration: the
// ordered stage names and their contract fingerprints. Stored check
// reports carry it so later readers can tell whether the declaration
// drifted since the report was written.
func (c *Chain) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00})
	for _, link := range c.links {
		h.Write([]byte(norm.NFC.String(link.Name)))
		h.Write([]byte{0x1f})
		h.Write([]byte(contract.Fingerprint(link.Contract)))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}
