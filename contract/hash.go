package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/schemaflow/schemaflow/schema"
)

// Domain prefix for contract fingerprints. The version suffix allows a
// future canonical-form change without colliding with old fingerprints.
const fingerprintDomain = "schemaflow/contract/v1"

// Fingerprint returns a content hash of the contract's declaration.
//
// The canonical form sorts keys within each slot (iteration order is not
// semantically significant) and NFC-normalizes key names and type
// renderings, so two declarations that mean the same thing hash the same
// regardless of declaration order or Unicode representation.
func Fingerprint(c *Contract) string {
	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00})
	writeSlot(h, "fitRequires", c.fitRequires)
	writeSlot(h, "transformRequires", c.transformRequires)
	writeSlot(h, "fitParameters", c.fitParameters)
	writeSlot(h, "fittedState", c.fittedState)
	writeSlot(h, "producedOrModified", c.producedOrModified)
	return hex.EncodeToString(h.Sum(nil))
}

func writeSlot(h hash.Hash, name string, s *schema.Schema) {
	h.Write([]byte(name))
	h.Write([]byte{0x00})

	keys := s.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		h.Write([]byte(norm.NFC.String(key)))
		h.Write([]byte{0x1f})
		h.Write([]byte(norm.NFC.String(s.Get(key).String())))
		h.Write([]byte{0x1e})
	}
	h.Write([]byte{0x00})
}
