// Package confidential defines the opaque-blob capability boundary between
// the native engines and whatever confidentiality backend produces and
// verifies proofs. Engines store and gate on sealed bytes; they never encrypt,
// decrypt, or interpret them.
package confidential

import "obsidian/crypto"

// Sealer binds an opaque payload to the identity that supplied it. The
// returned bytes are stored verbatim; substituting a real confidential-compute
// or proof-verification backend means swapping this implementation, not
// touching any state machine.
type Sealer interface {
	Seal(owner crypto.Address, payload []byte) []byte
}

// PrefixSealer reproduces the reference placeholder: the owner's raw address
// bytes prepended to the payload. It provides no confidentiality and exists
// only to keep the sealed-blob shape of the wire format.
type PrefixSealer struct{}

// Seal implements the Sealer interface.
func (PrefixSealer) Seal(owner crypto.Address, payload []byte) []byte {
	raw := owner.Bytes()
	sealed := make([]byte, 0, len(raw)+len(payload))
	sealed = append(sealed, raw...)
	sealed = append(sealed, payload...)
	return sealed
}
