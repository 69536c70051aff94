// Package statehash provides the Keccak256 hashing and Merkle-reduction
// helpers shared by the event log and any future state-checksum consumer.
// Adapted from the teacher's chain/types/address.go (Keccak256 via
// golang.org/x/crypto/sha3) and chain/types/block.go (calculateMerkleRoot).
package statehash

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Length is the byte length of a Hash.
const Length = 32

// Hash is a 32-byte Keccak256 digest.
type Hash [Length]byte

// Zero is the empty hash.
var Zero = Hash{}

// Keccak256 computes the Keccak256 digest of data.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// Sum computes the Keccak256 digest of data as a Hash.
func Sum(data []byte) Hash {
	var out Hash
	copy(out[:], Keccak256(data))
	return out
}

// Bytes returns h as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed hex representation of h.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Zero }

// MerkleReduce folds a list of leaf hashes into a single root by repeated
// pairwise Keccak256 hashing, duplicating the final element on odd-length
// levels. Deterministic given the input order — callers must present
// leaves in a stable, spec-defined order (e.g. event emission order).
func MerkleReduce(leaves []Hash) Hash {
	if len(leaves) == 0 {
		return Zero
	}
	level := leaves
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				combined := append(append([]byte{}, level[i].Bytes()...), level[i+1].Bytes()...)
				next = append(next, Sum(combined))
			} else {
				combined := append(append([]byte{}, level[i].Bytes()...), level[i].Bytes()...)
				next = append(next, Sum(combined))
			}
		}
		level = next
	}
	return level[0]
}
