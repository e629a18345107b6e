package crypto

import "github.com/ethereum/go-ethereum/common"

// Hasher is the hash strategy consumed by the exit tree. Implementations
// hash the concatenation of the given byte slices into a 32-byte digest.
type Hasher interface {
	Hash(data ...[]byte) common.Hash
}

// KeccakHasher is the production Hasher, backed by Keccak-256.
type KeccakHasher struct{}

// Hash implements Hasher.
func (KeccakHasher) Hash(data ...[]byte) common.Hash {
	return Keccak256Hash(data...)
}
