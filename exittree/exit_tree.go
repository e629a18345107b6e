// Package exittree implements the per-network local exit tree: an
// append-only Merkle accumulator over withdrawal leaf hashes. The tree has a
// fixed depth of 32, supporting up to 2^32 leaves; open positions are padded
// with a precomputed chain of empty-subtree digests.
//
// Only the frontier is kept (the filled left sibling needed at each level
// for future inserts), so appends and root computation are O(depth) and a
// tree copies by value: Clone yields a fully independent accumulator.
package exittree

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/bridgeproof/crypto"
)

// TreeDepth is the fixed depth of a local exit tree.
const TreeDepth = 32

// maxLeaves is the leaf capacity: 2^32 - 1. The frontier tracks the filled
// left sibling at levels 0..31 only, so the 2^32-th leaf has no slot to be
// recorded in and must be rejected (the deposit-contract convention).
const maxLeaves = uint64(1)<<TreeDepth - 1

// ErrTreeFull is returned when appending to a tree that already holds its
// full 2^32 - 1 leaves.
var ErrTreeFull = errors.New("exittree: tree is full")

// keccakEmptyRoot caches the empty-tree root under the production hasher.
var keccakEmptyRoot = NewKeccak().Root()

// EmptyRoot returns the root of an empty Keccak-256 local exit tree.
func EmptyRoot() common.Hash { return keccakEmptyRoot }

// LocalExitTree accumulates the withdrawal leaf hashes one network has ever
// emitted. The zero value is unusable; create trees with New or NewKeccak.
type LocalExitTree struct {
	hasher    crypto.Hasher
	zeroes    [TreeDepth]common.Hash
	frontier  [TreeDepth]common.Hash
	leafCount uint64
}

// New creates an empty LocalExitTree using the given hash strategy.
func New(hasher crypto.Hasher) *LocalExitTree {
	t := &LocalExitTree{hasher: hasher}

	// zeroes[i] is the digest of an empty subtree of height i; the empty
	// leaf is 32 zero bytes.
	var z common.Hash
	for i := 0; i < TreeDepth; i++ {
		t.zeroes[i] = z
		z = hasher.Hash(z[:], z[:])
	}
	return t
}

// NewKeccak creates an empty LocalExitTree with the production Keccak-256
// strategy.
func NewKeccak() *LocalExitTree {
	return New(crypto.KeccakHasher{})
}

// Clone returns an independent copy of the tree. Mutating the copy never
// affects the original.
func (t *LocalExitTree) Clone() *LocalExitTree {
	cp := *t
	return &cp
}

// LeafCount returns the number of leaves appended so far.
func (t *LocalExitTree) LeafCount() uint64 { return t.leafCount }

// Append inserts a leaf hash at the next free position and updates the
// frontier.
func (t *LocalExitTree) Append(leaf common.Hash) error {
	if t.leafCount >= maxLeaves {
		return ErrTreeFull
	}
	t.leafCount++

	node := leaf
	size := t.leafCount
	for level := 0; level < TreeDepth; level++ {
		if size&1 == 1 {
			t.frontier[level] = node
			return nil
		}
		node = t.hasher.Hash(t.frontier[level][:], node[:])
		size >>= 1
	}

	// Unreachable: size <= maxLeaves has a set bit below TreeDepth, so the
	// loop always stores the node.
	return nil
}

// Root computes the current Merkle root, padding open positions with the
// empty-subtree chain.
func (t *LocalExitTree) Root() common.Hash {
	var node common.Hash
	size := t.leafCount
	for level := 0; level < TreeDepth; level++ {
		if size&1 == 1 {
			node = t.hasher.Hash(t.frontier[level][:], node[:])
		} else {
			node = t.hasher.Hash(node[:], t.zeroes[level][:])
		}
		size >>= 1
	}
	return node
}
