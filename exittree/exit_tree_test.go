package exittree

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/bridgeproof/crypto"
)

// naiveRoot recomputes the root layer by layer from the raw leaves, padding
// each layer with the empty-subtree digest for its height. Used as an
// independent check on the frontier logic.
func naiveRoot(leaves []common.Hash) common.Hash {
	var zero common.Hash
	layer := append([]common.Hash{}, leaves...)

	for level := 0; level < TreeDepth; level++ {
		if len(layer)%2 != 0 {
			layer = append(layer, zero)
		}
		next := make([]common.Hash, 0, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			next = append(next, crypto.Keccak256Hash(layer[i][:], layer[i+1][:]))
		}
		if len(next) == 0 {
			next = append(next, crypto.Keccak256Hash(zero[:], zero[:]))
		}
		layer = next
		zero = crypto.Keccak256Hash(zero[:], zero[:])
	}
	return layer[0]
}

func TestEmptyRoot(t *testing.T) {
	tree := NewKeccak()

	if got, want := tree.Root(), naiveRoot(nil); got != want {
		t.Errorf("empty root: got %s, want %s", got.Hex(), want.Hex())
	}
	if tree.Root() != EmptyRoot() {
		t.Error("EmptyRoot does not match a fresh tree's root")
	}
	if tree.LeafCount() != 0 {
		t.Errorf("leaf count: got %d, want 0", tree.LeafCount())
	}
}

func TestAppendMatchesNaiveRoot(t *testing.T) {
	tree := NewKeccak()

	var leaves []common.Hash
	for i := 0; i < 9; i++ {
		leaf := crypto.Keccak256Hash([]byte{byte(i)})
		leaves = append(leaves, leaf)

		if err := tree.Append(leaf); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
		if got, want := tree.Root(), naiveRoot(leaves); got != want {
			t.Fatalf("root after %d leaves: got %s, want %s", i+1, got.Hex(), want.Hex())
		}
	}

	if tree.LeafCount() != 9 {
		t.Errorf("leaf count: got %d, want 9", tree.LeafCount())
	}
}

func TestRootContinuity(t *testing.T) {
	// Appending leaves one by one with intermediate Root calls must end at
	// the same root as appending them without.
	leaves := make([]common.Hash, 6)
	for i := range leaves {
		leaves[i] = crypto.Keccak256Hash([]byte("leaf"), []byte{byte(i)})
	}

	stepwise := NewKeccak()
	for _, leaf := range leaves {
		if err := stepwise.Append(leaf); err != nil {
			t.Fatalf("Append: %v", err)
		}
		stepwise.Root()
	}

	batch := NewKeccak()
	for _, leaf := range leaves {
		if err := batch.Append(leaf); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if stepwise.Root() != batch.Root() {
		t.Errorf("stepwise root %s != batch root %s", stepwise.Root().Hex(), batch.Root().Hex())
	}
}

func TestAppendAtCapacity(t *testing.T) {
	// The frontier records the filled left sibling at levels 0..31 only, so
	// the last representable leaf count is 2^32 - 1. Appending 2^32 leaves
	// is infeasible; drive the counter to the boundary directly.
	tree := NewKeccak()
	tree.leafCount = maxLeaves - 1

	// The last admissible leaf must still be recorded in the frontier.
	leaf := crypto.Keccak256Hash([]byte("last"))
	if err := tree.Append(leaf); err != nil {
		t.Fatalf("Append at leafCount=maxLeaves-1: %v", err)
	}
	if tree.leafCount != maxLeaves {
		t.Fatalf("leaf count: got %d, want %d", tree.leafCount, maxLeaves)
	}
	// maxLeaves is odd, so the append lands at frontier level 0.
	if tree.frontier[0] != leaf {
		t.Error("last leaf was not recorded in the frontier")
	}

	// One more must be rejected, and must not change the root.
	before := tree.Root()
	if err := tree.Append(crypto.Keccak256Hash([]byte("overflow"))); err != ErrTreeFull {
		t.Errorf("expected ErrTreeFull, got %v", err)
	}
	if tree.Root() != before {
		t.Error("rejected append changed the root")
	}
	if tree.leafCount != maxLeaves {
		t.Errorf("rejected append changed the leaf count to %d", tree.leafCount)
	}
}

func TestCloneIndependence(t *testing.T) {
	original := NewKeccak()
	if err := original.Append(crypto.Keccak256Hash([]byte("a"))); err != nil {
		t.Fatalf("Append: %v", err)
	}
	before := original.Root()

	cp := original.Clone()
	if cp.Root() != before {
		t.Fatal("clone root differs from original")
	}

	if err := cp.Append(crypto.Keccak256Hash([]byte("b"))); err != nil {
		t.Fatalf("Append on clone: %v", err)
	}

	if original.Root() != before {
		t.Error("appending to the clone mutated the original")
	}
	if cp.Root() == before {
		t.Error("append on clone did not change its root")
	}
	if original.LeafCount() != 1 || cp.LeafCount() != 2 {
		t.Errorf("leaf counts: original %d, clone %d", original.LeafCount(), cp.LeafCount())
	}
}
