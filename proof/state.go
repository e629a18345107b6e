// Package proof implements the pessimistic-proof state transition: applying
// per-network withdrawal certificates onto the global bridge state and
// producing the exit-root and balance-root commitments, while proving that
// no network withdraws more of any token than it has received.
package proof

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/bridgeproof/bridge"
	"github.com/eth2030/bridgeproof/exittree"
)

// State is the durable checkpoint a proof run evolves: one local exit tree
// and one balance ledger per network. A State is owned by a single run; use
// Clone to obtain a private working copy.
type State struct {
	exitTrees map[bridge.NetworkID]*exittree.LocalExitTree
	ledgers   *bridge.LedgerByNetwork
}

// NewState returns an empty prior state: no network has emitted a
// withdrawal and every ledger is empty.
func NewState() *State {
	return &State{
		exitTrees: make(map[bridge.NetworkID]*exittree.LocalExitTree),
		ledgers:   bridge.NewLedgerByNetwork(),
	}
}

// Clone returns a deep copy. The copy and the original share no mutable
// state.
func (s *State) Clone() *State {
	cp := &State{
		exitTrees: make(map[bridge.NetworkID]*exittree.LocalExitTree, len(s.exitTrees)),
		ledgers:   s.ledgers.Clone(),
	}
	for network, tree := range s.exitTrees {
		cp.exitTrees[network] = tree.Clone()
	}
	return cp
}

// ExitRoot returns the network's current exit root. Networks that never
// emitted a withdrawal report the empty-tree root.
func (s *State) ExitRoot(network bridge.NetworkID) common.Hash {
	if tree, ok := s.exitTrees[network]; ok {
		return tree.Root()
	}
	return exittree.EmptyRoot()
}

// Balances returns a copy of the network's balance ledger and whether one
// exists.
func (s *State) Balances(network bridge.NetworkID) (*bridge.BalanceLedger, bool) {
	ledger, ok := s.ledgers.Ledger(network)
	if !ok {
		return nil, false
	}
	return ledger.Clone(), true
}

// Checkpoint is the public commitment pair a verifier checks against: the
// exit root and the balance-ledger root of every network.
type Checkpoint struct {
	// ExitRoots maps each network that emitted withdrawals to its local
	// exit tree root.
	ExitRoots map[bridge.NetworkID]common.Hash

	// BalanceRoots maps each network with ledger activity to its balance
	// commitment.
	BalanceRoots map[bridge.NetworkID]common.Hash
}

// Checkpoint derives the commitment pair from the current state.
func (s *State) Checkpoint() *Checkpoint {
	cp := &Checkpoint{
		ExitRoots:    make(map[bridge.NetworkID]common.Hash, len(s.exitTrees)),
		BalanceRoots: make(map[bridge.NetworkID]common.Hash, s.ledgers.Len()),
	}
	for network, tree := range s.exitTrees {
		cp.ExitRoots[network] = tree.Root()
	}
	for _, network := range s.ledgers.Networks() {
		ledger, _ := s.ledgers.Ledger(network)
		cp.BalanceRoots[network] = ledger.Hash()
	}
	return cp
}

// ApplyCertificate validates the certificate against the current state and,
// on success, commits its withdrawals to the origin network's exit tree and
// to the balance ledgers, returning the new exit root. The origin network's
// debt is checked as under the Local policy.
//
// Application is atomic: every mutation happens on private copies that are
// promoted only after all checks pass, so on error the state is exactly as
// it was.
func (s *State) ApplyCertificate(cert *bridge.Certificate) (common.Hash, error) {
	return s.applyCertificate(cert, true)
}

func (s *State) applyCertificate(cert *bridge.Certificate, checkDebt bool) (common.Hash, error) {
	var tree *exittree.LocalExitTree
	if current, ok := s.exitTrees[cert.OriginNetwork]; ok {
		tree = current.Clone()
	} else {
		// First certificate from this network: it must chain from the
		// empty tree.
		tree = exittree.NewKeccak()
	}

	got := tree.Root()
	if got != cert.PrevLocalExitRoot {
		return common.Hash{}, &InvalidLocalExitRootError{Got: got, Expected: cert.PrevLocalExitRoot}
	}

	for _, w := range cert.Withdrawals {
		if err := tree.Append(w.Hash()); err != nil {
			return common.Hash{}, err
		}
	}

	ledgers := s.ledgers.Clone()
	for _, w := range cert.Withdrawals {
		if err := ledgers.Insert(cert.OriginNetwork, w); err != nil {
			return common.Hash{}, err
		}
	}

	if checkDebt {
		if ledger, ok := ledgers.Ledger(cert.OriginNetwork); ok && ledger.HasDebt() {
			return common.Hash{}, &HasDebtError{Network: cert.OriginNetwork}
		}
	}

	s.exitTrees[cert.OriginNetwork] = tree
	s.ledgers = ledgers
	return tree.Root(), nil
}
