package proof

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/bridgeproof/bridge"
)

// InvalidLocalExitRootError rejects a certificate whose declared previous
// exit root does not match the root recomputed from the committed state.
// Nothing is mutated; the caller must resupply a corrected certificate or
// resync.
type InvalidLocalExitRootError struct {
	// Got is the root recomputed from the current accumulator.
	Got common.Hash

	// Expected is the root the certificate declared.
	Expected common.Hash
}

// Error implements the error interface.
func (e *InvalidLocalExitRootError) Error() string {
	return fmt.Sprintf("proof: invalid local exit root: got %s, expected %s", e.Got, e.Expected)
}

// HasDebtError marks a network whose own ledger would be insolvent after
// its certificates are applied (Local policy).
type HasDebtError struct {
	Network bridge.NetworkID
}

// Error implements the error interface.
func (e *HasDebtError) Error() string {
	return fmt.Sprintf("proof: network %d has debt", e.Network)
}

// NotEnoughBalanceError is the terminal proof-level rejection: the whole
// batch fails even if a single network is insolvent, and the prior state is
// returned to the caller unchanged.
type NotEnoughBalanceError struct {
	// Debtors lists the insolvent networks in ascending order.
	Debtors []bridge.NetworkID
}

// Error implements the error interface.
func (e *NotEnoughBalanceError) Error() string {
	return fmt.Sprintf("proof: not enough balance, debtor networks %v", e.Debtors)
}
