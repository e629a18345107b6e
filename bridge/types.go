// Package bridge defines the data model of the pessimistic bridge proof:
// network identifiers, token identities, withdrawals with their canonical
// leaf encoding, certificates, and the per-network balance ledgers.
package bridge

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/eth2030/bridgeproof/crypto"
)

// Withdrawal leaf types.
const (
	// LeafTypeAsset marks a token transfer leaf.
	LeafTypeAsset uint8 = 0

	// LeafTypeMessage marks a message-passing leaf.
	LeafTypeMessage uint8 = 1
)

// NetworkID identifies one network of the bridge graph.
type NetworkID uint32

// Bytes returns the big-endian 4-byte encoding of the network ID.
func (n NetworkID) Bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	return b[:]
}

// TokenInfo uniquely identifies a token across the whole bridge graph,
// regardless of which network currently holds it.
type TokenInfo struct {
	// OriginNetwork is the network the token originates from.
	OriginNetwork NetworkID

	// OriginTokenAddress is the token contract address on the origin network.
	OriginTokenAddress common.Address
}

// Hash computes the Keccak digest identifying the token:
// keccak(originNetwork(4) || originTokenAddress(20)).
func (t TokenInfo) Hash() common.Hash {
	return crypto.Keccak256Hash(t.OriginNetwork.Bytes(), t.OriginTokenAddress.Bytes())
}

// Withdrawal represents a transfer of an amount of the token identified by
// TokenInfo out of its origin network to DestNetwork/DestAddress.
type Withdrawal struct {
	LeafType    uint8
	TokenInfo   TokenInfo
	DestNetwork NetworkID
	DestAddress common.Address
	Amount      *uint256.Int
	Metadata    []byte
}

// NewWithdrawal creates a Withdrawal for the token identified by
// originNetwork/originTokenAddress.
func NewWithdrawal(
	leafType uint8,
	originNetwork NetworkID,
	originTokenAddress common.Address,
	destNetwork NetworkID,
	destAddress common.Address,
	amount *uint256.Int,
	metadata []byte,
) *Withdrawal {
	return &Withdrawal{
		LeafType: leafType,
		TokenInfo: TokenInfo{
			OriginNetwork:      originNetwork,
			OriginTokenAddress: originTokenAddress,
		},
		DestNetwork: destNetwork,
		DestAddress: destAddress,
		Amount:      amount,
		Metadata:    metadata,
	}
}

// Hash computes the canonical leaf hash committed into the local exit tree.
// The layout is a cryptographic commitment consumed by external verifiers
// and must never change:
//
//	leafType(1) || originNetwork(4) || originTokenAddress(20) ||
//	destNetwork(4) || destAddress(20) || amount(32, left-zero-padded) ||
//	keccak(metadata)(32)
//
// all big-endian, hashed once as a whole.
func (w *Withdrawal) Hash() common.Hash {
	amount := w.amountBytes()
	metadataHash := crypto.Keccak256(w.Metadata)
	return crypto.Keccak256Hash(
		[]byte{w.LeafType},
		w.TokenInfo.OriginNetwork.Bytes(),
		w.TokenInfo.OriginTokenAddress.Bytes(),
		w.DestNetwork.Bytes(),
		w.DestAddress.Bytes(),
		amount[:],
		metadataHash,
	)
}

// amountBytes right-aligns the big-endian amount in a 32-byte field. A nil
// amount encodes as zero.
func (w *Withdrawal) amountBytes() [32]byte {
	if w.Amount == nil {
		return [32]byte{}
	}
	return w.Amount.Bytes32()
}

// Certificate is one network's claimed batch of withdrawals since its last
// accepted state. Certificates are ephemeral inputs: they are consumed by a
// proof run and not retained.
type Certificate struct {
	// OriginNetwork is the network the withdrawals exit from.
	OriginNetwork NetworkID

	// PrevLocalExitRoot is the exit root the origin network last committed.
	// It must match the root recomputed from the current state before any
	// withdrawal is applied.
	PrevLocalExitRoot common.Hash

	// Withdrawals are applied strictly in order.
	Withdrawals []*Withdrawal
}
