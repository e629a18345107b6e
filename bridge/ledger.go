package bridge

import (
	"bytes"
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/eth2030/bridgeproof/crypto"
)

// ErrArithmeticOverflow is returned when a ledger total would exceed the
// 256-bit range. Amounts are security relevant: additions fail instead of
// saturating or wrapping.
var ErrArithmeticOverflow = errors.New("bridge: arithmetic overflow in ledger addition")

// Balance holds the running totals for one token in one network's ledger.
type Balance struct {
	Deposited uint256.Int
	Withdrawn uint256.Int
}

// InDebt reports whether more of the token has left the network than
// arrived.
func (b *Balance) InDebt() bool {
	return b.Withdrawn.Gt(&b.Deposited)
}

// BalanceLedger records, for a single network, the deposited and withdrawn
// totals of every token that ever touched it.
type BalanceLedger struct {
	balances map[TokenInfo]Balance
}

// NewBalanceLedger creates an empty ledger.
func NewBalanceLedger() *BalanceLedger {
	return &BalanceLedger{balances: make(map[TokenInfo]Balance)}
}

// Deposit adds amount to the token's deposited total, creating the entry
// with zero withdrawn if absent.
func (l *BalanceLedger) Deposit(token TokenInfo, amount *uint256.Int) error {
	b := l.balances[token]
	if _, overflow := b.Deposited.AddOverflow(&b.Deposited, amount); overflow {
		return ErrArithmeticOverflow
	}
	l.balances[token] = b
	return nil
}

// Withdraw adds amount to the token's withdrawn total, creating the entry
// with zero deposited if absent.
func (l *BalanceLedger) Withdraw(token TokenInfo, amount *uint256.Int) error {
	b := l.balances[token]
	if _, overflow := b.Withdrawn.AddOverflow(&b.Withdrawn, amount); overflow {
		return ErrArithmeticOverflow
	}
	l.balances[token] = b
	return nil
}

// Balance returns the totals recorded for token and whether an entry exists.
func (l *BalanceLedger) Balance(token TokenInfo) (Balance, bool) {
	b, ok := l.balances[token]
	return b, ok
}

// Len returns the number of token entries.
func (l *BalanceLedger) Len() int { return len(l.balances) }

// HasDebt reports whether any token entry has withdrawn more than it
// deposited.
func (l *BalanceLedger) HasDebt() bool {
	for _, b := range l.balances {
		if b.InDebt() {
			return true
		}
	}
	return false
}

// TokensInDebt returns the tokens whose withdrawn total exceeds their
// deposited total, in ascending token-hash order.
func (l *BalanceLedger) TokensInDebt() []TokenInfo {
	var tokens []TokenInfo
	for token, b := range l.balances {
		if b.InDebt() {
			tokens = append(tokens, token)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		a, b := tokens[i].Hash(), tokens[j].Hash()
		return bytes.Compare(a[:], b[:]) < 0
	})
	return tokens
}

// Merge adds other's totals point-wise into l over the union of token sets.
// Merging is commutative and associative over ledger contents, so
// independently computed partial ledgers may be combined in any order. The
// sums are staged and committed only once every addition succeeded: a
// failed merge leaves l unchanged.
func (l *BalanceLedger) Merge(other *BalanceLedger) error {
	staged := make(map[TokenInfo]Balance, len(other.balances))
	for token, ob := range other.balances {
		b := l.balances[token]
		if _, overflow := b.Deposited.AddOverflow(&b.Deposited, &ob.Deposited); overflow {
			return ErrArithmeticOverflow
		}
		if _, overflow := b.Withdrawn.AddOverflow(&b.Withdrawn, &ob.Withdrawn); overflow {
			return ErrArithmeticOverflow
		}
		staged[token] = b
	}
	for token, b := range staged {
		l.balances[token] = b
	}
	return nil
}

// Clone returns a deep copy of the ledger.
func (l *BalanceLedger) Clone() *BalanceLedger {
	cp := NewBalanceLedger()
	for token, b := range l.balances {
		cp.balances[token] = b
	}
	return cp
}

// Hash computes the ledger commitment: the Keccak digest over the
// (tokenHash(32) || deposited(32) || withdrawn(32)) triples sorted by
// ascending token hash, so the result is independent of map iteration
// order.
func (l *BalanceLedger) Hash() common.Hash {
	type entry struct {
		tokenHash common.Hash
		balance   Balance
	}

	entries := make([]entry, 0, len(l.balances))
	for token, b := range l.balances {
		entries = append(entries, entry{tokenHash: token.Hash(), balance: b})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].tokenHash[:], entries[j].tokenHash[:]) < 0
	})

	data := make([][]byte, 0, 3*len(entries))
	for i := range entries {
		deposited := entries[i].balance.Deposited.Bytes32()
		withdrawn := entries[i].balance.Withdrawn.Bytes32()
		data = append(data, entries[i].tokenHash.Bytes(), deposited[:], withdrawn[:])
	}
	return crypto.Keccak256Hash(data...)
}
