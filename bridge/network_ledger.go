package bridge

import "sort"

// LedgerByNetwork maps every network of the bridge graph to its balance
// ledger. Entries are created lazily on first touch.
type LedgerByNetwork struct {
	ledgers map[NetworkID]*BalanceLedger
}

// NewLedgerByNetwork creates an empty map.
func NewLedgerByNetwork() *LedgerByNetwork {
	return &LedgerByNetwork{ledgers: make(map[NetworkID]*BalanceLedger)}
}

// Insert applies the dual effect of a withdrawal: the amount is recorded as
// withdrawn on the origin network's ledger and as deposited on the
// destination network's. Both ledgers are created lazily if absent.
func (m *LedgerByNetwork) Insert(originNetwork NetworkID, w *Withdrawal) error {
	if err := m.ledger(originNetwork).Withdraw(w.TokenInfo, w.Amount); err != nil {
		return err
	}
	return m.ledger(w.DestNetwork).Deposit(w.TokenInfo, w.Amount)
}

// Ledger returns the ledger recorded for network and whether one exists.
func (m *LedgerByNetwork) Ledger(network NetworkID) (*BalanceLedger, bool) {
	l, ok := m.ledgers[network]
	return l, ok
}

// Networks returns the networks with a ledger entry in ascending order.
func (m *LedgerByNetwork) Networks() []NetworkID {
	ids := make([]NetworkID, 0, len(m.ledgers))
	for id := range m.ledgers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of networks with a ledger entry.
func (m *LedgerByNetwork) Len() int { return len(m.ledgers) }

// Merge unions the network sets, merging ledgers point-wise for matching
// networks and cloning entries only present in other. The merged ledgers
// are staged and committed only once every network merged cleanly: a failed
// merge leaves m unchanged.
func (m *LedgerByNetwork) Merge(other *LedgerByNetwork) error {
	staged := make(map[NetworkID]*BalanceLedger, len(other.ledgers))
	for network, ol := range other.ledgers {
		if l, ok := m.ledgers[network]; ok {
			merged := l.Clone()
			if err := merged.Merge(ol); err != nil {
				return err
			}
			staged[network] = merged
		} else {
			staged[network] = ol.Clone()
		}
	}
	for network, l := range staged {
		m.ledgers[network] = l
	}
	return nil
}

// Clone returns a deep copy of the map and every ledger in it.
func (m *LedgerByNetwork) Clone() *LedgerByNetwork {
	cp := NewLedgerByNetwork()
	for network, l := range m.ledgers {
		cp.ledgers[network] = l.Clone()
	}
	return cp
}

// ledger returns the network's ledger, creating an empty one if absent.
func (m *LedgerByNetwork) ledger(network NetworkID) *BalanceLedger {
	l, ok := m.ledgers[network]
	if !ok {
		l = NewBalanceLedger()
		m.ledgers[network] = l
	}
	return l
}
