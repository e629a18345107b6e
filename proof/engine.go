// engine.go implements the batch proof run: certificates are bucketed by
// origin network, applied onto a private clone of the prior state, checked
// against the configured solvency policy, and either committed as a whole
// or rejected as a whole.
package proof

import (
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/bridgeproof/bridge"
	"github.com/eth2030/bridgeproof/log"
)

// Policy selects how solvency is evaluated during a proof run.
type Policy int

const (
	// PolicyLocal checks each network's own ledger for debt immediately
	// after each of that network's certificates is applied.
	PolicyLocal Policy = iota

	// PolicyGlobal defers the check: after every network is applied, all
	// ledgers are pooled per token and debt is evaluated against the
	// pooled totals, so one network's deficit can be covered by another's
	// surplus.
	PolicyGlobal
)

// Config controls a proof run.
type Config struct {
	// Policy is the solvency-check policy.
	Policy Policy
}

// DefaultConfig returns a Config with the per-network (local) solvency
// check.
func DefaultConfig() Config {
	return Config{Policy: PolicyLocal}
}

// GenerateProof applies the certificates onto a clone of prior and returns
// the resulting checkpoint. Certificates are bucketed by origin network
// preserving their relative order; buckets are processed in ascending
// NetworkID order so the outcome does not depend on input ordering across
// networks.
//
// The run is all or nothing: if any network is insolvent under the
// configured policy, the batch is rejected with NotEnoughBalanceError and
// prior is left untouched. Any non-debt application error (invalid previous
// exit root, overflow) aborts the run immediately.
func GenerateProof(prior *State, certificates []*bridge.Certificate, cfg Config) (*Checkpoint, error) {
	_, checkpoint, err := run(prior, certificates, cfg, log.Default().Module("proof"))
	return checkpoint, err
}

// run drives one proof over a private clone of prior and returns the
// candidate state alongside its checkpoint.
func run(prior *State, certificates []*bridge.Certificate, cfg Config, logger *log.Logger) (*State, *Checkpoint, error) {
	buckets := make(map[bridge.NetworkID][]*bridge.Certificate)
	var networks []bridge.NetworkID
	for _, cert := range certificates {
		if _, ok := buckets[cert.OriginNetwork]; !ok {
			networks = append(networks, cert.OriginNetwork)
		}
		buckets[cert.OriginNetwork] = append(buckets[cert.OriginNetwork], cert)
	}
	sort.Slice(networks, func(i, j int) bool { return networks[i] < networks[j] })

	candidate := prior.Clone()
	checkDebt := cfg.Policy == PolicyLocal

	var debtors []bridge.NetworkID
	for _, network := range networks {
		err := applyBucket(candidate, buckets[network], checkDebt, logger)
		if err == nil {
			continue
		}
		var debtErr *HasDebtError
		if errors.As(err, &debtErr) {
			debtors = append(debtors, debtErr.Network)
			continue
		}
		return nil, nil, err
	}

	if cfg.Policy == PolicyGlobal {
		var err error
		debtors, err = globalDebtors(candidate)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(debtors) > 0 {
		sort.Slice(debtors, func(i, j int) bool { return debtors[i] < debtors[j] })
		logger.Warn("proof rejected", "debtors", debtors)
		return nil, nil, &NotEnoughBalanceError{Debtors: debtors}
	}

	return candidate, candidate.Checkpoint(), nil
}

// applyBucket applies one network's certificates strictly in order. The
// first failure aborts the bucket; certificates committed earlier stay in
// the candidate, which is safe because a rejected run discards the whole
// candidate.
func applyBucket(candidate *State, certs []*bridge.Certificate, checkDebt bool, logger *log.Logger) error {
	for _, cert := range certs {
		root, err := candidate.applyCertificate(cert, checkDebt)
		if err != nil {
			logger.Warn("certificate rejected",
				"network", uint32(cert.OriginNetwork),
				"withdrawals", len(cert.Withdrawals),
				"err", err)
			return err
		}
		logger.Debug("certificate applied",
			"network", uint32(cert.OriginNetwork),
			"withdrawals", len(cert.Withdrawals),
			"exitRoot", root.Hex())
	}
	return nil
}

// globalDebtors pools every network's totals per token and reports the
// networks whose own deficit on a token is not covered by the pool.
func globalDebtors(candidate *State) ([]bridge.NetworkID, error) {
	pooled := bridge.NewBalanceLedger()
	for _, network := range candidate.ledgers.Networks() {
		ledger, _ := candidate.ledgers.Ledger(network)
		if err := pooled.Merge(ledger); err != nil {
			return nil, err
		}
	}

	inDebt := make(map[bridge.TokenInfo]bool)
	for _, token := range pooled.TokensInDebt() {
		inDebt[token] = true
	}
	if len(inDebt) == 0 {
		return nil, nil
	}

	var debtors []bridge.NetworkID
	for _, network := range candidate.ledgers.Networks() {
		ledger, _ := candidate.ledgers.Ledger(network)
		for _, token := range ledger.TokensInDebt() {
			if inDebt[token] {
				debtors = append(debtors, network)
				break
			}
		}
	}
	return debtors, nil
}

// Engine owns the committed global state and serializes proof runs against
// it. Each run works on a private clone of the committed state; the clone
// is published as the new committed state only when the whole batch is
// accepted, so a rejected run can never corrupt prior commitments.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	state  *State
	logger *log.Logger
}

// NewEngine creates an Engine over the given prior state. A nil prior
// starts from the empty state.
func NewEngine(cfg Config, prior *State) *Engine {
	if prior == nil {
		prior = NewState()
	}
	return &Engine{
		cfg:    cfg,
		state:  prior.Clone(),
		logger: log.Default().Module("proof"),
	}
}

// Run generates a proof for the batch and, on success, publishes the
// resulting state as the new committed state. Runs are serialized.
func (e *Engine) Run(certificates []*bridge.Certificate) (*Checkpoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	candidate, checkpoint, err := run(e.state, certificates, e.cfg, e.logger)
	if err != nil {
		return nil, err
	}

	e.state = candidate
	return checkpoint, nil
}

// ApplyOne applies a single certificate against the committed state,
// publishing the result immediately on success and returning the new exit
// root.
func (e *Engine) ApplyOne(cert *bridge.Certificate) (common.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	candidate := e.state.Clone()
	root, err := candidate.applyCertificate(cert, e.cfg.Policy == PolicyLocal)
	if err != nil {
		return common.Hash{}, err
	}

	e.state = candidate
	return root, nil
}

// Checkpoint returns the commitments of the committed state.
func (e *Engine) Checkpoint() *Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Checkpoint()
}

// State returns a clone of the committed state, suitable as the prior state
// of an independent run.
func (e *Engine) State() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}
