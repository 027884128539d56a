// Package fee resolves which token an account pays transaction fees in.
// Tempo has no native gas coin; every account designates a stablecoin
// through the FeeManager system contract, and accounts that never did
// simply pay in the network default. A missing preference is therefore an
// expected condition, not an error.
package fee

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tempoxyz/tempo-go"
)

// Resolver reads and writes fee token preferences against the FeeManager
// contract.
type Resolver struct {
	node         tempo.NodeClient
	submitter    tempo.Submitter
	feeManager   common.Address
	defaultToken common.Address
	logger       *slog.Logger

	mu     sync.Mutex
	cached map[common.Address]common.Address
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for recovered lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithDefaultToken overrides the token returned when no preference is
// stored. Defaults to the network default stablecoin.
func WithDefaultToken(token common.Address) Option {
	return func(r *Resolver) {
		r.defaultToken = token
	}
}

// NewResolver creates a Resolver against the given network's FeeManager.
func NewResolver(node tempo.NodeClient, submitter tempo.Submitter, network tempo.Network, opts ...Option) *Resolver {
	r := &Resolver{
		node:         node,
		submitter:    submitter,
		feeManager:   network.FeeManager,
		defaultToken: tempo.DefaultFeeToken().Address,
		logger:       slog.Default(),
		cached:       make(map[common.Address]common.Address),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the account's fee token. It never returns the null
// address and never fails: a lookup error or an unset preference resolves
// to the configured default. Preferences written through SetPreference are
// served from the local cache.
func (r *Resolver) Resolve(ctx context.Context, account common.Address) common.Address {
	r.mu.Lock()
	if cached, ok := r.cached[account]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	results, err := r.node.Call(ctx, r.feeManager, "getUserToken", account)
	if err != nil {
		r.logger.Debug("fee token lookup failed, using default",
			"account", account.Hex(), "error", err)
		return r.defaultToken
	}

	token, ok := firstAddress(results)
	if !ok || token == (common.Address{}) {
		return r.defaultToken
	}
	return token
}

// SetPreference writes a new fee token preference through the signing and
// submission collaborators and returns the transaction hash. The local
// cache is updated as soon as the node accepts the submission, before any
// confirmation, matching the optimism used for transfers.
func (r *Resolver) SetPreference(ctx context.Context, signer tempo.Signer, token common.Address) (string, error) {
	call := &tempo.UnsignedCall{
		Kind:     tempo.CallSetFeeToken,
		Contract: r.feeManager,
		From:     signer.Address(),
		FeeToken: token,
	}

	hash, err := r.submitter.SubmitCall(ctx, signer, call)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cached[signer.Address()] = token
	r.mu.Unlock()

	return hash, nil
}

// Prime seeds the cached preference for an account. Used when a persisted
// preference is restored at session start, so the stored choice wins over a
// chain lookup that may fail or lag the optimistic write.
func (r *Resolver) Prime(account, token common.Address) {
	if token == (common.Address{}) {
		return
	}
	r.mu.Lock()
	r.cached[account] = token
	r.mu.Unlock()
}

// Forget drops the cached preference for an account, forcing the next
// Resolve to re-read the chain.
func (r *Resolver) Forget(account common.Address) {
	r.mu.Lock()
	delete(r.cached, account)
	r.mu.Unlock()
}

func firstAddress(results []interface{}) (common.Address, bool) {
	if len(results) == 0 {
		return common.Address{}, false
	}
	addr, ok := results[0].(common.Address)
	return addr, ok
}
