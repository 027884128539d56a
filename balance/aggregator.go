// Package balance aggregates an account's balances across the session's
// token set. Per-token reads are independent, idempotent queries, so they
// fan out concurrently and individually degrade to a zero balance when a
// token contract is missing or the node misbehaves; the caller always gets
// the full set back.
package balance

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/retry"
)

// Aggregator fetches and formats balances for a token set.
type Aggregator struct {
	node   tempo.NodeClient
	retry  retry.Config
	logger *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRetry overrides the per-token read retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(a *Aggregator) {
		a.retry = cfg
	}
}

// WithLogger sets the logger for per-token fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates an Aggregator reading through the given node.
func NewAggregator(node tempo.NodeClient, opts ...Option) *Aggregator {
	a := &Aggregator{
		node:   node,
		retry:  retry.Reads,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchAll returns one balance entry per requested token, in the requested
// order, formatted with each token's own decimals. It never returns a
// partial set and never fails: a token whose read errors out yields a zero
// entry. FetchAll blocks until every fetch has completed or failed.
func (a *Aggregator) FetchAll(ctx context.Context, account common.Address, tokens []tempo.Token) []tempo.TokenBalance {
	balances := make([]tempo.TokenBalance, len(tokens))

	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token tempo.Token) {
			defer wg.Done()
			balances[i] = a.fetchOne(ctx, account, token)
		}(i, token)
	}
	wg.Wait()

	return balances
}

func (a *Aggregator) fetchOne(ctx context.Context, account common.Address, token tempo.Token) tempo.TokenBalance {
	raw, err := retry.Do(ctx, a.retry, nil, func() (*big.Int, error) {
		results, err := a.node.Call(ctx, token.Address, "balanceOf", account)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("balanceOf returned no values")
		}
		value, ok := results[0].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("balanceOf returned %T, want *big.Int", results[0])
		}
		return value, nil
	})
	if err != nil {
		a.logger.Debug("balance fetch failed, reporting zero",
			"token", token.Symbol, "address", token.Address.Hex(), "error", err)
		raw = big.NewInt(0)
	}

	return tempo.TokenBalance{
		Token:   token,
		Raw:     raw.String(),
		Display: tempo.AbbreviateAmount(raw, token.Decimals),
	}
}
