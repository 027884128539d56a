// Package transfer constructs unsigned TIP-20 transfer calls and atomic
// multi-transfer bundles. Builders validate everything locally before any
// collaborator is touched, pick the call shape (plain or memo-bearing)
// exactly once, and hand back data structures ready for the signing and
// submission collaborators; they never sign, submit, or retry.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/memo"
	"github.com/tempoxyz/tempo-go/sponsor"
	"github.com/tempoxyz/tempo-go/validation"
)

// TokenLookup resolves a token address to its descriptor within the
// session's token set (defaults plus custom tokens).
type TokenLookup func(address string) (tempo.Token, bool)

// Builder constructs single transfer calls.
type Builder struct {
	tokens  TokenLookup
	sponsor sponsor.Negotiator
}

// Option configures a Builder.
type Option func(*Builder)

// WithSponsor enables the fee-sponsorship pre-step. When set, Build blocks
// on the sponsor's acknowledgment before returning a call and fails with
// tempo.ErrSponsorshipUnavailable if the sponsor declines or times out.
func WithSponsor(n sponsor.Negotiator) Option {
	return func(b *Builder) {
		b.sponsor = n
	}
}

// NewBuilder creates a Builder resolving tokens through the given lookup.
func NewBuilder(tokens TokenLookup, opts ...Option) *Builder {
	b := &Builder{tokens: tokens}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates the request and constructs an unsigned call for it.
// Validation failures (ErrInvalidRecipient, ErrInvalidAmount,
// ErrInvalidToken) are returned before any network interaction. The call
// shape is memo-bearing exactly when the memo is non-empty after trimming.
func (b *Builder) Build(ctx context.Context, from common.Address, req tempo.TransferRequest) (*tempo.UnsignedCall, error) {
	call, err := b.encode(from, req)
	if err != nil {
		return nil, err
	}

	if b.sponsor != nil {
		if err := b.negotiate(ctx, from, req.Token, call.Value, 1); err != nil {
			return nil, err
		}
	}
	return call, nil
}

// encode performs the local validation and shape selection shared by
// single transfers and batch entries.
func (b *Builder) encode(from common.Address, req tempo.TransferRequest) (*tempo.UnsignedCall, error) {
	token, ok := b.tokens(req.Token)
	if !ok {
		return nil, fmt.Errorf("%w: unknown token %q", tempo.ErrInvalidToken, req.Token)
	}

	if err := validation.ValidateRecipient(req.To); err != nil {
		return nil, err
	}

	value, err := tempo.ParseAmount(req.Amount, token.Decimals)
	if err != nil {
		return nil, err
	}

	call := &tempo.UnsignedCall{
		Kind:     tempo.CallTransfer,
		Contract: token.Address,
		From:     from,
		To:       common.HexToAddress(req.To),
		Value:    value,
	}
	if strings.TrimSpace(req.Memo) != "" {
		call.Kind = tempo.CallTransferWithMemo
		call.Memo = memo.Encode(req.Memo)
	}
	return call, nil
}

// negotiate runs the sponsorship pre-step. For bundles the amount is the
// total value across calls, a fee-sizing hint rather than a per-token sum.
func (b *Builder) negotiate(ctx context.Context, from common.Address, token string, amount *big.Int, calls int) error {
	_, err := b.sponsor.Negotiate(ctx, sponsor.Request{
		From:   from.Hex(),
		Token:  token,
		Amount: amount.String(),
		Calls:  calls,
	})
	if err != nil {
		if errors.Is(err, tempo.ErrSponsorshipUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", tempo.ErrSponsorshipUnavailable, err)
	}
	return nil
}
