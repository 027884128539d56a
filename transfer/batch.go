package transfer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tempoxyz/tempo-go"
)

// BatchBuilder constructs atomic multi-transfer bundles from a queue.
// The ledger applies a bundle all-or-nothing; the builder's only
// responsibilities are validation and faithful ordering.
type BatchBuilder struct {
	builder *Builder
}

// NewBatchBuilder creates a BatchBuilder sharing the Builder's token
// lookup and sponsorship configuration.
func NewBatchBuilder(b *Builder) *BatchBuilder {
	return &BatchBuilder{builder: b}
}

// Build encodes every queue entry into its call payload, preserving
// insertion order as execution order, and wraps them as one atomic bundle.
// It fails fast with tempo.ErrEmptyBatch on an empty queue, and with the
// entry's validation error if any entry is invalid — an invalid entry
// poisons the whole bundle, by the same all-or-nothing contract the ledger
// applies.
//
// Build never clears the queue; the caller clears it only after a
// submission is accepted.
func (bb *BatchBuilder) Build(ctx context.Context, from common.Address, queue []tempo.TransferRequest) (*tempo.UnsignedBundle, error) {
	if len(queue) == 0 {
		return nil, tempo.ErrEmptyBatch
	}

	bundle := &tempo.UnsignedBundle{
		From:  from,
		Calls: make([]tempo.UnsignedCall, 0, len(queue)),
	}
	total := new(big.Int)
	for _, req := range queue {
		call, err := bb.builder.encode(from, req)
		if err != nil {
			return nil, err
		}
		bundle.Calls = append(bundle.Calls, *call)
		total.Add(total, call.Value)
	}

	if bb.builder.sponsor != nil {
		if err := bb.builder.negotiate(ctx, from, queue[0].Token, total, len(queue)); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}
