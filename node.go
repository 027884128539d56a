package tempo

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// NodeClient is the read-side collaborator for the ledger node. Calls are
// idempotent contract reads; implementations own the wire encoding.
type NodeClient interface {
	// Call executes a read-only contract method and returns the unpacked
	// result values.
	Call(ctx context.Context, contract common.Address, method string, args ...interface{}) ([]interface{}, error)
}

// Submitter is the write-side collaborator for the ledger node. Submission
// is blocking and cancellable through the caller's context; the engine
// never retries a submission on its own.
type Submitter interface {
	// SubmitCall signs and broadcasts a single call, returning the
	// transaction hash once the node accepts it.
	SubmitCall(ctx context.Context, signer Signer, call *UnsignedCall) (string, error)

	// SubmitBundle signs and broadcasts an atomic bundle as one
	// transaction: all calls apply or none do.
	SubmitBundle(ctx context.Context, signer Signer, bundle *UnsignedBundle) (string, error)

	// AwaitReceipt blocks until the transaction has a terminal receipt or
	// the context is done.
	AwaitReceipt(ctx context.Context, hash string) (*Receipt, error)
}

// TokenValidator reads TIP-20 metadata for a contract address, used to vet
// custom tokens before they join the session's token set.
type TokenValidator interface {
	// TokenMetadata returns the token descriptor for a contract, or an
	// error wrapping ErrInvalidToken if the address is not a usable TIP-20
	// contract.
	TokenMetadata(ctx context.Context, address common.Address) (Token, error)
}

// Signer is the signing collaborator for an active account. The wallet
// package provides the local-key implementation.
type Signer interface {
	// Address returns the account address.
	Address() common.Address

	// SignTx signs a transaction for the given chain.
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)

	// SignDigest signs a 32-byte digest, returning a 65-byte [R || S || V]
	// signature with V in {0, 1}.
	SignDigest(digest []byte) ([]byte, error)
}
