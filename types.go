package tempo

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferRequest is a UI-level request to move tokens. Addresses arrive as
// strings and are validated before any call is built from the request.
type TransferRequest struct {
	// Token is the TIP-20 contract address of the token to send.
	Token string `json:"token"`

	// To is the recipient address.
	To string `json:"to"`

	// Amount is the human-readable decimal amount (e.g., "1.5").
	Amount string `json:"amount"`

	// Memo is an optional reference attached to the transfer. Whitespace-only
	// memos are treated as absent.
	Memo string `json:"memo,omitempty"`
}

// CallKind identifies the contract call shape a builder selected. The
// variant is chosen once at build time; later stages never re-branch on
// memo presence.
type CallKind int

const (
	// CallTransfer is a plain TIP-20 transfer(to, amount).
	CallTransfer CallKind = iota

	// CallTransferWithMemo is a TIP-20 transferWithMemo(to, amount, memo).
	CallTransferWithMemo

	// CallSetFeeToken is a FeeManager setUserToken(token) preference write.
	CallSetFeeToken
)

// UnsignedCall is a single contract call ready for the signing collaborator.
// It carries no wire encoding; the submission collaborator owns that.
type UnsignedCall struct {
	// Kind selects the call shape.
	Kind CallKind

	// Contract is the target contract address.
	Contract common.Address

	// From is the sending account.
	From common.Address

	// To is the token recipient. Unused for CallSetFeeToken.
	To common.Address

	// Value is the transfer amount in atomic units. Unused for
	// CallSetFeeToken.
	Value *big.Int

	// Memo is the encoded 32-byte memo field. Only set for
	// CallTransferWithMemo.
	Memo common.Hash

	// FeeToken is the preference being written. Only set for
	// CallSetFeeToken.
	FeeToken common.Address
}

// Method returns the contract method name for the call shape.
func (c *UnsignedCall) Method() string {
	switch c.Kind {
	case CallTransferWithMemo:
		return "transferWithMemo"
	case CallSetFeeToken:
		return "setUserToken"
	default:
		return "transfer"
	}
}

// Args returns the ABI arguments for the call shape, in declaration order.
func (c *UnsignedCall) Args() []interface{} {
	switch c.Kind {
	case CallTransferWithMemo:
		return []interface{}{c.To, c.Value, c.Memo}
	case CallSetFeeToken:
		return []interface{}{c.FeeToken}
	default:
		return []interface{}{c.To, c.Value}
	}
}

// UnsignedBundle is an ordered set of calls submitted as one atomic
// transaction: either every call applies or none do. Call order is
// execution order and is never rearranged.
type UnsignedBundle struct {
	// From is the sending account for every call in the bundle.
	From common.Address

	// Calls are the bundled calls in execution order.
	Calls []UnsignedCall
}

// TokenBalance is a token descriptor with the account's current balance.
// Raw keeps full precision; Display is a lossy abbreviation for rendering
// and must never be parsed back into a value.
type TokenBalance struct {
	Token

	// Raw is the balance in atomic units, as a decimal string.
	Raw string `json:"balance"`

	// Display is the abbreviated balance (e.g., "1.25M", "3.40K", "12.00").
	Display string `json:"balanceFormatted"`
}

// TxStatus is the lifecycle state of a submitted transaction. Transitions
// are one-way: Pending to Confirmed, or Pending to Failed.
type TxStatus string

const (
	// StatusPending means the transaction was accepted for submission but
	// has no terminal receipt yet.
	StatusPending TxStatus = "pending"

	// StatusConfirmed means the transaction executed successfully.
	StatusConfirmed TxStatus = "confirmed"

	// StatusFailed means the ledger explicitly rejected the transaction.
	// A timeout alone never produces this status.
	StatusFailed TxStatus = "failed"
)

// Terminal reports whether the status is final.
func (s TxStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// TransactionRecord is one entry in the persisted transaction history.
// It is created the moment a transfer is accepted for submission, while the
// outcome is still unknown, and mutated exactly once when a terminal
// receipt arrives.
type TransactionRecord struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Amount      string   `json:"amount"`
	Token       string   `json:"token"`
	TokenSymbol string   `json:"tokenSymbol"`
	Memo        string   `json:"memo,omitempty"`
	Timestamp   int64    `json:"timestamp"`
	Status      TxStatus `json:"status"`
}

// Receipt is the terminal outcome of a submitted transaction as reported by
// the ledger node.
type Receipt struct {
	// TxHash is the transaction hash the receipt belongs to.
	TxHash string `json:"transactionHash"`

	// Success reports whether execution succeeded.
	Success bool `json:"status"`
}
