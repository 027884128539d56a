package tempo

import "errors"

// Engine error definitions. Validation errors are raised synchronously
// before any network interaction; submission errors are surfaced verbatim
// and never retried by the engine.

var (
	// ErrInvalidSecret indicates a wallet secret that fails derivation.
	ErrInvalidSecret = errors.New("tempo: invalid wallet secret")

	// ErrInvalidRecipient indicates a malformed or null recipient address.
	ErrInvalidRecipient = errors.New("tempo: invalid recipient address")

	// ErrInvalidAmount indicates a non-positive amount or one that exceeds
	// the token's decimal precision.
	ErrInvalidAmount = errors.New("tempo: invalid amount")

	// ErrEmptyBatch indicates a batch build was attempted on an empty queue.
	ErrEmptyBatch = errors.New("tempo: batch queue is empty")

	// ErrSponsorshipUnavailable indicates the sponsorship service rejected
	// the request or did not acknowledge it in time.
	ErrSponsorshipUnavailable = errors.New("tempo: sponsorship unavailable")

	// ErrSubmissionRejected indicates the ledger node refused the call.
	ErrSubmissionRejected = errors.New("tempo: submission rejected")

	// ErrSubmissionTimeout indicates submission did not complete within the
	// caller's deadline. The transaction record stays Pending.
	ErrSubmissionTimeout = errors.New("tempo: submission timed out")

	// ErrNoWallet indicates an operation that requires an active account.
	ErrNoWallet = errors.New("tempo: no active wallet")

	// ErrInvalidToken indicates an address that is not a usable TIP-20
	// token contract.
	ErrInvalidToken = errors.New("tempo: invalid token contract")

	// ErrInvalidKeystore indicates an unreadable or undecryptable keystore
	// file.
	ErrInvalidKeystore = errors.New("tempo: invalid keystore file")

	// ErrInvalidMnemonic indicates an invalid BIP-39 mnemonic phrase.
	ErrInvalidMnemonic = errors.New("tempo: invalid mnemonic phrase")
)
