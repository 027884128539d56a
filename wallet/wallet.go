// Package wallet manages the engine's active account identity: a local
// secp256k1 key with its derived address. Identities can be freshly
// generated or imported from a hex secret, an encrypted keystore file, or a
// BIP-39 mnemonic, and are persisted through the storage collaborator so a
// session survives restarts. Clear is the only teardown path and makes the
// secret irrecoverable from this process.
package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/store"
)

// SecretKey is the store key the active account's secret is persisted under.
const SecretKey = "wallet/secret"

// Identity is the active account. It implements tempo.Signer.
type Identity struct {
	key     *ecdsa.PrivateKey
	address common.Address
	store   store.Store
}

// Option configures an Identity during construction.
type Option func(*Identity) error

// WithStore attaches the storage collaborator. Identities built with a
// store persist their secret on creation and remove it on Clear.
func WithStore(s store.Store) Option {
	return func(i *Identity) error {
		i.store = s
		return nil
	}
}

// WithSecret sets the key from a hex-encoded secret. The 0x prefix is
// optional; both forms normalize to the same key.
func WithSecret(secret string) Option {
	return func(i *Identity) error {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(secret), "0x"))
		if err != nil {
			return fmt.Errorf("%w: %v", tempo.ErrInvalidSecret, err)
		}
		i.key = key
		return nil
	}
}

// New creates an Identity. If no option supplies a key, a fresh one is
// generated. The secret is persisted before New returns when a store is
// attached.
func New(opts ...Option) (*Identity, error) {
	i := &Identity{}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	if i.key == nil {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		i.key = key
	}

	i.address = crypto.PubkeyToAddress(i.key.PublicKey)

	if i.store != nil {
		if err := i.store.Set(SecretKey, []byte(i.Secret())); err != nil {
			return nil, fmt.Errorf("failed to persist secret: %w", err)
		}
	}
	return i, nil
}

// Import creates an Identity from a textual secret in prefixed or
// unprefixed form. Returns an error wrapping tempo.ErrInvalidSecret if
// derivation fails.
func Import(secret string, opts ...Option) (*Identity, error) {
	return New(append([]Option{WithSecret(secret)}, opts...)...)
}

// Load rehydrates the persisted Identity from the store. Returns
// store.ErrNotFound if no secret is persisted.
func Load(s store.Store) (*Identity, error) {
	secret, err := s.Get(SecretKey)
	if err != nil {
		return nil, err
	}
	return Import(string(secret), WithStore(s))
}

// Address implements tempo.Signer.
func (i *Identity) Address() common.Address {
	return i.address
}

// Secret returns the 0x-prefixed hex secret. Callers show it exactly once,
// at creation, for backup.
func (i *Identity) Secret() string {
	if i.key == nil {
		return ""
	}
	return "0x" + hex.EncodeToString(crypto.FromECDSA(i.key))
}

// SignTx implements tempo.Signer.
func (i *Identity) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if i.key == nil {
		return nil, tempo.ErrNoWallet
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), i.key)
}

// SignDigest implements tempo.Signer.
func (i *Identity) SignDigest(digest []byte) ([]byte, error) {
	if i.key == nil {
		return nil, tempo.ErrNoWallet
	}
	return crypto.Sign(digest, i.key)
}

// Clear discards the account. The in-memory key material is zeroized and
// the persisted secret removed; every later use of the Identity fails with
// tempo.ErrNoWallet.
func (i *Identity) Clear() error {
	if i.key != nil {
		i.key.D.SetInt64(0)
		i.key = nil
	}
	i.address = common.Address{}

	if i.store != nil {
		if err := i.store.Remove(SecretKey); err != nil {
			return fmt.Errorf("failed to remove persisted secret: %w", err)
		}
	}
	return nil
}
