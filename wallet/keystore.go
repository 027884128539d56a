package wallet

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/tempoxyz/tempo-go"
)

// WithKeystore loads the key from an encrypted keystore file.
func WithKeystore(path, password string) Option {
	return func(i *Identity) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", tempo.ErrInvalidKeystore, err)
		}

		var keyJSON struct {
			Crypto keystore.CryptoJSON `json:"crypto"`
		}
		if err := json.Unmarshal(data, &keyJSON); err != nil {
			return fmt.Errorf("%w: invalid JSON format", tempo.ErrInvalidKeystore)
		}

		keyBytes, err := keystore.DecryptDataV3(keyJSON.Crypto, password)
		if err != nil {
			return fmt.Errorf("%w: decryption failed", tempo.ErrInvalidKeystore)
		}

		key, err := crypto.ToECDSA(keyBytes)
		if err != nil {
			return fmt.Errorf("%w: invalid private key", tempo.ErrInvalidKeystore)
		}

		i.key = key
		return nil
	}
}

// WithMnemonic derives the key from a BIP-39 mnemonic phrase at
// m/44'/60'/0'/0/{accountIndex}.
func WithMnemonic(mnemonic string, accountIndex uint32) Option {
	return func(i *Identity) error {
		if !bip39.IsMnemonicValid(mnemonic) {
			return tempo.ErrInvalidMnemonic
		}

		seed := bip39.NewSeed(mnemonic, "")
		key, err := deriveAccountKey(seed, accountIndex)
		if err != nil {
			return fmt.Errorf("%w: %v", tempo.ErrInvalidMnemonic, err)
		}

		i.key = key
		return nil
	}
}

// deriveAccountKey walks the BIP-44 path m/44'/60'/0'/0/{index}.
func deriveAccountKey(seed []byte, index uint32) (*ecdsa.PrivateKey, error) {
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	for _, step := range []uint32{
		bip32.FirstHardenedChild + 44, // purpose
		bip32.FirstHardenedChild + 60, // coin type
		bip32.FirstHardenedChild + 0,  // account
		0,                             // external chain
		index,
	} {
		if key, err = key.NewChildKey(step); err != nil {
			return nil, err
		}
	}

	return crypto.ToECDSA(key.Key)
}
