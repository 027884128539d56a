package wallet

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/store"
)

// Well-known test vector: the mnemonic and key below are throwaway values
// used across ethereum tooling test suites.
const (
	testSecret   = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
)

func TestNewGeneratesFreshKey(t *testing.T) {
	first, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if first.Address() == second.Address() {
		t.Error("two fresh identities share an address")
	}
	if !strings.HasPrefix(first.Secret(), "0x") || len(first.Secret()) != 66 {
		t.Errorf("secret has unexpected form: %q", first.Secret())
	}
}

func TestImport(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"prefixed", testSecret, false},
		{"unprefixed", strings.TrimPrefix(testSecret, "0x"), false},
		{"surrounding whitespace", " " + testSecret + " ", false},
		{"empty", "", true},
		{"truncated", "0x4c0883a691", true},
		{"not hex", "0x" + strings.Repeat("zz", 32), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Import(tt.secret)

			if tt.wantErr {
				if !errors.Is(err, tempo.ErrInvalidSecret) {
					t.Fatalf("want ErrInvalidSecret, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id.Secret() != testSecret {
				t.Errorf("secret normalized to %q, want %q", id.Secret(), testSecret)
			}
		})
	}
}

func TestImportBothFormsAgree(t *testing.T) {
	prefixed, err := Import(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	unprefixed, err := Import(strings.TrimPrefix(testSecret, "0x"))
	if err != nil {
		t.Fatal(err)
	}
	if prefixed.Address() != unprefixed.Address() {
		t.Errorf("addresses differ: %s vs %s", prefixed.Address(), unprefixed.Address())
	}
}

func TestPersistAndLoad(t *testing.T) {
	st := store.NewMemoryStore()

	created, err := Import(testSecret, WithStore(st))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	loaded, err := Load(st)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Address() != created.Address() {
		t.Errorf("loaded address %s, want %s", loaded.Address(), created.Address())
	}
}

func TestClear(t *testing.T) {
	st := store.NewMemoryStore()

	id, err := Import(testSecret, WithStore(st))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if err := id.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if id.Secret() != "" {
		t.Error("secret still recoverable after Clear")
	}
	if _, err := id.SignDigest(make([]byte, 32)); !errors.Is(err, tempo.ErrNoWallet) {
		t.Errorf("SignDigest after Clear: want ErrNoWallet, got %v", err)
	}
	if _, err := st.Get(SecretKey); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("persisted secret should be removed, got %v", err)
	}
	if _, err := Load(st); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Load after Clear: want ErrNotFound, got %v", err)
	}
}

func TestWithMnemonic(t *testing.T) {
	id, err := New(WithMnemonic(testMnemonic, 0))
	if err != nil {
		t.Fatalf("New with mnemonic: %v", err)
	}

	// Derivation must be deterministic.
	again, err := New(WithMnemonic(testMnemonic, 0))
	if err != nil {
		t.Fatal(err)
	}
	if id.Address() != again.Address() {
		t.Error("mnemonic derivation is not deterministic")
	}

	other, err := New(WithMnemonic(testMnemonic, 1))
	if err != nil {
		t.Fatal(err)
	}
	if id.Address() == other.Address() {
		t.Error("different account indexes yield the same address")
	}

	if _, err := New(WithMnemonic("definitely not a mnemonic", 0)); !errors.Is(err, tempo.ErrInvalidMnemonic) {
		t.Errorf("want ErrInvalidMnemonic, got %v", err)
	}
}

func TestSignTx(t *testing.T) {
	id, err := Import(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	chainID := big.NewInt(tempo.Moderato.ChainID)
	to := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0")
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      60000,
		GasPrice: big.NewInt(1),
	})

	signed, err := id.SignTx(tx, chainID)
	if err != nil {
		t.Fatalf("SignTx: %v", err)
	}

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		t.Fatalf("failed to recover sender: %v", err)
	}
	if sender != id.Address() {
		t.Errorf("recovered sender %s, want %s", sender, id.Address())
	}
}

func TestSignDigestRecovers(t *testing.T) {
	id, err := Import(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	digest := crypto.Keccak256([]byte("tempo payment"))
	sig, err := id.SignDigest(digest)
	if err != nil {
		t.Fatalf("SignDigest: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length %d, want 65", len(sig))
	}

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		t.Fatalf("failed to recover pubkey: %v", err)
	}
	if crypto.PubkeyToAddress(*pub) != id.Address() {
		t.Error("recovered address does not match signer")
	}
}
