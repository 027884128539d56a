package tempo

import (
	"strings"
	"testing"
)

func TestDefaultTokens(t *testing.T) {
	if len(DefaultTokens) != 4 {
		t.Fatalf("expected 4 default tokens, got %d", len(DefaultTokens))
	}

	for _, tok := range DefaultTokens {
		if !tok.Default {
			t.Errorf("token %s not marked default", tok.Symbol)
		}
		if tok.Decimals != 6 {
			t.Errorf("token %s has %d decimals, want 6", tok.Symbol, tok.Decimals)
		}
		if !IsTIP20Address(tok.Address.Hex()) {
			t.Errorf("token %s address %s lacks TIP-20 prefix", tok.Symbol, tok.Address.Hex())
		}
	}

	if DefaultFeeToken().Symbol != "pathUSD" {
		t.Errorf("default fee token should be pathUSD, got %s", DefaultFeeToken().Symbol)
	}
}

func TestTokenByAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantSym string
		wantOK  bool
	}{
		{"exact match", "0x20C0000000000000000000000000000000000000", "pathUSD", true},
		{"lowercase match", "0x20c0000000000000000000000000000000000001", "αUSD", true},
		{"unknown", "0x0000000000000000000000000000000000000001", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, ok := TokenByAddress(DefaultTokens, tt.address)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && tok.Symbol != tt.wantSym {
				t.Errorf("symbol = %s, want %s", tok.Symbol, tt.wantSym)
			}
		})
	}
}

func TestExplorerURLs(t *testing.T) {
	hash := "0xabc"
	if got := Moderato.TxURL(hash); !strings.HasSuffix(got, "/tx/0xabc") {
		t.Errorf("TxURL = %q", got)
	}
	if got := Moderato.AddressURL("0xdef"); !strings.HasSuffix(got, "/address/0xdef") {
		t.Errorf("AddressURL = %q", got)
	}
	if got := Moderato.TokenURL("0x20c"); !strings.HasSuffix(got, "/token/0x20c") {
		t.Errorf("TokenURL = %q", got)
	}
}

func TestCallShape(t *testing.T) {
	plain := &UnsignedCall{Kind: CallTransfer}
	memo := &UnsignedCall{Kind: CallTransferWithMemo}
	pref := &UnsignedCall{Kind: CallSetFeeToken}

	if plain.Method() != "transfer" || len(plain.Args()) != 2 {
		t.Errorf("plain call: method %q args %d", plain.Method(), len(plain.Args()))
	}
	if memo.Method() != "transferWithMemo" || len(memo.Args()) != 3 {
		t.Errorf("memo call: method %q args %d", memo.Method(), len(memo.Args()))
	}
	if pref.Method() != "setUserToken" || len(pref.Args()) != 1 {
		t.Errorf("preference call: method %q args %d", pref.Method(), len(pref.Args()))
	}
}

func TestTxStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !StatusConfirmed.Terminal() || !StatusFailed.Terminal() {
		t.Error("confirmed and failed must be terminal")
	}
}
