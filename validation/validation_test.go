package validation

import (
	"errors"
	"testing"

	"github.com/tempoxyz/tempo-go"
)

func TestValidateRecipient(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"valid address", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0", false},
		{"valid lowercase", "0x742d35cc6634c0532925a3b844bc9e7595f0beb0", false},
		{"empty", "", true},
		{"missing prefix", "742d35Cc6634C0532925a3b844Bc9e7595f0bEb0", true},
		{"too short", "0x742d35Cc", true},
		{"too long", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb000", true},
		{"non-hex characters", "0xNOTANADDRESSNOTANADDRESSNOTANADDRESSNOTA", true},
		{"null address", "0x0000000000000000000000000000000000000000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecipient(tt.address)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, tempo.ErrInvalidRecipient) {
					t.Errorf("error should wrap ErrInvalidRecipient, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		wantErr  bool
	}{
		{"valid", "10.50", 6, false},
		{"at precision limit", "0.000001", 6, false},
		{"zero", "0", 6, true},
		{"negative", "-3", 6, true},
		{"beyond precision", "0.0000001", 6, true},
		{"garbage", "1e", 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount, tt.decimals)
			if tt.wantErr && !errors.Is(err, tempo.ErrInvalidAmount) {
				t.Errorf("want ErrInvalidAmount, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	token := tempo.DefaultTokens[0]
	valid := tempo.TransferRequest{
		Token:  token.Address.Hex(),
		To:     "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0",
		Amount: "5",
	}

	if err := ValidateRequest(valid, token); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	badTo := valid
	badTo.To = "0xNOTANADDRESS"
	if err := ValidateRequest(badTo, token); !errors.Is(err, tempo.ErrInvalidRecipient) {
		t.Errorf("want ErrInvalidRecipient, got %v", err)
	}

	mismatch := valid
	mismatch.Token = tempo.DefaultTokens[1].Address.Hex()
	if err := ValidateRequest(mismatch, token); !errors.Is(err, tempo.ErrInvalidToken) {
		t.Errorf("want ErrInvalidToken, got %v", err)
	}

	badAmount := valid
	badAmount.Amount = "0"
	if err := ValidateRequest(badAmount, token); !errors.Is(err, tempo.ErrInvalidAmount) {
		t.Errorf("want ErrInvalidAmount, got %v", err)
	}
}
