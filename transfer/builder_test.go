package transfer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/memo"
	"github.com/tempoxyz/tempo-go/sponsor"
)

var (
	from  = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0")
	bob   = "0x1111111111111111111111111111111111111111"
	carol = "0x2222222222222222222222222222222222222222"
)

func defaultLookup(address string) (tempo.Token, bool) {
	return tempo.TokenByAddress(tempo.DefaultTokens, address)
}

func pathUSD() string {
	return tempo.DefaultTokens[0].Address.Hex()
}

// fakeSponsor records negotiations and answers with a canned result.
type fakeSponsor struct {
	err   error
	calls []sponsor.Request
}

func (f *fakeSponsor) Negotiate(ctx context.Context, req sponsor.Request) (*sponsor.Grant, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &sponsor.Grant{Granted: true}, nil
}

func TestBuildPlainTransfer(t *testing.T) {
	b := NewBuilder(defaultLookup)

	call, err := b.Build(context.Background(), from, tempo.TransferRequest{
		Token:  pathUSD(),
		To:     bob,
		Amount: "10",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if call.Kind != tempo.CallTransfer {
		t.Errorf("kind = %v, want CallTransfer", call.Kind)
	}
	if call.Method() != "transfer" {
		t.Errorf("method = %q", call.Method())
	}
	if call.Value.String() != "10000000" {
		t.Errorf("value = %s", call.Value)
	}
	if call.To != common.HexToAddress(bob) {
		t.Errorf("to = %s", call.To.Hex())
	}
}

func TestBuildMemoTransfer(t *testing.T) {
	b := NewBuilder(defaultLookup)

	call, err := b.Build(context.Background(), from, tempo.TransferRequest{
		Token:  pathUSD(),
		To:     bob,
		Amount: "1.5",
		Memo:   "INV-001",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if call.Kind != tempo.CallTransferWithMemo {
		t.Errorf("kind = %v, want CallTransferWithMemo", call.Kind)
	}
	if call.Memo != memo.Encode("INV-001") {
		t.Error("memo field does not match codec output")
	}
}

func TestBuildWhitespaceMemoIsPlain(t *testing.T) {
	b := NewBuilder(defaultLookup)

	call, err := b.Build(context.Background(), from, tempo.TransferRequest{
		Token:  pathUSD(),
		To:     bob,
		Amount: "1",
		Memo:   "   ",
	})
	if err != nil {
		t.Fatal(err)
	}
	if call.Kind != tempo.CallTransfer {
		t.Errorf("whitespace-only memo should build a plain transfer, got %v", call.Kind)
	}
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     tempo.TransferRequest
		wantErr error
	}{
		{
			name:    "malformed recipient",
			req:     tempo.TransferRequest{Token: pathUSD(), To: "0xNOTANADDRESS", Amount: "1"},
			wantErr: tempo.ErrInvalidRecipient,
		},
		{
			name:    "null recipient",
			req:     tempo.TransferRequest{Token: pathUSD(), To: "0x0000000000000000000000000000000000000000", Amount: "1"},
			wantErr: tempo.ErrInvalidRecipient,
		},
		{
			name:    "zero amount",
			req:     tempo.TransferRequest{Token: pathUSD(), To: bob, Amount: "0"},
			wantErr: tempo.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			req:     tempo.TransferRequest{Token: pathUSD(), To: bob, Amount: "-5"},
			wantErr: tempo.ErrInvalidAmount,
		},
		{
			name:    "excess precision",
			req:     tempo.TransferRequest{Token: pathUSD(), To: bob, Amount: "0.0000001"},
			wantErr: tempo.ErrInvalidAmount,
		},
		{
			name:    "unknown token",
			req:     tempo.TransferRequest{Token: "0x9999999999999999999999999999999999999999", To: bob, Amount: "1"},
			wantErr: tempo.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Sponsor attached to prove no collaborator is reached when
			// validation fails.
			sp := &fakeSponsor{}
			b := NewBuilder(defaultLookup, WithSponsor(sp))

			_, err := b.Build(context.Background(), from, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
			if len(sp.calls) != 0 {
				t.Error("validation failure still reached the sponsor")
			}
		})
	}
}

func TestBuildSponsorship(t *testing.T) {
	sp := &fakeSponsor{}
	b := NewBuilder(defaultLookup, WithSponsor(sp))

	_, err := b.Build(context.Background(), from, tempo.TransferRequest{
		Token:  pathUSD(),
		To:     bob,
		Amount: "2",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(sp.calls) != 1 {
		t.Fatalf("sponsor negotiated %d times, want 1", len(sp.calls))
	}
	if sp.calls[0].Amount != "2000000" || sp.calls[0].Calls != 1 {
		t.Errorf("sponsor saw %+v", sp.calls[0])
	}
}

func TestBuildSponsorshipDenied(t *testing.T) {
	sp := &fakeSponsor{err: tempo.ErrSponsorshipUnavailable}
	b := NewBuilder(defaultLookup, WithSponsor(sp))

	_, err := b.Build(context.Background(), from, tempo.TransferRequest{
		Token:  pathUSD(),
		To:     bob,
		Amount: "2",
	})
	if !errors.Is(err, tempo.ErrSponsorshipUnavailable) {
		t.Fatalf("want ErrSponsorshipUnavailable, got %v", err)
	}
}

func TestBatchBuildPreservesOrder(t *testing.T) {
	bb := NewBatchBuilder(NewBuilder(defaultLookup))

	queue := []tempo.TransferRequest{
		{Token: pathUSD(), To: bob, Amount: "10"},
		{Token: pathUSD(), To: carol, Amount: "5"},
	}

	bundle, err := bb.Build(context.Background(), from, queue)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(bundle.Calls) != 2 {
		t.Fatalf("bundle has %d calls, want 2", len(bundle.Calls))
	}
	if bundle.Calls[0].To != common.HexToAddress(bob) {
		t.Error("first call should pay bob")
	}
	if bundle.Calls[1].To != common.HexToAddress(carol) {
		t.Error("second call should pay carol")
	}
	if bundle.Calls[0].Value.String() != "10000000" || bundle.Calls[1].Value.String() != "5000000" {
		t.Errorf("values = %s, %s", bundle.Calls[0].Value, bundle.Calls[1].Value)
	}
}

func TestBatchBuildEmpty(t *testing.T) {
	bb := NewBatchBuilder(NewBuilder(defaultLookup))

	if _, err := bb.Build(context.Background(), from, nil); !errors.Is(err, tempo.ErrEmptyBatch) {
		t.Fatalf("want ErrEmptyBatch, got %v", err)
	}
}

func TestBatchBuildInvalidEntryPoisonsBundle(t *testing.T) {
	bb := NewBatchBuilder(NewBuilder(defaultLookup))

	queue := []tempo.TransferRequest{
		{Token: pathUSD(), To: bob, Amount: "10"},
		{Token: pathUSD(), To: strings.Repeat("x", 10), Amount: "5"},
	}

	if _, err := bb.Build(context.Background(), from, queue); !errors.Is(err, tempo.ErrInvalidRecipient) {
		t.Fatalf("want ErrInvalidRecipient, got %v", err)
	}
}

func TestBatchBuildMixedShapes(t *testing.T) {
	bb := NewBatchBuilder(NewBuilder(defaultLookup))

	queue := []tempo.TransferRequest{
		{Token: pathUSD(), To: bob, Amount: "1", Memo: "rent"},
		{Token: pathUSD(), To: carol, Amount: "2"},
	}

	bundle, err := bb.Build(context.Background(), from, queue)
	if err != nil {
		t.Fatal(err)
	}
	if bundle.Calls[0].Kind != tempo.CallTransferWithMemo {
		t.Error("first call should carry a memo")
	}
	if bundle.Calls[1].Kind != tempo.CallTransfer {
		t.Error("second call should be plain")
	}
}

func TestBatchBuildSponsorship(t *testing.T) {
	sp := &fakeSponsor{}
	bb := NewBatchBuilder(NewBuilder(defaultLookup, WithSponsor(sp)))

	queue := []tempo.TransferRequest{
		{Token: pathUSD(), To: bob, Amount: "10"},
		{Token: pathUSD(), To: carol, Amount: "5"},
	}
	if _, err := bb.Build(context.Background(), from, queue); err != nil {
		t.Fatal(err)
	}

	if len(sp.calls) != 1 {
		t.Fatalf("sponsor negotiated %d times, want 1 per bundle", len(sp.calls))
	}
	if sp.calls[0].Calls != 2 || sp.calls[0].Amount != "15000000" {
		t.Errorf("sponsor saw %+v", sp.calls[0])
	}
}
