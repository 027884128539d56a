package tracker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/ledger"
	"github.com/tempoxyz/tempo-go/store"
)

type fakeSubmitter struct {
	receipts map[string]*tempo.Receipt
	err      error
	block    bool
}

func (f *fakeSubmitter) SubmitCall(ctx context.Context, signer tempo.Signer, call *tempo.UnsignedCall) (string, error) {
	return "", nil
}

func (f *fakeSubmitter) SubmitBundle(ctx context.Context, signer tempo.Signer, bundle *tempo.UnsignedBundle) (string, error) {
	return "", nil
}

func (f *fakeSubmitter) AwaitReceipt(ctx context.Context, hash string) (*tempo.Receipt, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, context.DeadlineExceeded
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLedger(t *testing.T, hashes ...string) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(store.NewMemoryStore(), common.HexToAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F"))
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	for _, hash := range hashes {
		if err := l.Record(tempo.TransactionRecord{Hash: hash, Status: tempo.StatusPending}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	return l
}

func TestTrackConfirms(t *testing.T) {
	l := newLedger(t, "0xaa")
	sub := &fakeSubmitter{receipts: map[string]*tempo.Receipt{
		"0xaa": {TxHash: "0xaa", Success: true},
	}}

	tr := New(sub, l, WithLogger(quietLogger()))
	tr.Track("0xaa")
	tr.Wait()

	if got := l.Records()[0].Status; got != tempo.StatusConfirmed {
		t.Errorf("status = %s, want %s", got, tempo.StatusConfirmed)
	}
}

func TestTrackRecordsRevert(t *testing.T) {
	l := newLedger(t, "0xaa")
	sub := &fakeSubmitter{receipts: map[string]*tempo.Receipt{
		"0xaa": {TxHash: "0xaa", Success: false},
	}}

	tr := New(sub, l, WithLogger(quietLogger()))
	tr.Track("0xaa")
	tr.Wait()

	if got := l.Records()[0].Status; got != tempo.StatusFailed {
		t.Errorf("status = %s, want %s", got, tempo.StatusFailed)
	}
}

func TestTrackTimeoutLeavesPending(t *testing.T) {
	l := newLedger(t, "0xaa")
	sub := &fakeSubmitter{block: true}

	tr := New(sub, l, WithLogger(quietLogger()), WithTimeout(20*time.Millisecond))
	tr.Track("0xaa")
	tr.Wait()

	if got := l.Records()[0].Status; got != tempo.StatusPending {
		t.Errorf("status = %s, want %s", got, tempo.StatusPending)
	}
}

func TestTrackErrorLeavesPending(t *testing.T) {
	l := newLedger(t, "0xaa")
	sub := &fakeSubmitter{err: context.Canceled}

	tr := New(sub, l, WithLogger(quietLogger()))
	tr.Track("0xaa")
	tr.Wait()

	if got := l.Records()[0].Status; got != tempo.StatusPending {
		t.Errorf("status = %s, want %s", got, tempo.StatusPending)
	}
}

func TestTrackResolvesBatchRecords(t *testing.T) {
	l := newLedger(t, "0xbundle", "0xbundle", "0xbundle")
	sub := &fakeSubmitter{receipts: map[string]*tempo.Receipt{
		"0xbundle": {TxHash: "0xbundle", Success: true},
	}}

	tr := New(sub, l, WithLogger(quietLogger()))
	tr.Track("0xbundle")
	tr.Wait()

	for i, rec := range l.Records() {
		if rec.Status != tempo.StatusConfirmed {
			t.Errorf("record %d status = %s, want %s", i, rec.Status, tempo.StatusConfirmed)
		}
	}
}
