// Package engine orchestrates a payment-terminal session: one active wallet,
// its token set and balances, the transfer queue, and the persisted
// transaction history. A Session serializes all state mutations; the
// blockchain collaborators behind it stay free of session state.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/balance"
	"github.com/tempoxyz/tempo-go/fee"
	"github.com/tempoxyz/tempo-go/ledger"
	"github.com/tempoxyz/tempo-go/sponsor"
	"github.com/tempoxyz/tempo-go/store"
	"github.com/tempoxyz/tempo-go/tracker"
	"github.com/tempoxyz/tempo-go/transfer"
	"github.com/tempoxyz/tempo-go/wallet"
)

// DefaultSubmitTimeout bounds how long a submission may block before the
// outcome is treated as unknown.
const DefaultSubmitTimeout = 30 * time.Second

// Config wires a Session's collaborators. Network, Node, Submitter,
// Validator, and Store are required.
type Config struct {
	Network   tempo.Network
	Node      tempo.NodeClient
	Submitter tempo.Submitter
	Validator tempo.TokenValidator
	Store     store.Store

	// Sponsor, when set, enables fee-sponsorship negotiation for sessions
	// that turn it on.
	Sponsor sponsor.Negotiator

	// SubmitTimeout bounds a single submission. Zero means
	// DefaultSubmitTimeout.
	SubmitTimeout time.Duration

	// HistoryCap bounds the persisted history. Zero means the ledger
	// default.
	HistoryCap int

	Logger *slog.Logger
}

// Session is the stateful core of a payment terminal. All exported methods
// are safe for concurrent use; mutations are serialized.
type Session struct {
	mu  sync.Mutex
	cfg Config

	wallet    *wallet.Identity
	custom    []tempo.Token
	queue     []tempo.TransferRequest
	sponsored bool
	feeToken  common.Address

	fees     *fee.Resolver
	balances *balance.Aggregator
	history  *ledger.Ledger
	tracker  *tracker.Tracker
}

type snapshot struct {
	CustomTokens []tempo.Token `json:"customTokens"`
	Sponsored    bool          `json:"sponsored"`
	FeeToken     string        `json:"feeToken,omitempty"`
}

// New builds a Session and restores any persisted wallet and session state.
// A store with no wallet yields a logged-out session, not an error.
func New(cfg Config) (*Session, error) {
	if cfg.Node == nil || cfg.Submitter == nil || cfg.Validator == nil || cfg.Store == nil {
		return nil, errors.New("engine: node, submitter, validator, and store are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}

	s := &Session{cfg: cfg}

	w, err := wallet.Load(cfg.Store)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s, nil
		}
		return nil, err
	}
	if err := s.attach(w); err != nil {
		return nil, err
	}
	s.cfg.Logger.Info("session restored", "address", w.Address().Hex())
	return s, nil
}

// attach wires the account-scoped collaborators for a wallet and restores
// its persisted session state. Callers hold the lock or own the session
// exclusively.
func (s *Session) attach(w *wallet.Identity) error {
	var opts []ledger.Option
	if s.cfg.HistoryCap > 0 {
		opts = append(opts, ledger.WithCap(s.cfg.HistoryCap))
	}
	h, err := ledger.Open(s.cfg.Store, w.Address(), opts...)
	if err != nil {
		return err
	}

	s.wallet = w
	s.history = h
	s.tracker = tracker.New(s.cfg.Submitter, h, tracker.WithLogger(s.cfg.Logger))
	s.fees = fee.NewResolver(s.cfg.Node, s.cfg.Submitter, s.cfg.Network, fee.WithLogger(s.cfg.Logger))
	s.balances = balance.NewAggregator(s.cfg.Node, balance.WithLogger(s.cfg.Logger))

	return s.restoreSnapshot(w.Address())
}

func (s *Session) snapshotKey(account common.Address) string {
	return fmt.Sprintf("session/%s", account.Hex())
}

func (s *Session) restoreSnapshot(account common.Address) error {
	data, err := s.cfg.Store.Get(s.snapshotKey(account))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session state: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode session state: %w", err)
	}
	s.custom = snap.CustomTokens
	s.sponsored = snap.Sponsored
	if snap.FeeToken != "" {
		s.feeToken = common.HexToAddress(snap.FeeToken)
		// The stored choice wins over a chain read, which may fail or
		// still lag the optimistic preference write.
		s.fees.Prime(account, s.feeToken)
	}
	return nil
}

// persistSnapshot flushes custom tokens, the sponsorship flag, and the fee
// token preference; the transfer queue is deliberately ephemeral and never
// persisted. Callers hold the lock.
func (s *Session) persistSnapshot() error {
	snap := snapshot{CustomTokens: s.custom, Sponsored: s.sponsored}
	if s.feeToken != (common.Address{}) {
		snap.FeeToken = s.feeToken.Hex()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	if err := s.cfg.Store.Set(s.snapshotKey(s.wallet.Address()), data); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	return nil
}

// CreateWallet generates a fresh wallet and activates it. An already-active
// wallet must be logged out first; creation never silently replaces keys.
func (s *Session) CreateWallet() (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet != nil {
		return common.Address{}, errors.New("engine: a wallet is already active")
	}
	w, err := wallet.New(wallet.WithStore(s.cfg.Store))
	if err != nil {
		return common.Address{}, err
	}
	if err := s.attach(w); err != nil {
		return common.Address{}, err
	}
	s.cfg.Logger.Info("wallet created", "address", w.Address().Hex())
	return w.Address(), nil
}

// ImportWallet activates a wallet from a hex-encoded secret key.
func (s *Session) ImportWallet(secret string) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet != nil {
		return common.Address{}, errors.New("engine: a wallet is already active")
	}
	w, err := wallet.Import(secret, wallet.WithStore(s.cfg.Store))
	if err != nil {
		return common.Address{}, err
	}
	if err := s.attach(w); err != nil {
		return common.Address{}, err
	}
	s.cfg.Logger.Info("wallet imported", "address", w.Address().Hex())
	return w.Address(), nil
}

// Address returns the active account address.
func (s *Session) Address() (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return common.Address{}, tempo.ErrNoWallet
	}
	return s.wallet.Address(), nil
}

// ExportSecret returns the active wallet's hex-encoded secret key.
func (s *Session) ExportSecret() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return "", tempo.ErrNoWallet
	}
	return s.wallet.Secret(), nil
}

// Logout is the sole session teardown: it wipes the key material, drops the
// transfer queue and custom tokens, and removes the persisted session
// state. History stays in the store for the next session of this account.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return tempo.ErrNoWallet
	}
	addr := s.wallet.Address()
	if err := s.wallet.Clear(); err != nil {
		return err
	}
	if err := s.cfg.Store.Remove(s.snapshotKey(addr)); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to remove session state: %w", err)
	}

	s.wallet = nil
	s.custom = nil
	s.queue = nil
	s.sponsored = false
	s.feeToken = common.Address{}
	s.fees = nil
	s.balances = nil
	s.history = nil
	s.tracker = nil

	s.cfg.Logger.Info("logged out", "address", addr.Hex())
	return nil
}

// Tokens returns the session's token set: network defaults first, then
// custom tokens in the order they were added.
func (s *Session) Tokens() []tempo.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenSet()
}

func (s *Session) tokenSet() []tempo.Token {
	out := make([]tempo.Token, 0, len(tempo.DefaultTokens)+len(s.custom))
	out = append(out, tempo.DefaultTokens...)
	out = append(out, s.custom...)
	return out
}

// AddToken vets a contract address against the chain and adds it to the
// session's custom token set. Adding a token already in the set is a no-op.
func (s *Session) AddToken(ctx context.Context, address string) (tempo.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return tempo.Token{}, tempo.ErrNoWallet
	}
	if !tempo.IsTIP20Address(address) {
		return tempo.Token{}, fmt.Errorf("%w: %s is not a token contract address", tempo.ErrInvalidToken, address)
	}
	if tok, ok := tempo.TokenByAddress(s.tokenSet(), address); ok {
		return tok, nil
	}

	tok, err := s.cfg.Validator.TokenMetadata(ctx, common.HexToAddress(address))
	if err != nil {
		return tempo.Token{}, err
	}
	s.custom = append(s.custom, tok)
	if err := s.persistSnapshot(); err != nil {
		return tempo.Token{}, err
	}
	s.cfg.Logger.Info("token added", "address", tok.Address.Hex(), "symbol", tok.Symbol)
	return tok, nil
}

// RemoveToken drops a custom token. Default tokens cannot be removed.
func (s *Session) RemoveToken(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return tempo.ErrNoWallet
	}
	for i, tok := range s.custom {
		if strings.EqualFold(tok.Address.Hex(), address) {
			s.custom = append(s.custom[:i], s.custom[i+1:]...)
			return s.persistSnapshot()
		}
	}
	return fmt.Errorf("%w: %s is not a custom token", tempo.ErrInvalidToken, address)
}

// RefreshBalances fetches current balances for every token in the session's
// set. Individual fetch failures surface as zero balances, never as errors.
func (s *Session) RefreshBalances(ctx context.Context) ([]tempo.TokenBalance, error) {
	s.mu.Lock()
	if s.wallet == nil {
		s.mu.Unlock()
		return nil, tempo.ErrNoWallet
	}
	account := s.wallet.Address()
	tokens := s.tokenSet()
	agg := s.balances
	s.mu.Unlock()

	return agg.FetchAll(ctx, account, tokens), nil
}

// FeeToken returns the token the account currently pays fees in.
func (s *Session) FeeToken(ctx context.Context) (tempo.Token, error) {
	s.mu.Lock()
	if s.wallet == nil {
		s.mu.Unlock()
		return tempo.Token{}, tempo.ErrNoWallet
	}
	account := s.wallet.Address()
	fees := s.fees
	tokens := s.tokenSet()
	s.mu.Unlock()

	addr := fees.Resolve(ctx, account)
	if tok, ok := tempo.TokenByAddress(tokens, addr.Hex()); ok {
		return tok, nil
	}
	// A preference can point at a token outside the session's set.
	return tempo.Token{Address: addr, Decimals: s.cfg.Network.FeeDecimals}, nil
}

// SetFeeToken writes the account's fee token preference on-chain and
// returns the transaction hash. Once the node accepts the submission the
// preference also joins the persisted session state, so a restart resolves
// to the stored choice even while the chain still reports the old one.
func (s *Session) SetFeeToken(ctx context.Context, address string) (string, error) {
	s.mu.Lock()
	if s.wallet == nil {
		s.mu.Unlock()
		return "", tempo.ErrNoWallet
	}
	if _, ok := tempo.TokenByAddress(s.tokenSet(), address); !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s is not in the session token set", tempo.ErrInvalidToken, address)
	}
	w := s.wallet
	fees := s.fees
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()
	hash, err := fees.SetPreference(ctx, w, common.HexToAddress(address))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.feeToken = common.HexToAddress(address)
	err = s.persistSnapshot()
	s.mu.Unlock()
	if err != nil {
		return hash, err
	}
	return hash, nil
}

// Sponsored reports whether fee-sponsorship negotiation is enabled.
func (s *Session) Sponsored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sponsored
}

// SetSponsored toggles fee-sponsorship negotiation for later submissions.
func (s *Session) SetSponsored(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return tempo.ErrNoWallet
	}
	s.sponsored = enabled
	return s.persistSnapshot()
}

// builder constructs a transfer builder over the current token set, with
// sponsorship attached when the session has it enabled. Callers hold the
// lock.
func (s *Session) builder() *transfer.Builder {
	tokens := s.tokenSet()
	lookup := func(address string) (tempo.Token, bool) {
		return tempo.TokenByAddress(tokens, address)
	}
	var opts []transfer.Option
	if s.sponsored && s.cfg.Sponsor != nil {
		opts = append(opts, transfer.WithSponsor(s.cfg.Sponsor))
	}
	return transfer.NewBuilder(lookup, opts...)
}

// FeeEstimator is implemented by submitters that can price a call before it
// is signed. The rpc client implements it; fakes need not.
type FeeEstimator interface {
	EstimateCost(ctx context.Context, call *tempo.UnsignedCall) (*big.Int, error)
}

// EstimateFee prices a transfer without submitting it, returned as a
// decimal string in the network's fee precision. The request goes through
// the same validation as Send; sponsorship is not negotiated for an
// estimate.
func (s *Session) EstimateFee(ctx context.Context, req tempo.TransferRequest) (string, error) {
	s.mu.Lock()
	if s.wallet == nil {
		s.mu.Unlock()
		return "", tempo.ErrNoWallet
	}
	w := s.wallet
	tokens := s.tokenSet()
	s.mu.Unlock()

	est, ok := s.cfg.Submitter.(FeeEstimator)
	if !ok {
		return "", errors.New("engine: submitter does not support fee estimation")
	}

	b := transfer.NewBuilder(func(address string) (tempo.Token, bool) {
		return tempo.TokenByAddress(tokens, address)
	})
	call, err := b.Build(ctx, w.Address(), req)
	if err != nil {
		return "", err
	}
	cost, err := est.EstimateCost(ctx, call)
	if err != nil {
		return "", err
	}
	return tempo.FormatAmount(cost, s.cfg.Network.FeeDecimals), nil
}

// Send validates, builds, and submits a single transfer. On acceptance the
// transfer is recorded as Pending and tracked to its terminal status in the
// background; Send itself never waits for confirmation.
func (s *Session) Send(ctx context.Context, req tempo.TransferRequest) (tempo.TransactionRecord, error) {
	s.mu.Lock()
	if s.wallet == nil {
		s.mu.Unlock()
		return tempo.TransactionRecord{}, tempo.ErrNoWallet
	}
	w := s.wallet
	b := s.builder()
	h := s.history
	tr := s.tracker
	s.mu.Unlock()

	call, err := b.Build(ctx, w.Address(), req)
	if err != nil {
		return tempo.TransactionRecord{}, err
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()
	hash, err := s.cfg.Submitter.SubmitCall(submitCtx, w, call)
	if err != nil {
		return tempo.TransactionRecord{}, err
	}

	rec := s.record(hash, w.Address(), req)
	if err := h.Record(rec); err != nil {
		s.cfg.Logger.Error("failed to record transfer", "hash", hash, "error", err)
	}
	tr.Track(hash)
	return rec, nil
}

// QueueTransfer validates a transfer locally and appends it to the batch
// queue. Nothing is signed or submitted until ExecuteBatch.
func (s *Session) QueueTransfer(ctx context.Context, req tempo.TransferRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return 0, tempo.ErrNoWallet
	}
	// Build and discard: same validation path as submission, so a queued
	// entry cannot fail later for a reason the terminal could have shown
	// at entry time. Sponsorship is deferred to ExecuteBatch.
	b := transfer.NewBuilder(func(address string) (tempo.Token, bool) {
		return tempo.TokenByAddress(s.tokenSet(), address)
	})
	if _, err := b.Build(ctx, s.wallet.Address(), req); err != nil {
		return 0, err
	}
	s.queue = append(s.queue, req)
	return len(s.queue), nil
}

// Queue returns the pending batch entries in submission order.
func (s *Session) Queue() []tempo.TransferRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]tempo.TransferRequest, len(s.queue))
	copy(out, s.queue)
	return out
}

// ClearQueue drops all pending batch entries without submitting them.
func (s *Session) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
}

// ExecuteBatch submits the queued transfers as one atomic bundle. On
// acceptance every entry is recorded as Pending under the bundle hash and
// the queue is cleared; on any failure the queue is left intact so the
// operator can retry or amend it.
func (s *Session) ExecuteBatch(ctx context.Context) ([]tempo.TransactionRecord, error) {
	s.mu.Lock()
	if s.wallet == nil {
		s.mu.Unlock()
		return nil, tempo.ErrNoWallet
	}
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return nil, tempo.ErrEmptyBatch
	}
	w := s.wallet
	queue := make([]tempo.TransferRequest, len(s.queue))
	copy(queue, s.queue)
	bb := transfer.NewBatchBuilder(s.builder())
	h := s.history
	tr := s.tracker
	s.mu.Unlock()

	bundle, err := bb.Build(ctx, w.Address(), queue)
	if err != nil {
		return nil, err
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()
	hash, err := s.cfg.Submitter.SubmitBundle(submitCtx, w, bundle)
	if err != nil {
		return nil, err
	}

	records := make([]tempo.TransactionRecord, 0, len(queue))
	for _, req := range queue {
		rec := s.record(hash, w.Address(), req)
		if err := h.Record(rec); err != nil {
			s.cfg.Logger.Error("failed to record batch entry", "hash", hash, "error", err)
		}
		records = append(records, rec)
	}
	tr.Track(hash)

	// Drop only the submitted prefix: entries queued while the submission
	// was in flight stay for the next batch.
	s.mu.Lock()
	if len(s.queue) > len(queue) {
		s.queue = append([]tempo.TransferRequest(nil), s.queue[len(queue):]...)
	} else {
		s.queue = nil
	}
	s.mu.Unlock()

	s.cfg.Logger.Info("batch submitted", "hash", hash, "transfers", len(records))
	return records, nil
}

// History returns the account's transaction history, most recent first.
func (s *Session) History() ([]tempo.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return nil, tempo.ErrNoWallet
	}
	return s.history.Records(), nil
}

// Wait blocks until all background status tracking has finished. Intended
// for shutdown and tests.
func (s *Session) Wait() {
	s.mu.Lock()
	tr := s.tracker
	s.mu.Unlock()

	if tr != nil {
		tr.Wait()
	}
}

func (s *Session) record(hash string, from common.Address, req tempo.TransferRequest) tempo.TransactionRecord {
	s.mu.Lock()
	tokens := s.tokenSet()
	s.mu.Unlock()

	symbol := ""
	if tok, ok := tempo.TokenByAddress(tokens, req.Token); ok {
		symbol = tok.Symbol
	}
	return tempo.TransactionRecord{
		Hash:        hash,
		From:        from.Hex(),
		To:          req.To,
		Amount:      req.Amount,
		Token:       req.Token,
		TokenSymbol: symbol,
		Memo:        strings.TrimSpace(req.Memo),
		Timestamp:   time.Now().Unix(),
		Status:      tempo.StatusPending,
	}
}
