// Package rpc implements the ledger node collaborators over JSON-RPC: read
// calls, signed submission of single calls and atomic bundles, receipt
// polling, and TIP-20 metadata reads.
package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/tempoxyz/tempo-go"
)

// DefaultPollInterval is the receipt polling cadence.
const DefaultPollInterval = 2 * time.Second

// Client talks to a Tempo ledger node. It implements tempo.NodeClient,
// tempo.Submitter, and tempo.TokenValidator.
type Client struct {
	rpc          *gethrpc.Client
	network      tempo.Network
	logger       *slog.Logger
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for submission and polling events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPollInterval overrides the receipt polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// Dial connects to the network's JSON-RPC endpoint.
func Dial(ctx context.Context, network tempo.Network, opts ...Option) (*Client, error) {
	rc, err := gethrpc.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", network.RPCURL, err)
	}
	return NewClient(rc, network, opts...), nil
}

// NewClient wraps an existing JSON-RPC connection.
func NewClient(rc *gethrpc.Client, network tempo.Network, opts ...Option) *Client {
	c := &Client{
		rpc:          rc,
		network:      network,
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

type callMsg struct {
	From *common.Address `json:"from,omitempty"`
	To   *common.Address `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}

// Call executes a read-only contract method and returns the unpacked
// result values.
func (c *Client) Call(ctx context.Context, contract common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := packMethod(method, args...)
	if err != nil {
		return nil, err
	}

	var result hexutil.Bytes
	msg := callMsg{To: &contract, Data: data}
	if err := c.rpc.CallContext(ctx, &result, "eth_call", msg, "latest"); err != nil {
		return nil, fmt.Errorf("%s call to %s failed: %w", method, contract.Hex(), err)
	}
	return unpackResult(method, result)
}

// SubmitCall signs and broadcasts a single call as a transaction, returning
// the transaction hash once the node accepts it.
func (c *Client) SubmitCall(ctx context.Context, signer tempo.Signer, call *tempo.UnsignedCall) (string, error) {
	data, err := packCall(call)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tempo.ErrSubmissionRejected, err)
	}

	nonce, gasPrice, gas, err := c.txParams(ctx, call.From, call.Contract, data)
	if err != nil {
		return "", c.submissionError(ctx, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &call.Contract,
		Value:    new(big.Int),
		Data:     data,
	})
	signed, err := signer.SignTx(tx, big.NewInt(c.network.ChainID))
	if err != nil {
		return "", fmt.Errorf("%w: %v", tempo.ErrSubmissionRejected, err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("%w: %v", tempo.ErrSubmissionRejected, err)
	}

	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return "", c.submissionError(ctx, err)
	}
	c.logger.Info("transaction submitted",
		"hash", hash.Hex(),
		"method", call.Method(),
		"contract", call.Contract.Hex(),
	)
	return hash.Hex(), nil
}

// SubmitBundle signs and broadcasts an atomic bundle as one transaction:
// all calls apply or none do.
func (c *Client) SubmitBundle(ctx context.Context, signer tempo.Signer, bundle *tempo.UnsignedBundle) (string, error) {
	gas, err := c.bundleGas(ctx, bundle)
	if err != nil {
		return "", c.submissionError(ctx, err)
	}
	nonce, gasPrice, err := c.accountParams(ctx, bundle.From)
	if err != nil {
		return "", c.submissionError(ctx, err)
	}

	body, err := encodeBundleBody(bundle, uint64(c.network.ChainID), nonce, gasPrice.Bytes(), gas)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tempo.ErrSubmissionRejected, err)
	}
	digest, err := bundleDigest(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tempo.ErrSubmissionRejected, err)
	}
	sig, err := signer.SignDigest(digest.Bytes())
	if err != nil {
		return "", fmt.Errorf("%w: %v", tempo.ErrSubmissionRejected, err)
	}
	raw, _, err := encodeSignedBundle(body, sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tempo.ErrSubmissionRejected, err)
	}

	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return "", c.submissionError(ctx, err)
	}
	c.logger.Info("bundle submitted",
		"hash", hash.Hex(),
		"calls", len(bundle.Calls),
	)
	return hash.Hex(), nil
}

type rpcReceipt struct {
	TxHash common.Hash    `json:"transactionHash"`
	Status hexutil.Uint64 `json:"status"`
}

// AwaitReceipt polls for a transaction receipt until one exists or the
// context is done.
func (c *Client) AwaitReceipt(ctx context.Context, hash string) (*tempo.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var receipt *rpcReceipt
		err := c.rpc.CallContext(ctx, &receipt, "eth_getTransactionReceipt", hash)
		if err == nil && receipt != nil {
			return &tempo.Receipt{
				TxHash:  receipt.TxHash.Hex(),
				Success: receipt.Status == 1,
			}, nil
		}
		if err != nil {
			c.logger.Debug("receipt poll failed", "hash", hash, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: no receipt for %s", tempo.ErrSubmissionTimeout, hash)
		case <-ticker.C:
		}
	}
}

// TokenMetadata reads the TIP-20 descriptor for a contract. Any read
// failure or malformed result means the address is not a usable token.
func (c *Client) TokenMetadata(ctx context.Context, address common.Address) (tempo.Token, error) {
	name, err := c.stringCall(ctx, address, "name")
	if err != nil {
		return tempo.Token{}, fmt.Errorf("%w: %s: %v", tempo.ErrInvalidToken, address.Hex(), err)
	}
	symbol, err := c.stringCall(ctx, address, "symbol")
	if err != nil {
		return tempo.Token{}, fmt.Errorf("%w: %s: %v", tempo.ErrInvalidToken, address.Hex(), err)
	}

	values, err := c.Call(ctx, address, "decimals")
	if err != nil {
		return tempo.Token{}, fmt.Errorf("%w: %s: %v", tempo.ErrInvalidToken, address.Hex(), err)
	}
	decimals, ok := firstValue[uint8](values)
	if !ok {
		return tempo.Token{}, fmt.Errorf("%w: %s: malformed decimals result", tempo.ErrInvalidToken, address.Hex())
	}

	return tempo.Token{
		Address:  address,
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	}, nil
}

// EstimateCost returns the estimated fee for a call in wei-equivalent
// units: gas limit times gas price.
func (c *Client) EstimateCost(ctx context.Context, call *tempo.UnsignedCall) (*big.Int, error) {
	data, err := packCall(call)
	if err != nil {
		return nil, err
	}
	_, gasPrice, gas, err := c.txParams(ctx, call.From, call.Contract, data)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gas)), nil
}

func (c *Client) stringCall(ctx context.Context, contract common.Address, method string) (string, error) {
	values, err := c.Call(ctx, contract, method)
	if err != nil {
		return "", err
	}
	s, ok := firstValue[string](values)
	if !ok {
		return "", fmt.Errorf("malformed %s result", method)
	}
	return s, nil
}

func firstValue[T any](values []interface{}) (T, bool) {
	var zero T
	if len(values) == 0 {
		return zero, false
	}
	v, ok := values[0].(T)
	return v, ok
}

func (c *Client) accountParams(ctx context.Context, from common.Address) (uint64, *big.Int, error) {
	var nonce hexutil.Uint64
	if err := c.rpc.CallContext(ctx, &nonce, "eth_getTransactionCount", from, "pending"); err != nil {
		return 0, nil, fmt.Errorf("failed to read nonce: %w", err)
	}
	var gasPrice hexutil.Big
	if err := c.rpc.CallContext(ctx, &gasPrice, "eth_gasPrice"); err != nil {
		return 0, nil, fmt.Errorf("failed to read gas price: %w", err)
	}
	return uint64(nonce), gasPrice.ToInt(), nil
}

func (c *Client) txParams(ctx context.Context, from, to common.Address, data []byte) (uint64, *big.Int, uint64, error) {
	nonce, gasPrice, err := c.accountParams(ctx, from)
	if err != nil {
		return 0, nil, 0, err
	}
	gas, err := c.estimateGas(ctx, from, to, data)
	if err != nil {
		return 0, nil, 0, err
	}
	return nonce, gasPrice, gas, nil
}

func (c *Client) estimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	var gas hexutil.Uint64
	msg := callMsg{From: &from, To: &to, Data: data}
	if err := c.rpc.CallContext(ctx, &gas, "eth_estimateGas", msg); err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return uint64(gas), nil
}

func (c *Client) bundleGas(ctx context.Context, bundle *tempo.UnsignedBundle) (uint64, error) {
	var total uint64
	for i := range bundle.Calls {
		data, err := packCall(&bundle.Calls[i])
		if err != nil {
			return 0, err
		}
		gas, err := c.estimateGas(ctx, bundle.From, bundle.Calls[i].Contract, data)
		if err != nil {
			return 0, err
		}
		total += gas
	}
	return total, nil
}

// submissionError maps a node or transport error to the submission error
// taxonomy: a deadline means the outcome is unknown, anything else is a
// rejection.
func (c *Client) submissionError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", tempo.ErrSubmissionTimeout, err)
	}
	return fmt.Errorf("%w: %v", tempo.ErrSubmissionRejected, err)
}
