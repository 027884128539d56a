// Package tempo provides the core payment engine for the Tempo stablecoin
// ledger: network and token constants, transfer and batch call construction
// types, amount conversion, collaborator interfaces, and the shared error
// taxonomy. Blockchain-specific collaborators live in the rpc, wallet, and
// sponsor subpackages; session orchestration lives in engine.
package tempo

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Network contains chain-level configuration for a Tempo deployment.
// All contract addresses are predeployed system contracts with fixed
// addresses on the network.
type Network struct {
	// ChainID is the EIP-155 chain identifier.
	ChainID int64

	// Name is the human-readable network name.
	Name string

	// RPCURL is the default JSON-RPC endpoint.
	RPCURL string

	// ExplorerURL is the block explorer base URL.
	ExplorerURL string

	// SponsorURL is the fee-sponsorship service base URL.
	SponsorURL string

	// FeeManager is the system contract holding per-account fee token
	// preferences.
	FeeManager common.Address

	// TIP20Factory is the system contract that deploys TIP-20 tokens.
	TIP20Factory common.Address

	// FeeDecimals is the decimal precision fees are quoted in. Tempo fees
	// are denominated in stablecoins, always 6.
	FeeDecimals uint8
}

// Moderato is the configuration for the Tempo Moderato testnet.
// Addresses verified against the deployed system contracts.
var Moderato = Network{
	ChainID:      42431,
	Name:         "Tempo Moderato Testnet",
	RPCURL:       "https://rpc.moderato.tempo.xyz",
	ExplorerURL:  "https://explore.tempo.xyz",
	SponsorURL:   "https://sponsor.moderato.tempo.xyz",
	FeeManager:   common.HexToAddress("0x1000000000000000000000000000000000000000"),
	TIP20Factory: common.HexToAddress("0x20Fc000000000000000000000000000000000000"),
	FeeDecimals:  6,
}

// TxURL returns the explorer URL for a transaction hash.
func (n Network) TxURL(hash string) string {
	return fmt.Sprintf("%s/tx/%s", n.ExplorerURL, hash)
}

// AddressURL returns the explorer URL for an account address.
func (n Network) AddressURL(addr string) string {
	return fmt.Sprintf("%s/address/%s", n.ExplorerURL, addr)
}

// TokenURL returns the explorer URL for a token contract.
func (n Network) TokenURL(addr string) string {
	return fmt.Sprintf("%s/token/%s", n.ExplorerURL, addr)
}

// Token describes a TIP-20 token. Immutable once constructed; Decimals is
// fixed at creation and all amount formatting must use it.
type Token struct {
	// Address is the token contract address.
	Address common.Address `json:"address"`

	// Symbol is the token symbol (e.g., "pathUSD").
	Symbol string `json:"symbol"`

	// Name is the human-readable token name.
	Name string `json:"name"`

	// Decimals is the number of decimal places for the token.
	Decimals uint8 `json:"decimals"`

	// Default reports whether the token belongs to the network's fixed
	// default set rather than a user-added custom list.
	Default bool `json:"isDefault"`
}

// DefaultTokens is the fixed default stablecoin set on Moderato.
// The first entry is the default fee token for accounts with no stored
// preference.
var DefaultTokens = []Token{
	{
		Address:  common.HexToAddress("0x20c0000000000000000000000000000000000000"),
		Symbol:   "pathUSD",
		Name:     "Path USD",
		Decimals: 6,
		Default:  true,
	},
	{
		Address:  common.HexToAddress("0x20c0000000000000000000000000000000000001"),
		Symbol:   "αUSD",
		Name:     "Alpha USD",
		Decimals: 6,
		Default:  true,
	},
	{
		Address:  common.HexToAddress("0x20c0000000000000000000000000000000000002"),
		Symbol:   "βUSD",
		Name:     "Beta USD",
		Decimals: 6,
		Default:  true,
	},
	{
		Address:  common.HexToAddress("0x20c0000000000000000000000000000000000003"),
		Symbol:   "θUSD",
		Name:     "Theta USD",
		Decimals: 6,
		Default:  true,
	},
}

// DefaultFeeToken returns the token fees default to when an account has no
// stored preference.
func DefaultFeeToken() Token {
	return DefaultTokens[0]
}

// TokenByAddress looks up a token by contract address in the given set.
// The comparison is case-insensitive on the hex form.
func TokenByAddress(tokens []Token, address string) (Token, bool) {
	for _, t := range tokens {
		if strings.EqualFold(t.Address.Hex(), address) {
			return t, true
		}
	}
	return Token{}, false
}

// IsTIP20Address reports whether an address carries the TIP-20 token
// contract prefix.
func IsTIP20Address(address string) bool {
	return strings.HasPrefix(strings.ToLower(address), "0x20c")
}
