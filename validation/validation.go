// Package validation provides request validation for the payment engine.
// All checks here are synchronous and local: a request that fails
// validation must be rejected before any network interaction happens.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tempoxyz/tempo-go"
)

// addressRegex matches Tempo account addresses (0x followed by 40 hex chars).
var addressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// nullAddress is the designated null address; it is never a valid recipient
// or fee token.
const nullAddress = "0x0000000000000000000000000000000000000000"

// ValidateRecipient validates a transfer recipient address. The null
// address is rejected: sending to it burns funds and is never what a
// payment terminal intends.
//
// Returns an error wrapping tempo.ErrInvalidRecipient on failure.
func ValidateRecipient(address string) error {
	if address == "" {
		return fmt.Errorf("%w: address is empty", tempo.ErrInvalidRecipient)
	}
	if !addressRegex.MatchString(address) {
		return fmt.Errorf("%w: %q is not a 0x-prefixed 40-hex-char address", tempo.ErrInvalidRecipient, address)
	}
	if strings.EqualFold(address, nullAddress) {
		return fmt.Errorf("%w: null address", tempo.ErrInvalidRecipient)
	}
	return nil
}

// ValidateAddress validates a well-formed account or contract address
// without the null-address restriction.
func ValidateAddress(address string) error {
	if !addressRegex.MatchString(address) {
		return fmt.Errorf("invalid address format: %q", address)
	}
	return nil
}

// ValidateAmount validates a human-readable decimal amount against a
// token's precision. The amount must parse, be strictly positive, and be
// representable within the token's decimals.
//
// Returns an error wrapping tempo.ErrInvalidAmount on failure.
func ValidateAmount(amount string, decimals uint8) error {
	_, err := tempo.ParseAmount(amount, decimals)
	return err
}

// ValidateRequest validates a complete transfer request against its token
// descriptor. Recipient errors are reported before amount errors.
func ValidateRequest(req tempo.TransferRequest, token tempo.Token) error {
	if err := ValidateRecipient(req.To); err != nil {
		return err
	}
	if !strings.EqualFold(req.Token, token.Address.Hex()) {
		return fmt.Errorf("%w: request token %q does not match descriptor %s", tempo.ErrInvalidToken, req.Token, token.Address.Hex())
	}
	return ValidateAmount(req.Amount, token.Decimals)
}
