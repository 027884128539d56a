// Package sponsor negotiates fee sponsorship with a paymaster service.
// When a session opts in, the transfer builder asks the sponsor to cover
// the transaction fee before the call is released for signing; the build
// blocks on the acknowledgment and fails if the sponsor declines or does
// not answer in time.
package sponsor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tempoxyz/tempo-go"
)

// Request describes the payment the sponsor is asked to cover.
type Request struct {
	// From is the paying account.
	From string `json:"from"`

	// Token is the token being transferred.
	Token string `json:"token"`

	// Amount is the transfer amount in atomic units.
	Amount string `json:"amount"`

	// Calls is the number of calls in the submission (1 for a single
	// transfer, the queue length for a batch).
	Calls int `json:"calls"`
}

// Grant is the sponsor's acknowledgment.
type Grant struct {
	// Granted reports whether the sponsor will cover the fee.
	Granted bool `json:"granted"`

	// Reason explains a denial.
	Reason string `json:"reason,omitempty"`

	// SponsorshipID identifies the grant for reconciliation.
	SponsorshipID string `json:"sponsorshipId,omitempty"`
}

// Negotiator is the sponsorship collaborator consumed by the transfer
// builder.
type Negotiator interface {
	// Negotiate requests sponsorship and blocks until the sponsor answers
	// or the context ends. A denial or timeout returns an error wrapping
	// tempo.ErrSponsorshipUnavailable.
	Negotiate(ctx context.Context, req Request) (*Grant, error)
}

// Client negotiates sponsorship over HTTP.
type Client struct {
	// BaseURL is the sponsor service base URL.
	BaseURL string

	// HTTPClient is the underlying client. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Timeout bounds a negotiation round-trip when the caller's context
	// carries no earlier deadline.
	Timeout time.Duration

	// Tokens mints the bearer tokens the sponsor authenticates requests
	// with. Optional; unauthenticated sponsors leave it nil.
	Tokens *TokenSource
}

// NewClient creates a sponsorship client for the given service.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: http.DefaultClient,
		Timeout:    10 * time.Second,
	}
}

// Negotiate implements Negotiator.
func (c *Client) Negotiate(ctx context.Context, req Request) (*Grant, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sponsorship request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/sponsorships", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if c.Tokens != nil {
		bearer, err := c.Tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to mint sponsor auth token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tempo.ErrSponsorshipUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: sponsor returned status %d", tempo.ErrSponsorshipUnavailable, resp.StatusCode)
	}

	var grant Grant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("%w: undecodable sponsor response: %v", tempo.ErrSponsorshipUnavailable, err)
	}
	if !grant.Granted {
		return nil, fmt.Errorf("%w: %s", tempo.ErrSponsorshipUnavailable, denialReason(grant))
	}
	return &grant, nil
}

func denialReason(grant Grant) string {
	if grant.Reason == "" {
		return "sponsor declined"
	}
	return grant.Reason
}
