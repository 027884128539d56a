// Package httpapi exposes a payment-terminal session over HTTP. The core
// handlers use only the stdlib http.Handler interface; the chi and gin
// subpackages are thin adapters that mount the same handlers on those
// routers.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/engine"
)

// Handler serves the terminal API for one session.
type Handler struct {
	session *engine.Session
	logger  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates the API handler for a session.
func NewHandler(session *engine.Session, opts ...Option) *Handler {
	h := &Handler{
		session: session,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mux returns the full route table as a stdlib mux.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/wallet", h.GetWallet)
	mux.HandleFunc("POST /v1/wallet", h.CreateWallet)
	mux.HandleFunc("POST /v1/wallet/import", h.ImportWallet)
	mux.HandleFunc("DELETE /v1/wallet", h.Logout)

	mux.HandleFunc("GET /v1/balances", h.Balances)

	mux.HandleFunc("GET /v1/tokens", h.Tokens)
	mux.HandleFunc("POST /v1/tokens", h.AddToken)
	mux.HandleFunc("DELETE /v1/tokens/{address}", h.RemoveToken)

	mux.HandleFunc("GET /v1/fee-token", h.FeeToken)
	mux.HandleFunc("PUT /v1/fee-token", h.SetFeeToken)

	mux.HandleFunc("POST /v1/transfers", h.Send)
	mux.HandleFunc("POST /v1/transfers/estimate", h.EstimateFee)

	mux.HandleFunc("GET /v1/batch", h.BatchQueue)
	mux.HandleFunc("POST /v1/batch", h.QueueTransfer)
	mux.HandleFunc("DELETE /v1/batch", h.ClearQueue)
	mux.HandleFunc("POST /v1/batch/execute", h.ExecuteBatch)

	mux.HandleFunc("GET /v1/history", h.History)

	mux.HandleFunc("GET /v1/sponsorship", h.GetSponsorship)
	mux.HandleFunc("PUT /v1/sponsorship", h.SetSponsorship)

	return mux
}

type walletResponse struct {
	Address string `json:"address"`
}

type importRequest struct {
	Secret string `json:"secret"`
}

type addressRequest struct {
	Address string `json:"address"`
}

type sponsorshipState struct {
	Enabled bool `json:"enabled"`
}

type queueResponse struct {
	Queued int `json:"queued"`
}

// GetWallet returns the active account address.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	addr, err := h.session.Address()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, walletResponse{Address: addr.Hex()})
}

// CreateWallet generates and activates a fresh wallet.
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	addr, err := h.session.CreateWallet()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, walletResponse{Address: addr.Hex()})
}

// ImportWallet activates a wallet from a hex secret key.
func (h *Handler) ImportWallet(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	addr, err := h.session.ImportWallet(req.Secret)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, walletResponse{Address: addr.Hex()})
}

// Logout tears down the session and wipes the stored key.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Balances returns current balances for the session's token set.
func (h *Handler) Balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.session.RefreshBalances(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, balances)
}

// Tokens returns the session's token set.
func (h *Handler) Tokens(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session.Tokens())
}

// AddToken vets and adds a custom token.
func (h *Handler) AddToken(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	tok, err := h.session.AddToken(r.Context(), req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, tok)
}

// RemoveToken drops a custom token.
func (h *Handler) RemoveToken(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RemoveToken(r.PathValue("address")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FeeToken returns the token the account currently pays fees in.
func (h *Handler) FeeToken(w http.ResponseWriter, r *http.Request) {
	tok, err := h.session.FeeToken(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tok)
}

type feeTokenResponse struct {
	Hash string `json:"hash"`
}

// SetFeeToken writes the fee token preference on-chain.
func (h *Handler) SetFeeToken(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	hash, err := h.session.SetFeeToken(r.Context(), req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, feeTokenResponse{Hash: hash})
}

// Send submits a single transfer and returns its pending record.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req tempo.TransferRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	rec, err := h.session.Send(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, rec)
}

type estimateResponse struct {
	Fee string `json:"fee"`
}

// EstimateFee prices a transfer without submitting it.
func (h *Handler) EstimateFee(w http.ResponseWriter, r *http.Request) {
	var req tempo.TransferRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	fee, err := h.session.EstimateFee(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, estimateResponse{Fee: fee})
}

// BatchQueue returns the pending batch entries in submission order.
func (h *Handler) BatchQueue(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session.Queue())
}

// QueueTransfer validates and appends a transfer to the batch queue.
func (h *Handler) QueueTransfer(w http.ResponseWriter, r *http.Request) {
	var req tempo.TransferRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	n, err := h.session.QueueTransfer(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, queueResponse{Queued: n})
}

// ClearQueue drops all pending batch entries.
func (h *Handler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	h.session.ClearQueue()
	w.WriteHeader(http.StatusNoContent)
}

// ExecuteBatch submits the queue as one atomic bundle.
func (h *Handler) ExecuteBatch(w http.ResponseWriter, r *http.Request) {
	records, err := h.session.ExecuteBatch(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, records)
}

// History returns the account's transaction history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.session.History()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

// GetSponsorship reports whether fee sponsorship is enabled.
func (h *Handler) GetSponsorship(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, sponsorshipState{Enabled: h.session.Sponsored()})
}

// SetSponsorship toggles fee sponsorship for later submissions.
func (h *Handler) SetSponsorship(w http.ResponseWriter, r *http.Request) {
	var req sponsorshipState
	if !h.readJSON(w, r, &req) {
		return
	}
	if err := h.session.SetSponsored(req.Enabled); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, req)
}

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy to HTTP statuses. Unrecognized errors
// are logged and reported as 500 with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tempo.ErrNoWallet):
		status = http.StatusConflict
	case errors.Is(err, tempo.ErrInvalidRecipient),
		errors.Is(err, tempo.ErrInvalidAmount),
		errors.Is(err, tempo.ErrInvalidToken),
		errors.Is(err, tempo.ErrInvalidSecret),
		errors.Is(err, tempo.ErrEmptyBatch):
		status = http.StatusBadRequest
	case errors.Is(err, tempo.ErrSponsorshipUnavailable):
		status = http.StatusPaymentRequired
	case errors.Is(err, tempo.ErrSubmissionRejected):
		status = http.StatusBadGateway
	case errors.Is(err, tempo.ErrSubmissionTimeout):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		h.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
