// Package chi mounts the terminal API on a chi router. This package is a
// thin adapter: all request handling lives in httpapi, which uses only the
// stdlib http.Handler interface.
package chi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tempoxyz/tempo-go/httpapi"
)

// NewRouter returns a chi router serving the terminal API.
func NewRouter(h *httpapi.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/wallet", h.GetWallet)
		r.Post("/wallet", h.CreateWallet)
		r.Post("/wallet/import", h.ImportWallet)
		r.Delete("/wallet", h.Logout)

		r.Get("/balances", h.Balances)

		r.Get("/tokens", h.Tokens)
		r.Post("/tokens", h.AddToken)
		r.Delete("/tokens/{address}", h.RemoveToken)

		r.Get("/fee-token", h.FeeToken)
		r.Put("/fee-token", h.SetFeeToken)

		r.Post("/transfers", h.Send)
		r.Post("/transfers/estimate", h.EstimateFee)

		r.Get("/batch", h.BatchQueue)
		r.Post("/batch", h.QueueTransfer)
		r.Delete("/batch", h.ClearQueue)
		r.Post("/batch/execute", h.ExecuteBatch)

		r.Get("/history", h.History)

		r.Get("/sponsorship", h.GetSponsorship)
		r.Put("/sponsorship", h.SetSponsorship)
	})
	return r
}
