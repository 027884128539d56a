// Package gin mounts the terminal API on a gin engine. This package is a
// thin adapter: all request handling lives in httpapi, which uses only the
// stdlib http.Handler interface.
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tempoxyz/tempo-go/httpapi"
)

// Register mounts the terminal API routes on a gin engine.
func Register(r *gin.Engine, h *httpapi.Handler) {
	v1 := r.Group("/v1")

	v1.GET("/wallet", gin.WrapF(h.GetWallet))
	v1.POST("/wallet", gin.WrapF(h.CreateWallet))
	v1.POST("/wallet/import", gin.WrapF(h.ImportWallet))
	v1.DELETE("/wallet", gin.WrapF(h.Logout))

	v1.GET("/balances", gin.WrapF(h.Balances))

	v1.GET("/tokens", gin.WrapF(h.Tokens))
	v1.POST("/tokens", gin.WrapF(h.AddToken))
	v1.DELETE("/tokens/:address", wrapParam("address", h.RemoveToken))

	v1.GET("/fee-token", gin.WrapF(h.FeeToken))
	v1.PUT("/fee-token", gin.WrapF(h.SetFeeToken))

	v1.POST("/transfers", gin.WrapF(h.Send))
	v1.POST("/transfers/estimate", gin.WrapF(h.EstimateFee))

	v1.GET("/batch", gin.WrapF(h.BatchQueue))
	v1.POST("/batch", gin.WrapF(h.QueueTransfer))
	v1.DELETE("/batch", gin.WrapF(h.ClearQueue))
	v1.POST("/batch/execute", gin.WrapF(h.ExecuteBatch))

	v1.GET("/history", gin.WrapF(h.History))

	v1.GET("/sponsorship", gin.WrapF(h.GetSponsorship))
	v1.PUT("/sponsorship", gin.WrapF(h.SetSponsorship))
}

// wrapParam forwards a gin route parameter into the request's stdlib path
// values, so the shared handlers can stay router-agnostic.
func wrapParam(name string, f http.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.SetPathValue(name, c.Param(name))
		f(c.Writer, c.Request)
	}
}
