// Command tempo-terminal runs a payment-terminal API server backed by a
// local wallet and a Tempo ledger node.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/engine"
	"github.com/tempoxyz/tempo-go/httpapi"
	chiapi "github.com/tempoxyz/tempo-go/httpapi/chi"
	"github.com/tempoxyz/tempo-go/rpc"
	"github.com/tempoxyz/tempo-go/sponsor"
	"github.com/tempoxyz/tempo-go/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("terminal exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Best effort: a missing .env just means plain environment config.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	network := tempo.Moderato
	if url := os.Getenv("TEMPO_RPC_URL"); url != "" {
		network.RPCURL = url
	}
	if url := os.Getenv("TEMPO_SPONSOR_URL"); url != "" {
		network.SponsorURL = url
	}

	dbPath := envOr("TEMPO_DB_PATH", "terminal.db")
	st, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := rpc.Dial(ctx, network, rpc.WithLogger(logger))
	if err != nil {
		return err
	}
	defer client.Close()

	cfg := engine.Config{
		Network:   network,
		Node:      client,
		Submitter: client,
		Validator: client,
		Store:     st,
		Logger:    logger,
	}
	if network.SponsorURL != "" {
		cfg.Sponsor = sponsor.NewClient(network.SponsorURL)
	}

	session, err := engine.New(cfg)
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(session, httpapi.WithLogger(logger))
	router := chiapi.NewRouter(handler)

	srv := &http.Server{
		Addr:              envOr("TEMPO_LISTEN_ADDR", ":8080"),
		Handler:           httpapi.Logging(logger)(router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("terminal listening",
			"addr", srv.Addr,
			"network", network.Name,
			"db", dbPath,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Let in-flight status tracking settle before the store closes.
	session.Wait()

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logLevel() slog.Level {
	if os.Getenv("TEMPO_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
