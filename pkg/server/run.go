package server

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/goteller/pkg/model"
)

// Run starts the server and blocks until shutdown signal.
func (s *Server) Run() error {
	// Provision accounts from YAML config if provided
	if s.cfg.AccountsFile != "" {
		if err := LoadAccountsFromYAML(s.cfg.AccountsFile, s.ledger); err != nil {
			return fmt.Errorf("server: load accounts: %w", err)
		}
	}

	// Ensure at least one account exists so a fresh server is usable
	if err := s.ensureDemoAccount(); err != nil {
		return err
	}

	if err := s.StartListener(); err != nil {
		return err
	}

	slog.Info("GoTeller server running",
		"addr", s.cfg.ListenAddr,
		"accounts", s.ledger.Count(),
	)

	// Start metrics HTTP endpoint
	s.StartMetricsHTTP()

	// Start periodic metrics logging (every 60s)
	s.metrics.StartPeriodicLog(60*time.Second, s.ctx.Done())

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	s.Shutdown()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() {
	s.cancel()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	if s.journal != nil {
		_ = s.journal.Close()
	}
}

// ensureDemoAccount provisions a well-known demo account on first run when
// no accounts file was given, so the server can be exercised immediately.
func (s *Server) ensureDemoAccount() error {
	if s.ledger.Count() > 0 {
		return nil
	}

	acct := model.Account{
		ID:      "user",
		PIN:     "123456",
		Balance: decimal.RequireFromString("500000.0"),
	}
	if err := s.ledger.Provision(acct); err != nil {
		return fmt.Errorf("server: provision demo account: %w", err)
	}

	slog.Info("========================================")
	slog.Info("no accounts configured; provisioned demo account",
		"account", acct.ID, "pin", acct.PIN, "balance", acct.Balance)
	slog.Info("========================================")
	return nil
}
