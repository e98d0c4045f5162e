// Package server implements the GoTeller server.
package server

import (
	"context"
	"net"

	"github.com/NicolasHaas/goteller/pkg/journal"
	"github.com/NicolasHaas/goteller/pkg/ledger"
)

// Config holds server configuration.
type Config struct {
	ListenAddr   string // TCP bind address for the teller protocol (e.g. ":2525")
	MetricsAddr  string // HTTP bind address for /metrics endpoint (empty = disabled)
	AccountsFile string // YAML file defining accounts to provision on startup
	JournalPath  string // SQLite journal path (empty = journaling disabled)
	IdleTimeout  int    // seconds a connection may sit idle between commands (0 = no limit)

	// CLI-only actions (run and exit)
	ExportAccounts bool // export all accounts as YAML and exit
}

// Dependencies holds external dependencies for the server.
// Server assumes ownership of Journal (if set) and will Close() it on shutdown.
type Dependencies struct {
	Journal *journal.Journal
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:  ":2525",
		MetricsAddr: ":2526",
		IdleTimeout: 300,
	}
}

// Server is the main GoTeller server. It owns the listener and the shared
// ledger; each accepted connection runs its own session goroutine.
type Server struct {
	cfg     Config
	ledger  *ledger.Ledger
	metrics *Metrics
	journal *journal.Journal
	ln      net.Listener
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new Server instance with an empty ledger.
func New(cfg Config, deps Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:     cfg,
		ledger:  ledger.New(),
		metrics: NewMetrics(),
		journal: deps.Journal,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Ledger returns the shared account ledger.
func (s *Server) Ledger() *ledger.Ledger {
	return s.ledger
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Addr returns the bound listener address, or "" before StartListener.
// Useful when listening on an ephemeral port.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}
