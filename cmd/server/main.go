package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/NicolasHaas/goteller/pkg/journal"
	"github.com/NicolasHaas/goteller/pkg/ledger"
	"github.com/NicolasHaas/goteller/pkg/logging"
	"github.com/NicolasHaas/goteller/pkg/server"
	"github.com/NicolasHaas/goteller/pkg/version"
)

func main() {
	cfg := server.DefaultConfig()

	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "TCP bind address for the teller protocol")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	flag.StringVar(&cfg.AccountsFile, "accounts-file", "", "YAML file defining accounts to provision on startup")
	flag.StringVar(&cfg.JournalPath, "journal", "", "SQLite transaction journal path (empty to disable)")
	flag.IntVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Seconds a connection may idle between commands (0 = no limit)")
	flag.BoolVar(&cfg.ExportAccounts, "export-accounts", false, "Export provisioned accounts as YAML and exit")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("goteller " + version.Full())
		return
	}

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	// Handle export command (run and exit)
	if cfg.ExportAccounts {
		l := ledger.New()
		if cfg.AccountsFile != "" {
			if err := server.LoadAccountsFromYAML(cfg.AccountsFile, l); err != nil {
				slog.Error("load accounts", "err", err)
				os.Exit(1)
			}
		}
		data, err := server.ExportAccountsYAML(l)
		if err != nil {
			slog.Error("export accounts", "err", err)
			os.Exit(1)
		}
		fmt.Print(string(data))
		return
	}

	var deps server.Dependencies
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			slog.Error("open journal", "err", err)
			os.Exit(1)
		}
		deps.Journal = j
	}

	srv := server.New(cfg, deps)
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
