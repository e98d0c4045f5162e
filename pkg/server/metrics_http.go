package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StartMetricsHTTP starts a lightweight HTTP server that exposes /metrics
// in Prometheus text exposition format. It runs in the background and
// shuts down when the server context is cancelled.
//
// Bind address is :2526 by default — configurable via Config.MetricsAddr.
func (s *Server) StartMetricsHTTP() {
	addr := s.cfg.MetricsAddr
	if addr == "" {
		return // metrics endpoint disabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics HTTP listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics HTTP error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()
}

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Helper for gauge/counter lines.
	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}
	writeFloat := func(name, help, mtype string, value float64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %f\n", name, value)
	}

	writeFloat("goteller_uptime_seconds", "Server uptime in seconds.", "gauge", uptime)

	write("goteller_connections_active", "Current active connections.", "gauge",
		m.ActiveConnections.Load())
	write("goteller_connections_total", "Lifetime TCP connections accepted.", "counter",
		m.TotalConnections.Load())
	write("goteller_disconnects_total", "Total client disconnects.", "counter",
		m.TotalDisconnects.Load())

	write("goteller_auth_success_total", "Successful PIN verifications.", "counter",
		m.SuccessfulAuths.Load())
	write("goteller_auth_failed_total", "Failed PIN attempts.", "counter",
		m.FailedAuths.Load())

	write("goteller_commands_malformed_total", "Frames that failed to decode.", "counter",
		m.MalformedCommands.Load())
	write("goteller_commands_rejected_total", "Commands rejected for session state.", "counter",
		m.RejectedCommands.Load())
	write("goteller_balance_queries_total", "Successful balance queries.", "counter",
		m.BalanceQueries.Load())
	write("goteller_withdrawals_total", "Successful withdrawals.", "counter",
		m.Withdrawals.Load())
	write("goteller_withdrawals_failed_total", "Rejected withdrawals.", "counter",
		m.FailedWithdrawals.Load())
	write("goteller_deposits_total", "Successful deposits.", "counter",
		m.Deposits.Load())
	write("goteller_deposits_failed_total", "Rejected deposits.", "counter",
		m.FailedDeposits.Load())
}
