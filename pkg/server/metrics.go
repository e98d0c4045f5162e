package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections  atomic.Int64 // lifetime TCP connections accepted
	ActiveConnections atomic.Int64 // current active connections
	TotalDisconnects  atomic.Int64 // total client disconnects (clean + unclean)

	// Authentication counters
	SuccessfulAuths atomic.Int64 // successful PIN verifications
	FailedAuths     atomic.Int64 // failed PIN attempts (incl. PASS out of order)

	// Command counters
	MalformedCommands atomic.Int64 // frames that failed to decode
	RejectedCommands  atomic.Int64 // well-formed commands rejected for session state
	BalanceQueries    atomic.Int64 // successful BALA commands
	Withdrawals       atomic.Int64 // successful withdrawals
	FailedWithdrawals atomic.Int64 // rejected withdrawals (funds, amount, or state)
	Deposits          atomic.Int64 // successful deposits
	FailedDeposits    atomic.Int64 // rejected deposits
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// MetricsSnapshot is a point-in-time view of all metrics as a serializable struct.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	TotalDisconnects  int64 `json:"total_disconnects"`

	SuccessfulAuths int64 `json:"successful_auths"`
	FailedAuths     int64 `json:"failed_auths"`

	MalformedCommands int64 `json:"malformed_commands"`
	RejectedCommands  int64 `json:"rejected_commands"`
	BalanceQueries    int64 `json:"balance_queries"`
	Withdrawals       int64 `json:"withdrawals"`
	FailedWithdrawals int64 `json:"failed_withdrawals"`
	Deposits          int64 `json:"deposits"`
	FailedDeposits    int64 `json:"failed_deposits"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		ActiveConnections: m.ActiveConnections.Load(),
		TotalConnections:  m.TotalConnections.Load(),
		TotalDisconnects:  m.TotalDisconnects.Load(),
		SuccessfulAuths:   m.SuccessfulAuths.Load(),
		FailedAuths:       m.FailedAuths.Load(),
		MalformedCommands: m.MalformedCommands.Load(),
		RejectedCommands:  m.RejectedCommands.Load(),
		BalanceQueries:    m.BalanceQueries.Load(),
		Withdrawals:       m.Withdrawals.Load(),
		FailedWithdrawals: m.FailedWithdrawals.Load(),
		Deposits:          m.Deposits.Load(),
		FailedDeposits:    m.FailedDeposits.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"auths_ok", s.SuccessfulAuths,
		"auths_failed", s.FailedAuths,
		"withdrawals", s.Withdrawals,
		"deposits", s.Deposits,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
