package server

import (
	"log/slog"

	"github.com/NicolasHaas/goteller/pkg/ledger"
	"github.com/NicolasHaas/goteller/pkg/protocol"
)

// SessionState tracks a connection's authentication progress.
type SessionState int

const (
	// StateUnauthenticated is the initial state: no account claimed.
	StateUnauthenticated SessionState = iota
	// StateAwaitingPIN means an account was claimed via HELO but the PIN
	// has not been verified yet.
	StateAwaitingPIN
	// StateAuthenticated allows balance, withdraw, and deposit commands.
	StateAuthenticated
	// StateClosed is terminal; the connection loop stops after reaching it.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingPIN:
		return "awaiting_pin"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one connection's protocol state machine. It references the
// shared ledger but owns no account; each command produces exactly one
// reply and at most one state transition. Sessions are owned by a single
// connection goroutine and need no locking.
type Session struct {
	ledger  *ledger.Ledger
	state   SessionState
	account string
}

// NewSession creates a session in the unauthenticated state.
func NewSession(l *ledger.Ledger) *Session {
	return &Session{ledger: l}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	return s.state
}

// Account returns the claimed account id, or "" if none is claimed.
func (s *Session) Account() string {
	return s.account
}

// Handle dispatches one decoded command and returns the reply frame.
//
// HELO is accepted in any live state: it re-claims a (possibly different)
// account and resets authentication, which allows multiple login attempts
// per connection. BYE closes from any state. Everything else requires the
// state the transition table demands, and a violation replies the generic
// error frame with state unchanged.
func (s *Session) Handle(cmd protocol.Command) string {
	switch cmd.Kind {
	case protocol.KindBye:
		s.state = StateClosed
		s.account = ""
		return protocol.ReplyBye

	case protocol.KindHello:
		if !s.ledger.Exists(cmd.Account) {
			// A failed claim clears any previous authentication: HELO
			// expresses intent to start a new login.
			s.state = StateUnauthenticated
			s.account = ""
			slog.Debug("hello for unknown account", "account", cmd.Account)
			return protocol.ReplyError
		}
		s.state = StateAwaitingPIN
		s.account = cmd.Account
		return protocol.ReplyAuthRequired

	case protocol.KindPass:
		if s.state != StateAwaitingPIN {
			return protocol.ReplyError
		}
		if !s.ledger.Verify(s.account, cmd.PIN) {
			slog.Debug("pin rejected", "account", s.account)
			s.state = StateUnauthenticated
			s.account = ""
			return protocol.ReplyError
		}
		s.state = StateAuthenticated
		return protocol.ReplyOK

	case protocol.KindBalance:
		if s.state != StateAuthenticated {
			return protocol.ReplyError
		}
		return protocol.EncodeAmount(s.ledger.Balance(s.account))

	case protocol.KindWithdraw:
		if s.state != StateAuthenticated {
			return protocol.ReplyError
		}
		if err := s.ledger.Withdraw(s.account, cmd.Amount); err != nil {
			slog.Debug("withdrawal rejected", "account", s.account, "amount", cmd.Amount, "err", err)
			return protocol.ReplyError
		}
		return protocol.ReplyOK

	case protocol.KindDeposit:
		if s.state != StateAuthenticated {
			return protocol.ReplyError
		}
		if err := s.ledger.Deposit(s.account, cmd.Amount); err != nil {
			slog.Debug("deposit rejected", "account", s.account, "amount", cmd.Amount, "err", err)
			return protocol.ReplyError
		}
		return protocol.ReplyOK

	default:
		return protocol.ReplyError
	}
}
