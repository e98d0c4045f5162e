package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/NicolasHaas/goteller/pkg/journal"
	"github.com/NicolasHaas/goteller/pkg/protocol"
)

// StartListener starts the TCP teller listener and the accept loop.
func (s *Server) StartListener() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.ln = ln

	slog.Info("teller listening", "addr", s.cfg.ListenAddr)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
					slog.Error("accept error", "err", err)
					continue
				}
			}
			go s.handleConn(conn)
		}
	}()

	return nil
}

// handleConn runs one connection: a fresh session bound to the shared
// ledger, one command and one reply per round trip, until the session
// closes or the peer disconnects. Transport errors terminate only this
// connection.
func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	remoteAddr := conn.RemoteAddr().String()
	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	defer func() {
		s.metrics.ActiveConnections.Add(-1)
		s.metrics.TotalDisconnects.Add(1)
		slog.Debug("connection closed", "remote", remoteAddr)
	}()

	slog.Debug("new connection", "remote", remoteAddr)

	sess := NewSession(s.ledger)
	r := protocol.NewFrameReader(conn)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if s.cfg.IdleTimeout > 0 {
			deadline := time.Now().Add(time.Duration(s.cfg.IdleTimeout) * time.Second)
			_ = conn.SetReadDeadline(deadline)
		}

		line, err := protocol.ReadFrame(r)
		if err != nil {
			if err == io.EOF || isClosedErr(err) {
				return
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				slog.Debug("idle timeout", "remote", remoteAddr)
				return
			}
			slog.Debug("read error", "remote", remoteAddr, "err", err)
			return
		}

		reply := s.dispatch(sess, line)

		if err := protocol.WriteFrame(conn, reply); err != nil {
			slog.Debug("write error", "remote", remoteAddr, "err", err)
			return
		}

		if sess.State() == StateClosed {
			return
		}
	}
}

// dispatch decodes one frame, feeds it to the session, records metrics and
// the journal entry, and returns the reply frame.
func (s *Server) dispatch(sess *Session, line string) string {
	cmd, err := protocol.Decode(line)
	if err != nil {
		s.metrics.MalformedCommands.Add(1)
		slog.Debug("malformed command", "line", line)
		return protocol.ReplyError
	}

	// Financial commands that reach the ledger get journaled with their
	// outcome; commands rejected for state never touched the ledger.
	authed := sess.State() == StateAuthenticated
	account := sess.Account()

	reply := sess.Handle(cmd)
	ok := reply != protocol.ReplyError

	switch cmd.Kind {
	case protocol.KindPass:
		if ok {
			s.metrics.SuccessfulAuths.Add(1)
		} else {
			s.metrics.FailedAuths.Add(1)
		}
	case protocol.KindBalance:
		if ok {
			s.metrics.BalanceQueries.Add(1)
		} else {
			s.metrics.RejectedCommands.Add(1)
		}
	case protocol.KindWithdraw:
		if ok {
			s.metrics.Withdrawals.Add(1)
		} else {
			s.metrics.FailedWithdrawals.Add(1)
		}
		if authed {
			s.recordJournal(account, cmd, ok)
		}
	case protocol.KindDeposit:
		if ok {
			s.metrics.Deposits.Add(1)
		} else {
			s.metrics.FailedDeposits.Add(1)
		}
		if authed {
			s.recordJournal(account, cmd, ok)
		}
	case protocol.KindHello:
		if !ok {
			s.metrics.RejectedCommands.Add(1)
		}
	case protocol.KindBye:
		// No counters beyond the connection ones.
	}

	return reply
}

// recordJournal appends one financial operation to the journal, if enabled.
// Journal failures are logged and never surfaced on the wire.
func (s *Server) recordJournal(account string, cmd protocol.Command, ok bool) {
	if s.journal == nil {
		return
	}
	err := s.journal.Record(s.ctx, journal.Entry{
		Account: account,
		Op:      cmd.Kind.String(),
		Amount:  cmd.Amount,
		OK:      ok,
	})
	if err != nil {
		slog.Error("journal write failed", "account", account, "op", cmd.Kind, "err", err)
	}
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
