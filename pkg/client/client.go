// Package client implements the GoTeller client networking: a thin driver
// that speaks the teller wire grammar over one TCP connection.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/goteller/pkg/protocol"
)

// ErrRejected is returned when the server answers a request with the
// generic error frame. The wire protocol carries no detail beyond that.
var ErrRejected = errors.New("server rejected the request")

// ErrUnexpectedReply is returned when the server answers with a frame the
// request cannot interpret.
var ErrUnexpectedReply = errors.New("unexpected reply")

const dialTimeout = 10 * time.Second

// Client manages one teller protocol connection. Requests are strictly
// one-at-a-time; a mutex serializes concurrent callers.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to a teller server.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("client: connect: %w", err)
	}
	return &Client{conn: conn, r: protocol.NewFrameReader(conn)}, nil
}

// roundTrip sends one frame and reads one reply.
func (c *Client) roundTrip(frame string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := protocol.WriteFrame(c.conn, frame); err != nil {
		return "", fmt.Errorf("client: send: %w", err)
	}
	reply, err := protocol.ReadFrame(c.r)
	if err != nil {
		return "", fmt.Errorf("client: receive: %w", err)
	}
	return reply, nil
}

// Login claims an account and verifies its PIN. A rejected account or PIN
// returns ErrRejected; the protocol does not say which one was wrong.
func (c *Client) Login(account, pin string) error {
	reply, err := c.roundTrip("HELO sp " + account)
	if err != nil {
		return err
	}
	switch reply {
	case protocol.ReplyAuthRequired:
		// fall through to PASS
	case protocol.ReplyError:
		return fmt.Errorf("client: login %q: %w", account, ErrRejected)
	default:
		return fmt.Errorf("client: login %q: %w: %q", account, ErrUnexpectedReply, reply)
	}

	reply, err = c.roundTrip("PASS sp " + pin)
	if err != nil {
		return err
	}
	switch reply {
	case protocol.ReplyOK:
		return nil
	case protocol.ReplyError:
		return fmt.Errorf("client: login %q: %w", account, ErrRejected)
	default:
		return fmt.Errorf("client: login %q: %w: %q", account, ErrUnexpectedReply, reply)
	}
}

// Balance queries the current balance.
func (c *Client) Balance() (decimal.Decimal, error) {
	reply, err := c.roundTrip("BALA")
	if err != nil {
		return decimal.Decimal{}, err
	}
	if amt, ok := protocol.ParseAmount(reply); ok {
		return amt, nil
	}
	if reply == protocol.ReplyError {
		return decimal.Decimal{}, fmt.Errorf("client: balance: %w", ErrRejected)
	}
	return decimal.Decimal{}, fmt.Errorf("client: balance: %w: %q", ErrUnexpectedReply, reply)
}

// Withdraw requests a withdrawal of the given amount.
func (c *Client) Withdraw(amount decimal.Decimal) error {
	return c.simpleRequest("WDRA sp "+amount.String(), "withdraw")
}

// Deposit requests a deposit of the given amount.
func (c *Client) Deposit(amount decimal.Decimal) error {
	return c.simpleRequest("DEPO sp "+amount.String(), "deposit")
}

func (c *Client) simpleRequest(frame, verb string) error {
	reply, err := c.roundTrip(frame)
	if err != nil {
		return err
	}
	switch reply {
	case protocol.ReplyOK:
		return nil
	case protocol.ReplyError:
		return fmt.Errorf("client: %s: %w", verb, ErrRejected)
	default:
		return fmt.Errorf("client: %s: %w: %q", verb, ErrUnexpectedReply, reply)
	}
}

// Quit sends BYE, waits for the acknowledgment, and closes the connection.
func (c *Client) Quit() error {
	reply, err := c.roundTrip("BYE")
	if err != nil {
		_ = c.Close()
		return err
	}
	if reply != protocol.ReplyBye {
		_ = c.Close()
		return fmt.Errorf("client: quit: %w: %q", ErrUnexpectedReply, reply)
	}
	return c.Close()
}

// Close closes the connection without the BYE handshake.
func (c *Client) Close() error {
	return c.conn.Close()
}
