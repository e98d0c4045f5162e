// Package protocol defines the teller command grammar, reply encoding,
// and line framing.
//
// Commands and replies are plain text. Each frame is one newline-terminated
// line; the newline is framing only and never part of the grammar. The
// four-letter command words and the literal "sp" separator token come from
// the wire protocol this server speaks:
//
//	HELO sp <account>
//	PASS sp <pin>
//	BALA
//	WDRA sp <amount>
//	DEPO sp <amount>
//	BYE
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxFrame is the maximum accepted frame size in bytes. Frames longer
// than this are a protocol violation.
const MaxFrame = 512

// Fixed reply frames. Every rejection collapses to ReplyError on the wire;
// the cause is only visible in server logs.
const (
	ReplyAuthRequired = "500 sp AUTH REQUIRED"
	ReplyOK           = "525 sp OK!"
	ReplyError        = "401 sp ERROR!"
	ReplyBye          = "BYE"

	amountPrefix = "AMNT:"
)

// ErrMalformed is returned by Decode for any frame that does not match the
// grammar: unknown command word, wrong arity, missing "sp" separator, or a
// non-positive/non-numeric amount. The wire protocol does not distinguish
// these causes.
var ErrMalformed = errors.New("protocol: malformed command")

// Kind identifies a decoded command.
type Kind int

const (
	KindHello Kind = iota
	KindPass
	KindBalance
	KindWithdraw
	KindDeposit
	KindBye
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "HELO"
	case KindPass:
		return "PASS"
	case KindBalance:
		return "BALA"
	case KindWithdraw:
		return "WDRA"
	case KindDeposit:
		return "DEPO"
	case KindBye:
		return "BYE"
	default:
		return "unknown"
	}
}

// Command is one decoded request. Exactly one payload field is meaningful,
// determined by Kind. Immutable once decoded.
type Command struct {
	Kind    Kind
	Account string          // HELO
	PIN     string          // PASS
	Amount  decimal.Decimal // WDRA, DEPO
}

// Decode parses one frame into a Command. Tokenization is on whitespace.
// HELO, PASS, WDRA, and DEPO take exactly three tokens with the literal
// separator token "sp" in the middle; BALA and BYE take exactly one.
func Decode(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrMalformed
	}

	switch fields[0] {
	case "HELO":
		arg, err := separatedArg(fields)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindHello, Account: arg}, nil

	case "PASS":
		arg, err := separatedArg(fields)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindPass, PIN: arg}, nil

	case "BALA":
		if len(fields) != 1 {
			return Command{}, ErrMalformed
		}
		return Command{Kind: KindBalance}, nil

	case "WDRA":
		amt, err := separatedAmount(fields)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindWithdraw, Amount: amt}, nil

	case "DEPO":
		amt, err := separatedAmount(fields)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindDeposit, Amount: amt}, nil

	case "BYE":
		if len(fields) != 1 {
			return Command{}, ErrMalformed
		}
		return Command{Kind: KindBye}, nil

	default:
		return Command{}, ErrMalformed
	}
}

// separatedArg validates the three-token "<CMD> sp <arg>" shape.
func separatedArg(fields []string) (string, error) {
	if len(fields) != 3 || fields[1] != "sp" {
		return "", ErrMalformed
	}
	return fields[2], nil
}

// separatedAmount validates the shape and that the amount is a positive
// decimal. A non-positive amount is a decode failure, reported identically
// to bad syntax.
func separatedAmount(fields []string) (decimal.Decimal, error) {
	arg, err := separatedArg(fields)
	if err != nil {
		return decimal.Decimal{}, err
	}
	amt, err := decimal.NewFromString(arg)
	if err != nil || !amt.IsPositive() {
		return decimal.Decimal{}, ErrMalformed
	}
	return amt, nil
}

// EncodeAmount renders a BALA success reply carrying the balance.
func EncodeAmount(balance decimal.Decimal) string {
	return amountPrefix + balance.String()
}

// ParseAmount extracts the balance from an AMNT reply. The second return
// value is false if the frame is not an AMNT reply or the value does not
// parse.
func ParseAmount(reply string) (decimal.Decimal, bool) {
	v, ok := strings.CutPrefix(reply, amountPrefix)
	if !ok {
		return decimal.Decimal{}, false
	}
	amt, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amt, true
}

// WriteFrame writes one newline-terminated frame to a writer.
func WriteFrame(w io.Writer, frame string) error {
	if len(frame) > MaxFrame {
		return fmt.Errorf("protocol: frame too large: %d bytes", len(frame))
	}
	if _, err := io.WriteString(w, frame+"\n"); err != nil {
		return fmt.Errorf("protocol: write frame: %w", err)
	}
	return nil
}

// NewFrameReader wraps a connection in a buffered reader sized to the
// frame cap, so ReadFrame never buffers more than MaxFrame+1 bytes per
// read of an unterminated line.
func NewFrameReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, MaxFrame+1)
}

// ReadFrame reads one newline-terminated frame from a buffered reader and
// returns it without the trailing newline (and any carriage return). It
// returns io.EOF when the peer has closed the stream. The size cap is
// enforced while reading: a line fails as soon as more than MaxFrame+1
// bytes arrive without a delimiter, rather than after the whole line has
// been buffered.
func ReadFrame(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if len(line)+len(chunk) > MaxFrame+1 {
			return "", fmt.Errorf("protocol: frame too large: %d bytes or more", len(line)+len(chunk))
		}
		line = append(line, chunk...)
		switch err {
		case nil:
			return strings.TrimRight(string(line), "\r\n"), nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(line) == 0 {
				return "", io.EOF
			}
			// Final frame without trailing newline; accept it.
			if len(line) > MaxFrame {
				return "", fmt.Errorf("protocol: frame too large: %d bytes", len(line))
			}
			return strings.TrimRight(string(line), "\r\n"), nil
		default:
			return "", fmt.Errorf("protocol: read frame: %w", err)
		}
	}
}
