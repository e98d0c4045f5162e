package protocol

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecodeValid(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{"hello", "HELO sp user", Command{Kind: KindHello, Account: "user"}},
		{"pass", "PASS sp 123456", Command{Kind: KindPass, PIN: "123456"}},
		{"balance", "BALA", Command{Kind: KindBalance}},
		{"withdraw", "WDRA sp 1000", Command{Kind: KindWithdraw, Amount: decimal.RequireFromString("1000")}},
		{"deposit", "DEPO sp 0.5", Command{Kind: KindDeposit, Amount: decimal.RequireFromString("0.5")}},
		{"bye", "BYE", Command{Kind: KindBye}},
		{"extra whitespace", "  HELO   sp   user  ", Command{Kind: KindHello, Account: "user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.line)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", tt.line, err)
			}
			if got.Kind != tt.want.Kind || got.Account != tt.want.Account || got.PIN != tt.want.PIN {
				t.Errorf("Decode(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
			if !got.Amount.Equal(tt.want.Amount) {
				t.Errorf("Decode(%q) amount = %s, want %s", tt.line, got.Amount, tt.want.Amount)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty line", ""},
		{"whitespace only", "   "},
		{"unknown word", "FOOBAR"},
		{"unknown word with args", "FOOBAR sp user"},
		{"lowercase word", "helo sp user"},
		{"hello missing separator", "HELO user"},
		{"hello wrong separator", "HELO xx user"},
		{"hello too many tokens", "HELO sp user extra"},
		{"hello no arg", "HELO sp"},
		{"balance with arg", "BALA sp user"},
		{"bye with arg", "BYE now"},
		{"withdraw non-numeric", "WDRA sp abc"},
		{"withdraw zero", "WDRA sp 0"},
		{"withdraw negative", "WDRA sp -5"},
		{"deposit zero", "DEPO sp 0.00"},
		{"deposit negative", "DEPO sp -0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.line); err != ErrMalformed {
				t.Errorf("Decode(%q) error = %v, want ErrMalformed", tt.line, err)
			}
		})
	}
}

func TestEncodeAmountPreservesScale(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"500000.0", "AMNT:500000.0"},
		{"499000.0", "AMNT:499000.0"},
		{"0", "AMNT:0"},
		{"12.345", "AMNT:12.345"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := EncodeAmount(decimal.RequireFromString(tt.in)); got != tt.want {
				t.Errorf("EncodeAmount(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	amt, ok := ParseAmount("AMNT:499000.0")
	if !ok {
		t.Fatal("ParseAmount: expected ok")
	}
	if amt.String() != "499000.0" {
		t.Errorf("ParseAmount = %s, want 499000.0", amt)
	}

	if _, ok := ParseAmount("525 sp OK!"); ok {
		t.Error("ParseAmount: expected not ok for non-AMNT reply")
	}
	if _, ok := ParseAmount("AMNT:notanumber"); ok {
		t.Error("ParseAmount: expected not ok for bad value")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var sb strings.Builder
	for _, frame := range []string{"HELO sp user", "PASS sp 123456", "BALA"} {
		if err := WriteFrame(&sb, frame); err != nil {
			t.Fatalf("WriteFrame(%q): %v", frame, err)
		}
	}

	r := bufio.NewReader(strings.NewReader(sb.String()))
	for _, want := range []string{"HELO sp user", "PASS sp 123456", "BALA"} {
		got, err := ReadFrame(r)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if got != want {
			t.Errorf("ReadFrame = %q, want %q", got, want)
		}
	}

	if _, err := ReadFrame(r); err != io.EOF {
		t.Errorf("ReadFrame at end = %v, want io.EOF", err)
	}
}

func TestReadFrameWithoutTrailingNewline(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("BYE"))
	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got != "BYE" {
		t.Errorf("ReadFrame = %q, want BYE", got)
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(strings.Repeat("x", MaxFrame+10) + "\n"))
	if _, err := ReadFrame(r); err == nil {
		t.Error("ReadFrame: expected error for oversized frame")
	}
}

func TestReadFrameMaxSize(t *testing.T) {
	payload := strings.Repeat("x", MaxFrame)
	r := NewFrameReader(strings.NewReader(payload + "\n"))
	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got != payload {
		t.Errorf("ReadFrame returned %d bytes, want %d", len(got), MaxFrame)
	}
}

// countingReader counts bytes handed to the buffered reader, to observe
// how much of the stream ReadFrame consumes.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestReadFrameCapsUnterminatedLine(t *testing.T) {
	// A peer streaming megabytes with no newline must be rejected after
	// the cap, not buffered until the line ends.
	src := &countingReader{r: strings.NewReader(strings.Repeat("x", 1<<23))}
	r := NewFrameReader(src)

	if _, err := ReadFrame(r); err == nil {
		t.Fatal("ReadFrame: expected error for unterminated oversized line")
	}
	if src.n > 2*(MaxFrame+1) {
		t.Errorf("ReadFrame consumed %d bytes before enforcing the %d-byte cap", src.n, MaxFrame)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	var sb strings.Builder
	if err := WriteFrame(&sb, strings.Repeat("x", MaxFrame+1)); err == nil {
		t.Error("WriteFrame: expected error for oversized frame")
	}
}
