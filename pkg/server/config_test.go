package server

import (
	"strings"
	"testing"

	"github.com/NicolasHaas/goteller/pkg/ledger"
)

const testAccountsYAML = `
accounts:
  - id: user
    pin: "123456"
    balance: "500000.0"
  - id: alice
    pin: "0000"
  - id: "bad id"
    pin: "1111"
    balance: "10"
  - id: broken
    pin: "2222"
    balance: notanumber
`

func TestImportAccountsFromYAML(t *testing.T) {
	l := ledger.New()
	if err := ImportAccountsFromYAML([]byte(testAccountsYAML), l); err != nil {
		t.Fatalf("ImportAccountsFromYAML: %v", err)
	}

	// Valid accounts provisioned; invalid ones skipped.
	if got := l.Count(); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
	if !l.Verify("user", "123456") {
		t.Error("user pin not provisioned")
	}
	if got := l.Balance("user").String(); got != "500000.0" {
		t.Errorf("user balance = %s, want 500000.0", got)
	}
	if got := l.Balance("alice").String(); got != "0" {
		t.Errorf("alice balance = %s, want 0 (omitted balance)", got)
	}
}

func TestImportAccountsBadYAML(t *testing.T) {
	if err := ImportAccountsFromYAML([]byte("accounts: {not a list"), ledger.New()); err == nil {
		t.Error("expected parse error")
	}
}

func TestExportAccountsRoundTrip(t *testing.T) {
	l := ledger.New()
	src := `
accounts:
  - id: alice
    pin: "0000"
    balance: "12.50"
  - id: user
    pin: "123456"
    balance: "500000.0"
`
	if err := ImportAccountsFromYAML([]byte(src), l); err != nil {
		t.Fatalf("import: %v", err)
	}

	data, err := ExportAccountsYAML(l)
	if err != nil {
		t.Fatalf("ExportAccountsYAML: %v", err)
	}
	out := string(data)
	for _, want := range []string{"id: alice", `balance: "12.50"`, "id: user", `balance: "500000.0"`} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q in:\n%s", want, out)
		}
	}

	// Export feeds back into a fresh ledger unchanged.
	l2 := ledger.New()
	if err := ImportAccountsFromYAML(data, l2); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if got := l2.Balance("alice").String(); got != "12.50" {
		t.Errorf("re-imported alice balance = %s, want 12.50", got)
	}
	if !l2.Verify("user", "123456") {
		t.Error("re-imported user pin mismatch")
	}
}
