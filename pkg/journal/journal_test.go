package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	entries := []Entry{
		{Account: "user", Op: "WDRA", Amount: decimal.RequireFromString("1000"), OK: true},
		{Account: "user", Op: "WDRA", Amount: decimal.RequireFromString("999999999"), OK: false},
		{Account: "alice", Op: "DEPO", Amount: decimal.RequireFromString("0.5"), OK: true},
	}
	for _, e := range entries {
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record(%+v): %v", e, err)
		}
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent len = %d, want 3", len(got))
	}

	// Newest first
	if got[0].Account != "alice" || got[0].Op != "DEPO" || !got[0].OK {
		t.Errorf("Recent[0] = %+v, want alice DEPO ok", got[0])
	}
	if got[1].Op != "WDRA" || got[1].OK {
		t.Errorf("Recent[1] = %+v, want failed WDRA", got[1])
	}
	if !got[2].Amount.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("Recent[2] amount = %s, want 1000", got[2].Amount)
	}
	if got[0].At.IsZero() {
		t.Error("Recent[0].At is zero")
	}
}

func TestRecentLimit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := Entry{Account: "user", Op: "DEPO", Amount: decimal.NewFromInt(int64(i + 1)), OK: true}
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent len = %d, want 2", len(got))
	}
	if !got[0].Amount.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Recent[0] amount = %s, want 5", got[0].Amount)
	}
}

func TestRecordRejectsBadOp(t *testing.T) {
	j := newTestJournal(t)
	err := j.Record(context.Background(), Entry{Account: "user", Op: "BALA", Amount: decimal.NewFromInt(1)})
	if err == nil {
		t.Error("Record with non-financial op: expected error from schema check")
	}
}
