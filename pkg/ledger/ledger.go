// Package ledger implements the shared in-memory account store.
//
// The ledger is the only state shared across concurrently running
// connections. Operations on one account are serialized by a per-account
// mutex; operations on different accounts do not block each other. Accounts
// are provisioned at startup (or administratively) and never removed while
// the server runs, so entry pointers stay valid outside the map lock.
package ledger

import (
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/goteller/pkg/model"
)

var ErrUnknownAccount = errors.New("ledger: unknown account")
var ErrDuplicateAccount = errors.New("ledger: account already provisioned")
var ErrNonPositiveAmount = errors.New("ledger: amount must be positive")
var ErrInsufficientFunds = errors.New("ledger: insufficient funds")

// Ledger maps account ids to credentials and balances.
type Ledger struct {
	mu    sync.RWMutex
	accts map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	pin     string
	balance decimal.Decimal
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{accts: make(map[string]*entry)}
}

// Provision adds an account. It validates the account and rejects
// duplicates; balances start at the provisioned value.
func (l *Ledger) Provision(acct model.Account) error {
	if err := acct.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accts[acct.ID]; ok {
		return ErrDuplicateAccount
	}
	l.accts[acct.ID] = &entry{pin: acct.PIN, balance: acct.Balance}
	return nil
}

// get returns the entry for an account, or nil if unknown.
func (l *Ledger) get(account string) *entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accts[account]
}

// Exists reports whether an account is provisioned.
func (l *Ledger) Exists(account string) bool {
	return l.get(account) != nil
}

// Verify reports whether the account exists and the pin matches exactly.
// No side effect.
func (l *Ledger) Verify(account, pin string) bool {
	e := l.get(account)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pin == pin
}

// Balance returns the current balance. An unknown account reads as zero
// rather than failing; callers that need existence use Exists.
func (l *Ledger) Balance(account string) decimal.Decimal {
	e := l.get(account)
	if e == nil {
		return decimal.Zero
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// Withdraw atomically decrements the balance iff amount > 0 and the balance
// covers it. No partial effect on failure.
func (l *Ledger) Withdraw(account string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	e := l.get(account)
	if e == nil {
		return ErrUnknownAccount
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	e.balance = e.balance.Sub(amount)
	return nil
}

// Deposit atomically increments the balance iff amount > 0.
func (l *Ledger) Deposit(account string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	e := l.get(account)
	if e == nil {
		return ErrUnknownAccount
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.balance = e.balance.Add(amount)
	return nil
}

// Accounts returns a snapshot of all provisioned accounts sorted by id.
// Used by the administrative export; PINs are included because the export
// is the provisioning format.
func (l *Ledger) Accounts() []model.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Account, 0, len(l.accts))
	for id, e := range l.accts {
		e.mu.Lock()
		out = append(out, model.Account{ID: id, PIN: e.pin, Balance: e.balance})
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of provisioned accounts.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accts)
}
