package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/goteller/pkg/ledger"
	"github.com/NicolasHaas/goteller/pkg/model"
)

// AccountYAML represents an account in the provisioning YAML.
// Balance is a string so its decimal scale survives the round trip
// (a balance provisioned as "500000.0" renders as "500000.0").
type AccountYAML struct {
	ID      string `yaml:"id"`
	PIN     string `yaml:"pin"`
	Balance string `yaml:"balance,omitempty"`
}

// AccountsConfig is the top-level YAML config for accounts.
type AccountsConfig struct {
	Accounts []AccountYAML `yaml:"accounts"`
}

// LoadAccountsFromYAML reads an accounts YAML file and provisions the
// accounts into the ledger.
func LoadAccountsFromYAML(path string, l *ledger.Ledger) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return fmt.Errorf("read accounts config: %w", err)
	}
	return ImportAccountsFromYAML(data, l)
}

// ImportAccountsFromYAML parses YAML data and provisions accounts into the
// ledger. Individual invalid accounts are logged and skipped; a parse
// failure of the file itself is an error.
func ImportAccountsFromYAML(data []byte, l *ledger.Ledger) error {
	var cfg AccountsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse accounts config: %w", err)
	}

	count := 0
	for _, a := range cfg.Accounts {
		acct, err := accountFromYAML(a)
		if err == nil {
			err = l.Provision(acct)
		}
		if err != nil {
			slog.Error("failed to provision account from config", "id", a.ID, "err", err)
			continue
		}
		count++
	}

	slog.Info("provisioned accounts from YAML", "count", count)
	return nil
}

func accountFromYAML(a AccountYAML) (model.Account, error) {
	balance := decimal.Zero
	if a.Balance != "" {
		var err error
		balance, err = decimal.NewFromString(a.Balance)
		if err != nil {
			return model.Account{}, fmt.Errorf("parse balance %q: %w", a.Balance, err)
		}
	}
	return model.Account{ID: a.ID, PIN: a.PIN, Balance: balance}, nil
}

// ExportAccountsYAML exports all provisioned accounts as YAML in the same
// shape the provisioning file uses.
func ExportAccountsYAML(l *ledger.Ledger) ([]byte, error) {
	var cfg AccountsConfig
	for _, acct := range l.Accounts() {
		cfg.Accounts = append(cfg.Accounts, AccountYAML{
			ID:      acct.ID,
			PIN:     acct.PIN,
			Balance: acct.Balance.String(),
		})
	}
	return yaml.Marshal(&cfg)
}
