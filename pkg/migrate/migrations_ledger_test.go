package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWalletMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_wallets.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS wallets",
		"CHECK (balance_paise >= 0)",
		"CHECK (held_paise >= 0)",
		"CHECK (held_paise <= balance_paise)",
		"DROP TABLE IF EXISTS wallets",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestWalletTransactionsMigrationGuardsSettlement(t *testing.T) {
	content := readMigration(t, "*_create_wallet_transactions.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS wallet_transactions",
		"FOREIGN KEY (wallet_user_id) REFERENCES wallets(user_id) ON DELETE CASCADE",
		"CHECK (amount_paise > 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_wallet_txns_hold_settlement",
		"WHERE kind IN ('release', 'transfer_debit')",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_wallet_txns_transfer_credit",
		"WHERE kind = 'transfer_credit'",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CHECK (total_paise = subtotal_paise + delivery_fee_paise)",
		"idx_orders_buyer_status",
		"idx_orders_seller_status",
		"idx_orders_settlement_pending",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSettlementCompensationsMigrationDedupesDebits(t *testing.T) {
	content := readMigration(t, "*_create_settlement_compensations.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS settlement_compensations",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_settlement_comp_debit",
		"WHERE resolved_at IS NULL",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
