package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agrimarket/inventory-engine/pkg/migrate"
)

func TestReservationMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_stock_reservations.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no reservation migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS stock_reservations",
		"FOREIGN KEY (product_id) REFERENCES stock_ledger_entries(product_id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"stock_reservations_idempotency_key_key",
		"DROP TABLE IF EXISTS stock_reservations",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration dir failed validation: %v", err)
	}
}
