package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMediaAssetsMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_media_assets.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no media assets migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE media_kind AS ENUM",
		"CREATE TYPE media_status AS ENUM",
		"CREATE TABLE IF NOT EXISTS media_assets",
		"gcs_key TEXT NOT NULL UNIQUE",
		"tags TEXT[] NOT NULL DEFAULT ARRAY[]::text[]",
		"FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE SET NULL",
		"CHECK (size_bytes >= 0)",
		"DROP TABLE IF EXISTS media_assets",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReferralsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_referrals.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no referrals migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE referral_status AS ENUM",
		"CREATE TABLE IF NOT EXISTS referrals",
		"estimated_value NUMERIC(12,2) NOT NULL DEFAULT 0",
		"FOREIGN KEY (partner_id) REFERENCES partners(id) ON DELETE SET NULL",
		"CHECK (estimated_value >= 0)",
		"DROP TABLE IF EXISTS referrals",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
