package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// seedAdminEmail is the development admin account created by Seed.
const seedAdminEmail = "admin@refto.local"

// seedTags is the starter vocabulary inserted for development so the admin
// panel has something to attach to new sites.
var seedTags = []struct {
	name, value, typ string
}{
	{"SaaS", "saas", "category"},
	{"Portfolio", "portfolio", "category"},
	{"E-commerce", "ecommerce", "category"},
	{"Landing", "landing", "section"},
	{"Pricing", "pricing", "section"},
	{"Footer", "footer", "section"},
	{"Minimal", "minimal", "style"},
	{"Dark", "dark", "style"},
	{"Illustration", "illustration", "style"},
}

// Seed populates the database with initial development data: a default
// admin account and a starter tag vocabulary. It is a no-op once any user
// exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
	`, seedAdminEmail, string(hash), "Admin", "admin"); err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	for _, t := range seedTags {
		if _, err := tx.Exec(`
			INSERT INTO tags (name, value, type) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, t.name, t.value, t.typ); err != nil {
			return fmt.Errorf("seed insert tag %s: %w", t.value, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", seedAdminEmail,
		"password", "admin",
		"tags", len(seedTags),
	)

	return nil
}
