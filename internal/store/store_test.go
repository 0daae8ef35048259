// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"refto/internal/database"
	"refto/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "refto")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "refto")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanSites removes test sites and everything hanging off them,
// including soft-deleted rows. Call in t.Cleanup().
func cleanSites(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		db.Exec(`DELETE FROM likes WHERE version_id IN (
			SELECT v.id FROM versions v JOIN pages p ON p.id = v.page_id WHERE p.site_id = $1)`, id)
		db.Exec(`DELETE FROM version_tags WHERE version_id IN (
			SELECT v.id FROM versions v JOIN pages p ON p.id = v.page_id WHERE p.site_id = $1)`, id)
		db.Exec(`DELETE FROM versions WHERE page_id IN (SELECT id FROM pages WHERE site_id = $1)`, id)
		db.Exec(`DELETE FROM pages WHERE site_id = $1`, id)
		db.Exec(`DELETE FROM site_tags WHERE site_id = $1`, id)
		db.Exec(`DELETE FROM sites WHERE id = $1`, id)
	}
}

// cleanTags removes test tags. Call in t.Cleanup() after cleanSites.
func cleanTags(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		db.Exec("DELETE FROM tags WHERE id = $1", id)
	}
}

// uniqueSlug returns a slug that will not collide across test runs.
func uniqueSlug(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// createTestSite creates a live site with a default page and one version
// dated versionDate. The site is removed on cleanup.
func createTestSite(t *testing.T, db *sql.DB, title string, versionDate time.Time, siteTags ...uuid.UUID) *CreatedSite {
	t.Helper()

	slug := uniqueSlug(title)
	created, err := NewSiteStore(db).Create(context.Background(), SiteDraft{
		Site:       models.Site{Title: title, Slug: slug, URL: "https://" + slug + ".example"},
		Page:       models.Page{Title: "Home", Slug: "home", URL: "https://" + slug + ".example/"},
		Version:    models.Version{VersionDate: versionDate, WebCover: "covers/" + slug + ".png"},
		SiteTagIDs: siteTags,
	})
	if err != nil {
		t.Fatalf("create test site %q: %v", title, err)
	}
	t.Cleanup(func() { cleanSites(t, db, created.Site.ID) })
	return created
}

// createTestTag creates a live tag removed on cleanup.
func createTestTag(t *testing.T, db *sql.DB, name string) *models.Tag {
	t.Helper()

	tag, err := NewTagStore(db).Create(context.Background(), &models.Tag{
		Name:  name,
		Value: uniqueSlug(name),
		Type:  models.TagTypeStyle,
	})
	if err != nil {
		t.Fatalf("create test tag %q: %v", name, err)
	}
	t.Cleanup(func() { cleanTags(t, db, tag.ID) })
	return tag
}
