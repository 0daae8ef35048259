// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Integration tests are skipped when PostgreSQL or Valkey are unavailable;
// request validation tests run without either.
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"refto/internal/database"
	"refto/internal/feed"
	"refto/internal/middleware"
	"refto/internal/models"
	"refto/internal/session"
	"refto/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "refto")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "refto")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "session:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB          *sql.DB
	Sessions    *session.Store
	Users       *store.UserStore
	SiteStore   *store.SiteStore
	Service     *feed.Service
	Feed        *Feed
	Sites       *Sites
	Admin       *Admin
	Auth        *Auth
	Submissions *Submissions
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	users := store.NewUserStore(db)
	sites := store.NewSiteStore(db)
	pages := store.NewPageStore(db)
	versions := store.NewVersionStore(db)
	feeds := store.NewFeedStore(db)
	likes := store.NewLikeStore(db)
	tags := store.NewTagStore(db)
	submissions := store.NewSubmissionStore(db)

	service := feed.NewService(sites, pages, versions, feeds, likes, feed.Options{})

	return &testEnv{
		DB:          db,
		Sessions:    sessions,
		Users:       users,
		SiteStore:   sites,
		Service:     service,
		Feed:        NewFeed(service, 3),
		Sites:       NewSites(service, sites, pages, versions, likes, tags),
		Admin:       NewAdmin(sites, pages, tags, submissions, nil),
		Auth:        NewAuth(sessions, users),
		Submissions: NewSubmissions(submissions),
	}
}

// createTestUser inserts a user removed on cleanup.
func createTestUser(t *testing.T, env *testEnv, role models.Role) *models.User {
	t.Helper()

	email := "handler-" + uuid.NewString()[:8] + "@example.com"
	u, err := env.Users.Create(context.Background(), email, "password123", "Handler Test", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM likes WHERE user_id = $1", u.ID)
		env.DB.Exec("DELETE FROM submit_sites WHERE user_id = $1", u.ID)
		env.DB.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})
	return u
}

// cleanSite removes a site created through the admin handlers.
func cleanSite(t *testing.T, db *sql.DB, id uuid.UUID) {
	t.Helper()
	db.Exec(`DELETE FROM likes WHERE version_id IN (
		SELECT v.id FROM versions v JOIN pages p ON p.id = v.page_id WHERE p.site_id = $1)`, id)
	db.Exec(`DELETE FROM version_tags WHERE version_id IN (
		SELECT v.id FROM versions v JOIN pages p ON p.id = v.page_id WHERE p.site_id = $1)`, id)
	db.Exec(`DELETE FROM versions WHERE page_id IN (SELECT id FROM pages WHERE site_id = $1)`, id)
	db.Exec(`DELETE FROM pages WHERE site_id = $1`, id)
	db.Exec(`DELETE FROM site_tags WHERE site_id = $1`, id)
	db.Exec(`DELETE FROM sites WHERE id = $1`, id)
}

// sessionFor builds session data for a user.
func sessionFor(u *models.User) *session.Data {
	return &session.Data{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   time.Now(),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeBody unmarshals a recorded JSON response.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}
