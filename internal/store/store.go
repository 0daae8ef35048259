// Package store provides database access methods for all catalog entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
// Single-row lookups return (nil, nil) when the row does not exist.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned by write paths that reference a row which
	// does not exist (or is soft-deleted).
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a write violates a uniqueness rule, such
	// as a duplicate live slug.
	ErrConflict = errors.New("store: conflict")
)

// PostgreSQL error codes inspected by the stores.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Seek is a position in the (created_at DESC, id DESC) site ordering.
// Listings resume strictly after it.
type Seek struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// querier is satisfied by both *sql.DB and *sql.Tx so helpers can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

// qualify prefixes every column in a comma-separated list with alias.
func qualify(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// parseUUIDs converts a scanned text array into UUIDs, skipping blanks.
func parseUUIDs(arr pq.StringArray) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(arr))
	for _, s := range arr {
		if s == "" {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// linkTags inserts (ownerID, tagID) rows into a join table, ignoring
// duplicates. table is always a package constant, never caller input.
func linkTags(ctx context.Context, q querier, table, ownerColumn string, ownerID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO `+table+` (`+ownerColumn+`, tag_id)
		SELECT $1, t.id FROM tags t
		WHERE t.id = ANY($2::uuid[]) AND t.deleted_at IS NULL
		ON CONFLICT DO NOTHING
	`, ownerID, pq.Array(uuidStrings(tagIDs)))
	return err
}
