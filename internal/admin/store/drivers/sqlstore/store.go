// Package sqlstore holds the database/sql repositories shared by the sqlite
// and mysql drivers. Both dialects accept '?' placeholders, so only error
// classification differs between them.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect carries the driver specifics the shared repositories need.
type Dialect struct {
	Name string

	// IsUniqueViolation reports whether err is a unique or primary key conflict.
	IsUniqueViolation func(error) bool
}

func (d Dialect) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case d.IsUniqueViolation != nil && d.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
	}
	return err
}

// Store implements every store.Store method except ApplyMigrations, which
// each driver adds with its own embedded migrations.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the pool for migration drivers.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, dialect: s.dialect}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Clients() store.Clients       { return newClientsRepo(s.db, s.dialect) }
func (s *Store) APIScopes() store.Resources   { return newResourcesRepo(s.db, s.dialect, domain.KindAPIScopes) }
func (s *Store) Roles() store.Roles           { return &rolesRepo{db: s.db, d: s.dialect} }
func (s *Store) RoleClaims() store.RoleClaims { return &roleClaimsRepo{db: s.db, d: s.dialect} }
func (s *Store) Users() store.Users           { return &usersRepo{db: s.db, d: s.dialect} }
func (s *Store) UserClaims() store.UserClaims { return &userClaimsRepo{db: s.db, d: s.dialect} }
func (s *Store) UserRoles() store.UserRoles   { return &userRolesRepo{db: s.db, d: s.dialect} }
func (s *Store) IdentityResources() store.Resources {
	return newResourcesRepo(s.db, s.dialect, domain.KindIdentityResources)
}

type txStore struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx

func (t *txStore) Clients() store.Clients       { return newClientsRepo(t.tx, t.dialect) }
func (t *txStore) APIScopes() store.Resources   { return newResourcesRepo(t.tx, t.dialect, domain.KindAPIScopes) }
func (t *txStore) Roles() store.Roles           { return &rolesRepo{db: t.tx, d: t.dialect} }
func (t *txStore) RoleClaims() store.RoleClaims { return &roleClaimsRepo{db: t.tx, d: t.dialect} }
func (t *txStore) Users() store.Users           { return &usersRepo{db: t.tx, d: t.dialect} }
func (t *txStore) UserClaims() store.UserClaims { return &userClaimsRepo{db: t.tx, d: t.dialect} }
func (t *txStore) UserRoles() store.UserRoles   { return &userRolesRepo{db: t.tx, d: t.dialect} }
func (t *txStore) IdentityResources() store.Resources {
	return newResourcesRepo(t.tx, t.dialect, domain.KindIdentityResources)
}

func count(ctx context.Context, db DBTX, query string, args ...any) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func now() time.Time { return time.Now().UTC() }

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// scanStrings reads a single string column from every row.
func scanStrings(ctx context.Context, db DBTX, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
