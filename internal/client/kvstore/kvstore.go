// Package kvstore is the CLI's device storage: a single SQLite key/value
// table whose values are sealed with a per-device key. It backs the
// session store.
package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/ravey/almond/internal/client/kvstore/migrations"
	"github.com/ravey/almond/pkg/cryptox"
	"github.com/ravey/almond/pkg/session"
	_ "modernc.org/sqlite"
)

// ErrCorrupt reports a stored value that fails authentication, usually
// because the device key was replaced.
var ErrCorrupt = errors.New("kvstore: value cannot be opened")

type Store struct {
	db     *sql.DB
	sealer *cryptox.Sealer
	now    func() time.Time
}

var _ session.Storage = (*Store)(nil)

// Open opens (creating if needed) the database at dsn and applies migrations.
func Open(dsn string, sealer *cryptox.Sealer) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, sealer: sealer, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate device store: %w", err)
	}
	return s, nil
}

// FileDSN builds a modernc DSN for a database file.
func FileDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

func (s *Store) migrate() error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}
	instance, err := migrate.NewWithInstance("iofs", source, "", driver)
	if err != nil {
		return err
	}
	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get returns the opened value for key. Values are bound to their key, so a
// row copied under another key fails with ErrCorrupt.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	plain, err := s.sealer.Open(sealed, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	return string(plain), true, nil
}

// Apply writes every change in one transaction.
func (s *Store) Apply(ctx context.Context, changes ...session.Change) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	now := s.now().UnixMilli()
	for _, c := range changes {
		if c.Delete {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, c.Key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", c.Key, err)
			}
			continue
		}

		sealed, err := s.sealer.Seal([]byte(c.Value), []byte(c.Key))
		if err != nil {
			return fmt.Errorf("failed to seal %s: %w", c.Key, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, c.Key, sealed, now); err != nil {
			return fmt.Errorf("failed to set %s: %w", c.Key, err)
		}
	}
	return tx.Commit()
}

// Keys lists stored keys in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Reset deletes every stored value.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("failed to reset device store: %w", err)
	}
	return nil
}
