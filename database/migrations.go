// Package database provides the schema migrations and their tooling.
package database

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5:// driver
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsFromSource returns a migration source driver from the embedded migrations.
func migrationsFromSource() (source.Driver, error) {
	return iofs.New(migrationsFS, "migrations")
}

// Migrator is the interface for the migration tooling.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
	Close() (error, error)
}

// NewFromConnectionString returns a new migration instance from the given
// connection string. Both URL (postgres://) and keyword/value DSNs are accepted.
func NewFromConnectionString(connString string) (Migrator, error) {
	d, err := migrationsFromSource()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	dbURL, err := migrateURL(connString)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(m Migrator) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down reverts every applied migration.
func Down(m Migrator) error {
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	return nil
}

// migrateURL rewrites a pgx connection string into the pgx5:// form the
// migrate driver registers under.
func migrateURL(connString string) (string, error) {
	if strings.HasPrefix(connString, "pgx5://") {
		return connString, nil
	}
	if strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://") {
		u, err := url.Parse(connString)
		if err != nil {
			return "", fmt.Errorf("invalid connection string: %w", err)
		}
		u.Scheme = "pgx5"
		return u.String(), nil
	}
	return keywordDSNToURL(connString)
}

// keywordDSNToURL converts "host=h port=p user=u ..." into a pgx5:// URL.
// Quoted values are not supported.
func keywordDSNToURL(dsn string) (string, error) {
	u := &url.URL{Scheme: "pgx5"}
	q := url.Values{}
	var host, port, user, password string
	for _, field := range strings.Fields(dsn) {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			return "", fmt.Errorf("invalid connection string field %q", field)
		}
		switch k {
		case "host":
			host = v
		case "port":
			port = v
		case "user":
			user = v
		case "password":
			password = v
		case "dbname":
			u.Path = "/" + v
		default:
			q.Set(k, v)
		}
	}
	if host == "" {
		return "", errors.New("invalid connection string: host is required")
	}
	u.Host = host
	if port != "" {
		u.Host = host + ":" + port
	}
	if user != "" {
		if password != "" {
			u.User = url.UserPassword(user, password)
		} else {
			u.User = url.User(user)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
