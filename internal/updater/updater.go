package updater

import (
	"context"
	"database/sql"
	"time"

	dserrors "github.com/systmms/dbpassrotate/internal/errors"
	"github.com/systmms/dbpassrotate/internal/logging"

	// Drivers not already referenced by the DSN builders
	_ "github.com/lib/pq"                // PostgreSQL
	_ "github.com/microsoft/go-mssqldb" // SQL Server
)

// OpenFunc opens a database handle for a driver name and DSN
type OpenFunc func(driverName, dataSourceName string) (*sql.DB, error)

// SQLUpdater changes a user's password on a single database per call
type SQLUpdater struct {
	open    OpenFunc
	timeout time.Duration
	logger  *logging.Logger
}

// Option configures an SQLUpdater
type Option func(*SQLUpdater)

// WithOpenFunc replaces sql.Open, mainly for tests
func WithOpenFunc(open OpenFunc) Option {
	return func(u *SQLUpdater) {
		u.open = open
	}
}

// WithTimeout bounds connecting plus executing the statement
func WithTimeout(timeout time.Duration) Option {
	return func(u *SQLUpdater) {
		if timeout > 0 {
			u.timeout = timeout
		}
	}
}

// WithLogger enables debug logging of the (redacted) statement
func WithLogger(logger *logging.Logger) Option {
	return func(u *SQLUpdater) {
		u.logger = logger
	}
}

// New creates a new SQL password updater
func New(opts ...Option) *SQLUpdater {
	u := &SQLUpdater{
		open:    sql.Open,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UpdatePassword connects to connURL as username/password and changes the
// password of username to newPassword.
//
// Configuration problems (bad URL shape, unknown vendor) are reported as
// errors.ConfigError before any connection is attempted. Failures against
// the live database are reported as errors.OperationError. Nothing is retried.
func (u *SQLUpdater) UpdatePassword(ctx context.Context, connURL, username, password, newPassword string) error {
	desc, err := ParseDescriptor(connURL)
	if err != nil {
		return err
	}

	statement := desc.Vendor.Statement(username, newPassword, password)

	dsn, err := desc.DSN(username, password, u.timeout)
	if err != nil {
		return err
	}

	vendor := desc.Vendor.String()
	if u.logger != nil && u.logger.DebugEnabled() {
		u.logger.Debug("Connecting to %s as %s with password %s", vendor, username, logging.Secret(password))
		u.logger.Debug("Executing on %s: %s", vendor, logging.Redact(statement, []string{password, newPassword}))
	}

	db, err := u.open(desc.Vendor.Driver(), dsn)
	if err != nil {
		return dserrors.DatabaseError(vendor, "open", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	// Dialing proves the caller still holds the current credentials
	conn, err := db.Conn(ctxWithTimeout)
	if err != nil {
		return dserrors.DatabaseError(vendor, "connect", err)
	}
	defer func() { _ = conn.Close() }()

	// No transaction: the statement runs in auto-commit mode
	if _, err := conn.ExecContext(ctxWithTimeout, statement); err != nil {
		return dserrors.DatabaseError(vendor, "password change", err)
	}

	return nil
}
