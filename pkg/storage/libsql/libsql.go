// Package libsql provides a storage driver for local libSQL database files.
package libsql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	_ "github.com/tursodatabase/go-libsql" // register the libSQL driver as "libsql"

	"github.com/papercomputeco/studybot/pkg/storage/sqldriver"
)

// Driver implements storage.Driver on a libSQL file via the sql driver.
// libSQL speaks the SQLite dialect, so it shares the SQLite schema.
type Driver struct {
	*sqldriver.Driver
}

// NewDriver opens (or creates) the libSQL database at dbPath.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	dsn := dbPath
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	drv, err := sqldriver.New(ctx, db, sqldriver.Dialect{
		Name:              dialect.SQLite,
		Schema:            sqldriver.SQLiteSchema,
		IsUniqueViolation: IsUniqueViolation,
		IsCheckViolation:  IsCheckViolation,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{Driver: drv}, nil
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
// libSQL surfaces SQLite errors as plain strings.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err is a CHECK constraint failure.
func IsCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}
