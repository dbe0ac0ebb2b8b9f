//go:build !libsql

package backend

import (
	"context"

	"github.com/papercomputeco/studybot/pkg/storage"
)

// go-libsql and go-sqlite3 both embed SQLite and cannot link into one binary.
func openLibSQL(context.Context, string) (storage.Driver, error) {
	return nil, ErrLibSQLUnavailable
}
