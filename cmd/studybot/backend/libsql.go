//go:build libsql

package backend

import (
	"context"
	"fmt"

	"github.com/papercomputeco/studybot/pkg/storage"
	"github.com/papercomputeco/studybot/pkg/storage/libsql"
)

func openLibSQL(ctx context.Context, path string) (storage.Driver, error) {
	d, err := libsql.NewDriver(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create libSQL driver: %w", err)
	}
	return d, nil
}
