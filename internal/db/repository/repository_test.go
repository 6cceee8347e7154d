package repository

import (
	"context"
	"testing"

	"github.com/agri4/agri-server/internal/db/drivers"
	"github.com/agri4/agri-server/internal/db/migrations"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	driver, err := drivers.NewSQLiteDriver(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })

	_, err = migrations.Migrate(ctx, driver.GetDB())
	require.NoError(t, err)

	return driver.GetDB()
}
