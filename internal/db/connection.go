package db

import (
	"context"
	"fmt"

	"github.com/agri4/agri-server/internal/config"
	"github.com/agri4/agri-server/internal/db/drivers"

	"github.com/uptrace/bun/extra/bundebug"
)

func NewConnection(ctx context.Context, cfg *config.Config) (drivers.Driver, error) {
	if cfg.DB == nil {
		return nil, config.ErrDBNotConfigured
	}

	var (
		driver drivers.Driver
		err    error
	)
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		driver, err = drivers.NewSQLiteDriver(ctx, cfg.DB.DSN)
	case config.DriverPostgres:
		driver, err = drivers.NewPGDriver(ctx, cfg.DB.DSN)
	default:
		return nil, fmt.Errorf("invalid database driver: %s", cfg.DB.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DB.Driver, err)
	}

	if cfg.DB.Debug {
		driver.GetDB().AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return driver, nil
}
