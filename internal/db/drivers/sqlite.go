package drivers

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

const libsqlDriverName = "libsql"

type SQLiteDriver struct {
	db *bun.DB
}

// NewSQLiteDriver opens remote libsql/Turso databases through the libsql
// client and local files (or :memory:) through the bundled SQLite driver.
func NewSQLiteDriver(ctx context.Context, dsn string) (*SQLiteDriver, error) {
	name := DriverNameForDSN(dsn)
	sqldb, err := sql.Open(name, dsn)
	if err != nil {
		return nil, err
	}

	if name == sqliteshim.ShimName {
		// One connection keeps :memory: databases alive and local files free of SQLITE_BUSY.
		sqldb.SetMaxOpenConns(1)
	}

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}

	return &SQLiteDriver{db: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

func DriverNameForDSN(dsn string) string {
	for _, scheme := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(dsn, scheme) {
			return libsqlDriverName
		}
	}
	return sqliteshim.ShimName
}

func (d *SQLiteDriver) GetDB() *bun.DB {
	return d.db
}

func (d *SQLiteDriver) Close() error {
	return d.db.Close()
}
