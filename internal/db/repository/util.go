package repository

import (
	"database/sql"
	"time"
)

func now() time.Time {
	return time.Now().UTC()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
