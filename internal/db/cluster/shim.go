package cluster

import (
	"database/sql"
	"database/sql/driver"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db/database"
)

// The following will shim the database to enable better logging and metrics
// at the query sites.

type databaseIO struct{}

func (databaseIO) Create() driver.Driver {
	return &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			_, err := conn.Exec("PRAGMA foreign_keys=ON;", nil)
			return err
		},
	}
}

func (databaseIO) Register(driverName string, driver driver.Driver) {
	sql.Register(driverName, driver)
}

func (databaseIO) Drivers() []string {
	return sql.Drivers()
}

func (databaseIO) Open(driverName, dataSourceName string) (database.DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	// A single connection serialises the writers of this process, which
	// keeps an in-memory database consistent and avoids SQLITE_BUSY storms
	// between our own goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return database.ShimDB(db, err)
}
