// Package database narrows database/sql down to the calls the registry
// makes, so that transactions can be mocked in tests.
package database

import (
	"database/sql"

	"github.com/pkg/errors"
)

// DB is an open database.
type DB interface {
	// Begin starts a transaction.
	Begin() (Tx, error)

	// Ping verifies the database is still reachable.
	Ping() error

	// Close releases the database.
	Close() error
}

// Tx is an in-progress transaction.
type Tx interface {
	Query(query string, args ...interface{}) (Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
	Commit() error
	Rollback() error
}

// Rows is the result of a query.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// DBAccessor exposes the database behind a value.
type DBAccessor interface {
	DB() DB
}

// NewShimDB wraps a sql.DB.
func NewShimDB(db *sql.DB) DB {
	return dbShim{db: db}
}

// ShimDB wraps the result of sql.Open.
func ShimDB(db *sql.DB, err error) (DB, error) {
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return NewShimDB(db), nil
}

type dbShim struct {
	db *sql.DB
}

func (s dbShim) Begin() (Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return txShim{tx: tx}, nil
}

func (s dbShim) Ping() error  { return s.db.Ping() }
func (s dbShim) Close() error { return s.db.Close() }

type txShim struct {
	tx *sql.Tx
}

func (s txShim) Query(query string, args ...interface{}) (Rows, error) {
	rows, err := s.tx.Query(query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return rows, nil
}

func (s txShim) Exec(query string, args ...interface{}) (sql.Result, error) {
	return s.tx.Exec(query, args...)
}

func (s txShim) Commit() error   { return s.tx.Commit() }
func (s txShim) Rollback() error { return s.tx.Rollback() }
