package db

import (
	"github.com/spoke-d/dispatchd/internal/db/database"
	q "github.com/spoke-d/dispatchd/internal/db/query"
)

// ConfigQuery reads and writes key/value config tables.
type ConfigQuery interface {
	SelectConfig(database.Tx, string, string, ...interface{}) (map[string]string, error)
	// UpdateConfig deletes the keys mapped to "".
	UpdateConfig(database.Tx, string, map[string]string) error
}

// ObjectsQuery reads and writes rows of a table.
type ObjectsQuery interface {
	SelectObjects(database.Tx, q.Dest, string, ...interface{}) error
	UpsertObject(database.Tx, string, []string, []interface{}) (int64, error)
	DeleteObject(database.Tx, string, int64) (bool, error)
}

// StringsQuery selects a single text column.
type StringsQuery interface {
	SelectStrings(database.Tx, string, ...interface{}) ([]string, error)
}

// CountQuery counts the rows of a table matching a WHERE clause.
type CountQuery interface {
	Count(database.Tx, string, string, ...interface{}) (int, error)
}

// Query is every statement helper a ClusterTx runs. Tests swap it for a
// mock.
type Query interface {
	ConfigQuery
	ObjectsQuery
	StringsQuery
	CountQuery
}

// Transaction runs a function inside a database transaction.
type Transaction interface {
	Transaction(database.DB, func(database.Tx) error) error
}

// queryShim forwards to the query package.
type queryShim struct{}

func (queryShim) SelectConfig(tx database.Tx, table string, where string, args ...interface{}) (map[string]string, error) {
	return q.SelectConfig(tx, table, where, args...)
}

func (queryShim) UpdateConfig(tx database.Tx, table string, values map[string]string) error {
	return q.UpdateConfig(tx, table, values)
}

func (queryShim) SelectObjects(tx database.Tx, dest q.Dest, stmt string, args ...interface{}) error {
	return q.SelectObjects(tx, dest, stmt, args...)
}

func (queryShim) UpsertObject(tx database.Tx, table string, columns []string, values []interface{}) (int64, error) {
	return q.UpsertObject(tx, table, columns, values)
}

func (queryShim) DeleteObject(tx database.Tx, table string, id int64) (bool, error) {
	return q.DeleteObject(tx, table, id)
}

func (queryShim) SelectStrings(tx database.Tx, stmt string, args ...interface{}) ([]string, error) {
	return q.SelectStrings(tx, stmt, args...)
}

func (queryShim) Count(tx database.Tx, table, where string, args ...interface{}) (int, error) {
	return q.Count(tx, table, where, args...)
}

type transactionShim struct{}

func (transactionShim) Transaction(db database.DB, f func(database.Tx) error) error {
	return q.Transaction(db, f)
}
