// Package query holds the small SQL helpers the registry tables are built
// on. Every helper runs inside a caller provided transaction.
package query

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db/database"
)

// Transaction runs f in a transaction, committing when it returns nil and
// rolling back otherwise.
func Transaction(db database.DB, f func(database.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := f(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Wrap(err, rerr.Error())
		}
		return err
	}

	if err := tx.Commit(); err != nil && err != sql.ErrTxDone {
		return errors.WithStack(err)
	}
	return nil
}

// Dest returns the scan targets for the i-th row yielded by SelectObjects.
type Dest func(i int) []interface{}

// SelectObjects runs the query and scans every row into the targets
// returned by dest.
func SelectObjects(tx database.Tx, dest Dest, query string, args ...interface{}) error {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(dest(i)...); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(rows.Err())
}

// UpsertObject inserts or replaces a row of table and returns its id.
// Columns and values are matched by position.
func UpsertObject(tx database.Tx, table string, columns []string, values []interface{}) (int64, error) {
	if len(columns) == 0 {
		return -1, errors.Errorf("columns length is zero")
	}
	if len(columns) != len(values) {
		return -1, errors.Errorf("columns length does not match values length")
	}

	stmt := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), Params(len(columns)),
	)
	result, err := tx.Exec(stmt, values...)
	if err != nil {
		return -1, errors.WithStack(err)
	}
	id, err := result.LastInsertId()
	return id, errors.WithStack(err)
}

// DeleteObject removes the row of table with the given id and reports
// whether it existed.
func DeleteObject(tx database.Tx, table string, id int64) (bool, error) {
	result, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id=?", table), id)
	if err != nil {
		return false, errors.WithStack(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.WithStack(err)
	}
	if n > 1 {
		return true, errors.Errorf("more than one row was deleted")
	}
	return n == 1, nil
}

// Count returns the number of rows of table matching the optional WHERE
// clause.
func Count(tx database.Tx, table, where string, args ...interface{}) (int, error) {
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if where != "" {
		stmt += " WHERE " + where
	}

	var counts []int
	err := SelectObjects(tx, func(i int) []interface{} {
		counts = append(counts, 0)
		return []interface{}{&counts[i]}
	}, stmt, args...)
	if err != nil {
		return -1, errors.WithStack(err)
	}
	if len(counts) != 1 {
		return -1, errors.Errorf("expected one row, got %d", len(counts))
	}
	return counts[0], nil
}

// SelectStrings runs a query yielding a single text column.
func SelectStrings(tx database.Tx, query string, args ...interface{}) ([]string, error) {
	var values []string
	err := SelectObjects(tx, func(i int) []interface{} {
		values = append(values, "")
		return []interface{}{&values[i]}
	}, query, args...)
	return values, errors.WithStack(err)
}

// SelectIntegers runs a query yielding a single integer column.
func SelectIntegers(tx database.Tx, query string, args ...interface{}) ([]int, error) {
	var values []int
	err := SelectObjects(tx, func(i int) []interface{} {
		values = append(values, 0)
		return []interface{}{&values[i]}
	}, query, args...)
	return values, errors.WithStack(err)
}

// Params returns a parenthesised list of n placeholders, for example
// Params(2) is "(?, ?)".
func Params(n int) string {
	if n <= 0 {
		return "()"
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
