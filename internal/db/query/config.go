package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db/database"
)

// SelectConfig returns the key/value rows of a config table, optionally
// narrowed by a WHERE clause.
func SelectConfig(tx database.Tx, table string, where string, args ...interface{}) (map[string]string, error) {
	stmt := fmt.Sprintf("SELECT key, value FROM %s", table)
	if where != "" {
		stmt += " WHERE " + where
	}

	var pairs [][2]string
	err := SelectObjects(tx, func(i int) []interface{} {
		pairs = append(pairs, [2]string{})
		return []interface{}{&pairs[i][0], &pairs[i][1]}
	}, stmt, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		values[pair[0]] = pair[1]
	}
	return values, nil
}

// UpdateConfig writes the given keys to a config table. Keys with an empty
// value are deleted.
func UpdateConfig(tx database.Tx, table string, values map[string]string) error {
	var (
		upserts []string
		params  []interface{}
		deletes []interface{}
	)
	for key, value := range values {
		if value == "" {
			deletes = append(deletes, key)
			continue
		}
		upserts = append(upserts, "(?, ?)")
		params = append(params, key, value)
	}

	if len(upserts) > 0 {
		stmt := fmt.Sprintf("INSERT OR REPLACE INTO %s (key, value) VALUES %s", table, strings.Join(upserts, ", "))
		if _, err := tx.Exec(stmt, params...); err != nil {
			return errors.Wrap(err, "updating values failed")
		}
	}
	if len(deletes) > 0 {
		stmt := fmt.Sprintf("DELETE FROM %s WHERE key IN %s", table, Params(len(deletes)))
		if _, err := tx.Exec(stmt, deletes...); err != nil {
			return errors.Wrap(err, "deleting values failed")
		}
	}
	return nil
}
