// Package schema migrates the registry database through an ordered series
// of updates, recording the applied versions in a "schema" table.
package schema

import (
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db/database"
	"github.com/spoke-d/dispatchd/internal/db/query"
)

const (
	stmtCreateTable = `
CREATE TABLE IF NOT EXISTS schema (
    id         INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    version    INTEGER NOT NULL,
    updated_at DATETIME NOT NULL,
    UNIQUE (version)
)`
	stmtSelectVersions = `SELECT version FROM schema ORDER BY version`
	stmtInsertVersion  = `INSERT INTO schema (version, updated_at) VALUES (?, strftime("%s"))`
)

// Update applies one schema change within the migration transaction.
type Update func(database.Tx) error

// Schema is an ordered series of updates. Update n (starting at 1) moves
// the database to version n.
type Schema struct {
	updates []Update
	fresh   string
}

// New creates a Schema from the given updates.
func New(updates []Update) *Schema {
	return &Schema{
		updates: updates,
	}
}

// Fresh sets a statement creating the latest schema in one go. It is used
// instead of the updates when the database is empty.
func (s *Schema) Fresh(statement string) {
	s.fresh = statement
}

// Ensure brings the database up to the latest version in a single
// transaction and returns the version it started from. A database newer
// than the known updates is an error.
func (s *Schema) Ensure(src database.DB) (int, error) {
	var current int
	err := query.Transaction(src, func(tx database.Tx) error {
		if _, err := tx.Exec(stmtCreateTable); err != nil {
			return errors.Wrap(err, "failed to create schema table")
		}
		versions, err := query.SelectIntegers(tx, stmtSelectVersions)
		if err != nil {
			return errors.Wrap(err, "failed to fetch update versions")
		}
		for i := 1; i < len(versions); i++ {
			if versions[i] != versions[i-1]+1 {
				return errors.Errorf("missing updates: %d -> %d", versions[i-1], versions[i])
			}
		}
		if len(versions) > 0 {
			current = versions[len(versions)-1]
		}

		if current > len(s.updates) {
			return errors.Errorf("schema version '%d' is more recent than expected '%d'", current, len(s.updates))
		}

		if current == 0 && s.fresh != "" {
			if _, err := tx.Exec(s.fresh); err != nil {
				return errors.Wrap(err, "cannot apply fresh schema")
			}
			return nil
		}

		for version := current; version < len(s.updates); version++ {
			if err := s.updates[version](tx); err != nil {
				return errors.Wrapf(err, "failed to apply update %d", version+1)
			}
			if _, err := tx.Exec(stmtInsertVersion, version+1); err != nil {
				return errors.Wrapf(err, "failed to insert version %d", version+1)
			}
		}
		return nil
	})
	if err != nil {
		return -1, errors.WithStack(err)
	}
	return current, nil
}
