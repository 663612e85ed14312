package db

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db/database"
)

// ClusterTx models a single interaction with the registry database.
//
// It wraps low-level database.Tx objects and offers a high-level API to fetch
// and update data.
type ClusterTx struct {
	tx    database.Tx
	query Query
}

// NewClusterTx creates a new transaction node with sane defaults
func NewClusterTx(tx database.Tx) *ClusterTx {
	return NewClusterTxWithQuery(tx, queryShim{})
}

// NewClusterTxWithQuery creates a new transaction node with sane defaults
func NewClusterTxWithQuery(tx database.Tx, query Query) *ClusterTx {
	return &ClusterTx{
		tx:    tx,
		query: query,
	}
}

// Config fetches all cluster config keys.
func (c *ClusterTx) Config() (map[string]string, error) {
	return c.query.SelectConfig(c.tx, "config", "")
}

// UpdateConfig updates the given cluster configuration keys in the
// config table. Config keys set to empty values will be deleted.
func (c *ClusterTx) UpdateConfig(values map[string]string) error {
	return c.query.UpdateConfig(c.tx, "config", values)
}

// exec runs a statement that must touch exactly one row.
func (c *ClusterTx) exec(stmt string, args ...interface{}) error {
	result, err := c.tx.Exec(stmt, args...)
	if err != nil {
		return errors.WithStack(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	switch n {
	case 0:
		return ErrNoSuchObject
	case 1:
		return nil
	default:
		return errors.Errorf("query updated %d rows instead of 1", n)
	}
}

// in renders a "column IN (?, ?)" clause for the given number of values.
func in(column string, n int) string {
	return column + " IN (" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullable turns the zero id into a NULL foreign key.
func nullable(id int64) interface{} {
	if id <= 0 {
		return nil
	}
	return id
}
