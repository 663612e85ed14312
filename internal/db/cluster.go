package db

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/db/database"
	q "github.com/spoke-d/dispatchd/internal/db/query"
)

// ClusterTransactioner runs f inside a registry transaction. The
// transaction commits when f returns nil and rolls back otherwise.
type ClusterTransactioner interface {
	Transaction(f func(*ClusterTx) error) error
}

// QueryCluster opens the registry database and migrates its schema.
type QueryCluster interface {
	database.DBAccessor

	// Open the database at path. Writers finding it locked wait up to the
	// busy timeout.
	Open(string, time.Duration) error

	// EnsureSchema returns the version found before migrating.
	EnsureSchema() (int, error)

	SchemaVersion() int
}

// ClusterTxProvider wraps a raw transaction into a ClusterTx.
type ClusterTxProvider interface {
	New(database.Tx) *ClusterTx
}

// Cluster mediates access to data stored in the shared registry database.
// Every registry process opens the same database, there is no leader.
type Cluster struct {
	cluster           QueryCluster
	clusterTxProvider ClusterTxProvider
	mu                sync.RWMutex
	transaction       Transaction
	logger            log.Logger
	clock             clock.Clock
	sleeper           clock.Sleeper
}

// NewCluster creates a new Cluster object.
func NewCluster(cluster QueryCluster, options ...ClusterOption) *Cluster {
	opts := newClusterOptions()
	for _, option := range options {
		option(opts)
	}

	return &Cluster{
		cluster:           cluster,
		clusterTxProvider: opts.clusterTxProvider,
		transaction:       opts.transaction,
		logger:            opts.logger,
		clock:             opts.clock,
		sleeper:           opts.sleeper,
	}
}

// Open the shared database at path and bring its schema up to date.
//
// The database is pinged until it answers or the timeout expires, because
// another registry process may be holding the write lock while migrating.
func (c *Cluster) Open(path string, timeout time.Duration) error {
	if err := c.cluster.Open(path, timeout); err != nil {
		return errors.Wrap(err, "failed to open database")
	}

	after := c.clock.After(timeout)
	for i := 0; ; i++ {
		err := c.cluster.DB().Ping()
		if err == nil {
			break
		}
		if !q.IsRetriableError(err) {
			return errors.WithStack(err)
		}

		msg := fmt.Sprintf("Failed connecting to registry database (attempt %d)", i)
		if i > 5 {
			level.Warn(c.logger).Log("err", err, "msg", msg)
		} else {
			level.Debug(c.logger).Log("err", err, "msg", msg)
		}

		c.sleeper.Sleep(250 * time.Millisecond)
		select {
		case <-after:
			return errors.Errorf("failed to connect to registry database")
		default:
		}
	}

	initial, err := c.cluster.EnsureSchema()
	if err != nil {
		return errors.Wrap(err, "failed to ensure schema")
	}
	level.Debug(c.logger).Log("msg", "Database schema ensured", "initial", initial, "current", c.cluster.SchemaVersion())
	return nil
}

// Transaction runs f inside a ClusterTx. Transactions failing because
// another process holds the database lock are retried.
func (c *Cluster) Transaction(f func(*ClusterTx) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tx(f)
}

// DB returns the underlying database
func (c *Cluster) DB() database.DB {
	return c.cluster.DB()
}

// SchemaVersion returns the underlying schema version for the cluster
func (c *Cluster) SchemaVersion() int {
	return c.cluster.SchemaVersion()
}

// Close the database facade.
func (c *Cluster) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cluster.DB().Close()
}

func (c *Cluster) tx(f func(*ClusterTx) error) error {
	return q.Retry(c.sleeper, func() error {
		return c.transaction.Transaction(c.cluster.DB(), func(tx database.Tx) error {
			return f(c.clusterTxProvider.New(tx))
		})
	})
}

// UnsafeClusterDB exposes the raw database of c to tests.
func UnsafeClusterDB(c *Cluster) database.DB {
	return c.cluster.DB()
}
