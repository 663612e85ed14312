package cluster

import (
	"database/sql/driver"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/db/database"
	"github.com/spoke-d/dispatchd/internal/db/query"
	"github.com/spoke-d/dispatchd/internal/db/schema"
)

// DefaultBusyTimeout is how long a connection waits on a locked database
// before giving up with SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

// DatabaseRegistrar registers sql drivers, like database/sql does.
type DatabaseRegistrar interface {
	Register(name string, driver driver.Driver)
	Drivers() []string
}

// DatabaseOpener opens a database through a registered driver.
type DatabaseOpener interface {
	Open(driverName, dataSourceName string) (database.DB, error)
}

// DatabaseDriver builds the sqlite driver. Every connection it opens has
// foreign keys enabled.
type DatabaseDriver interface {
	Create() driver.Driver
}

// DatabaseIO groups the side effects of opening a database so tests can
// replace them.
type DatabaseIO interface {
	DatabaseDriver
	DatabaseRegistrar
	DatabaseOpener
}

// NameProvider hands out unique driver names.
type NameProvider interface {
	DriverName() string
}

// SchemaProvider builds the registry schema and its updates.
type SchemaProvider interface {
	Schema() Schema
	Updates() []schema.Update
}

// Schema brings a database up to the latest version. Fresh sets the
// statement used on an empty database.
type Schema interface {
	Fresh(string)
	Ensure(database.DB) (int, error)
}

// Cluster represents the registry database shared by every dispatchd
// process, in the sense that you can open and query it.
type Cluster struct {
	database       database.DB
	databaseIO     DatabaseIO
	nameProvider   NameProvider
	schemaProvider SchemaProvider
	sleeper        clock.Sleeper
	once           sync.Once
	driverName     string
}

// New creates a cluster ensuring that sane defaults are employed.
func New(schemaProvider SchemaProvider, options ...Option) *Cluster {
	opts := newOptions()
	opts.schemaProvider = schemaProvider
	for _, option := range options {
		option(opts)
	}

	return &Cluster{
		database:       opts.database,
		databaseIO:     opts.databaseIO,
		nameProvider:   opts.nameProvider,
		schemaProvider: opts.schemaProvider,
		sleeper:        opts.sleeper,
	}
}

// Open the shared database found at the given path. The path can be
// ":memory:" for a private in-memory database, which is what the tests use.
//
// Every process opening the same file takes part in the same registry; the
// file is expected to live on storage that all of them can reach.
func (c *Cluster) Open(path string, busyTimeout time.Duration) error {
	c.register()

	db, err := c.databaseIO.Open(c.driverName, DataSourceName(path, busyTimeout))
	c.database = db

	return errors.Wrap(err, "cannot open cluster database")
}

// EnsureSchema applies all relevant schema updates to the cluster database.
//
// It returns the schema version the database was at before any update was
// applied, so zero means the database was created from scratch.
func (c *Cluster) EnsureSchema() (int, error) {
	if c.database == nil {
		return -1, errors.Errorf("cluster database is not open")
	}

	schema := c.schemaProvider.Schema()

	var initial int
	err := query.Retry(c.sleeper, func() error {
		var err error
		initial, err = schema.Ensure(c.database)
		return err
	})
	return initial, errors.WithStack(err)
}

// DB return the current database source.
func (c *Cluster) DB() database.DB {
	return c.database
}

// SchemaVersion returns the underlying schema version for the cluster
func (c *Cluster) SchemaVersion() int {
	return len(c.schemaProvider.Updates())
}

func (c *Cluster) register() {
	c.once.Do(func() {
		c.driverName = c.nameProvider.DriverName()
		for _, v := range c.databaseIO.Drivers() {
			if v == c.driverName {
				return
			}
		}
		c.databaseIO.Register(c.driverName, c.databaseIO.Create())
	})
}

// DataSourceName builds the sqlite DSN for the given file path. Transactions
// take the write lock up front (_txlock=exclusive) so that two registry
// processes can not both read a job and then race to update it.
func DataSourceName(path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}
	values := url.Values{}
	values.Set("_busy_timeout", fmt.Sprintf("%d", busyTimeout/time.Millisecond))
	values.Set("_txlock", "exclusive")
	values.Set("_foreign_keys", "1")
	return fmt.Sprintf("file:%s?%s", path, values.Encode())
}

// Monotonic serial number for registering new instances of the sqlite driver
// using the database/sql stdlib package. This is needed since there's no way
// to unregister drivers, and in unit tests more than one driver gets
// registered.
var sqliteDriverSerial uint64

// SQLiteNameProvider creates a new name provider for the cluster
type SQLiteNameProvider struct{}

// DriverName generates a new name for the sqlite driver registration. We need
// it to be unique for testing, see below.
func (p *SQLiteNameProvider) DriverName() string {
	n := atomic.AddUint64(&sqliteDriverSerial, 1)
	return fmt.Sprintf("dispatchd-sqlite-%d", n)
}
