package cluster_test

import (
	"strings"
	"testing"
	"time"

	"github.com/spoke-d/dispatchd/internal/db/cluster"
	"github.com/spoke-d/dispatchd/internal/db/database"
	"github.com/spoke-d/dispatchd/internal/db/query"
	"github.com/spoke-d/dispatchd/internal/db/schema"
)

func TestDataSourceName(t *testing.T) {
	dsn := cluster.DataSourceName("/var/lib/dispatchd/registry.db", 2*time.Second)
	if !strings.HasPrefix(dsn, "file:/var/lib/dispatchd/registry.db?") {
		t.Errorf("unexpected dsn prefix %q", dsn)
	}
	for _, param := range []string{"_busy_timeout=2000", "_txlock=exclusive", "_foreign_keys=1"} {
		if !strings.Contains(dsn, param) {
			t.Errorf("expected %q in %q", param, dsn)
		}
	}
}

func TestDataSourceNameDefaultTimeout(t *testing.T) {
	dsn := cluster.DataSourceName(":memory:", 0)
	if !strings.Contains(dsn, "_busy_timeout=5000") {
		t.Errorf("expected default busy timeout in %q", dsn)
	}
}

func TestEnsureSchemaFresh(t *testing.T) {
	c := cluster.New(cluster.NewSchema())
	if err := c.Open(":memory:", time.Second); err != nil {
		t.Fatal(err)
	}
	defer c.DB().Close()

	initial, err := c.EnsureSchema()
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	if expected, actual := 0, initial; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}

	// Running it again is a no-op reporting the current version.
	initial, err = c.EnsureSchema()
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	if expected, actual := c.SchemaVersion(), initial; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

// The fresh dump and the series of updates must produce the same tables.
func TestFreshSchemaMatchesUpdates(t *testing.T) {
	c := cluster.New(cluster.NewSchema())
	if err := c.Open(":memory:", time.Second); err != nil {
		t.Fatal(err)
	}
	defer c.DB().Close()

	s := schema.New(cluster.NewSchema().Updates())
	if _, err := s.Ensure(c.DB()); err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	dump, err := s.Dump(c.DB())
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	for _, table := range []string{"config", "hosts", "services", "jobs", "incidents", "organizations", "users"} {
		if !strings.Contains(dump, "CREATE TABLE "+table) && !strings.Contains(dump, "CREATE TABLE \""+table+"\"") {
			t.Errorf("expected table %q in dump", table)
		}
		if !strings.Contains(cluster.FreshSchema(), "CREATE TABLE "+table) {
			t.Errorf("expected table %q in fresh schema", table)
		}
	}

	var count int
	if err := query.Transaction(c.DB(), func(tx database.Tx) error {
		var err error
		count, err = query.Count(tx, "organizations", "id=?", "default")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if expected, actual := 1, count; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}
