package testing

import (
	"testing"
	"time"

	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/db/cluster"
)

// NewCluster returns a registry database backed by a private in-memory
// sqlite database with the schema applied, along with a function to close
// it.
func NewCluster(t *testing.T) (*db.Cluster, func()) {
	t.Helper()

	c := db.NewCluster(cluster.New(cluster.NewSchema()))
	if err := c.Open(":memory:", 5*time.Second); err != nil {
		t.Fatalf("failed to open registry database: %v", err)
	}
	return c, func() {
		if err := c.Close(); err != nil {
			t.Errorf("failed to close registry database: %v", err)
		}
	}
}
