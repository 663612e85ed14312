package db_test

import (
	"testing"
	"time"

	"github.com/spoke-d/dispatchd/internal/db"
	dtesting "github.com/spoke-d/dispatchd/internal/testing"
	"gotest.tools/assert"
)

func TestServiceByTypeAndHost(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	host := dtesting.AddHost(t, cluster, "http://worker-1:8080", 2)
	added := dtesting.AddService(t, cluster, host, "compose")

	var service db.Service
	err := cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		service, err = tx.ServiceByTypeAndHost("compose", "http://worker-1:8080")
		return
	})
	assert.NilError(t, err)
	assert.Equal(t, added.ID, service.ID)
	assert.Equal(t, "http://worker-1:8080", service.Host)
	assert.Equal(t, db.StateNormal, service.State)
	assert.Assert(t, service.JobProducer)

	err = cluster.Transaction(func(tx *db.ClusterTx) error {
		_, err := tx.ServiceByTypeAndHost("inspect", "http://worker-1:8080")
		return err
	})
	assert.Equal(t, db.ErrNoSuchObject, err)
}

func TestServiceSetStateAndRelatedServices(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	h1 := dtesting.AddHost(t, cluster, "http://worker-1:8080", 2)
	h2 := dtesting.AddHost(t, cluster, "http://worker-2:8080", 2)
	h3 := dtesting.AddHost(t, cluster, "http://worker-3:8080", 2)
	s1 := dtesting.AddService(t, cluster, h1, "compose")
	s2 := dtesting.AddService(t, cluster, h2, "compose")
	dtesting.AddService(t, cluster, h3, "compose")

	sig := db.Signature("compose", "encode")
	changed := dtesting.Now.Add(time.Minute)
	err := cluster.Transaction(func(tx *db.ClusterTx) error {
		if err := tx.ServiceSetState(s1.ID, db.StateWarning, sig, "", changed); err != nil {
			return err
		}
		return tx.ServiceSetState(s2.ID, db.StateError, "other", sig, changed)
	})
	assert.NilError(t, err)

	var related []db.Service
	err = cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		related, err = tx.RelatedServices("compose", sig)
		return
	})
	assert.NilError(t, err)
	assert.Equal(t, 2, len(related))
	assert.Equal(t, s1.ID, related[0].ID)
	assert.Assert(t, related[0].StateChanged.Equal(changed))
	assert.Equal(t, s2.ID, related[1].ID)
	assert.Equal(t, "other", related[1].WarningTrigger)

	var warned []db.Service
	err = cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		warned, err = tx.ServicesByState(db.StateWarning, db.StateError)
		return
	})
	assert.NilError(t, err)
	assert.Equal(t, 2, len(warned))
}

func TestHostAddAndMaintenance(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	host := dtesting.AddHost(t, cluster, "http://worker-1:8080", 2)
	dtesting.AddService(t, cluster, host, "compose")

	err := cluster.Transaction(func(tx *db.ClusterTx) error {
		return tx.HostSetMaintenance(host.ID, true)
	})
	assert.NilError(t, err)

	var services []db.Service
	var stored db.Host
	err = cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		if stored, err = tx.HostByBaseURL(host.BaseURL); err != nil {
			return
		}
		services, err = tx.ServicesByHost(host.BaseURL)
		return
	})
	assert.NilError(t, err)
	assert.Assert(t, stored.Maintenance)
	assert.Assert(t, !stored.Available())
	assert.Equal(t, 1, len(services))
	assert.Assert(t, services[0].Maintenance)
}
