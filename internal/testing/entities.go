package testing

import (
	"testing"
	"time"

	"github.com/spoke-d/dispatchd/internal/db"
)

// Now is the fixed instant used by seeded entities.
var Now = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// AddHost seeds an online, active host.
func AddHost(t *testing.T, c *db.Cluster, baseURL string, maxJobs int64) db.Host {
	t.Helper()

	host := db.Host{
		BaseURL: baseURL,
		MaxJobs: maxJobs,
		Online:  true,
		Active:  true,
	}
	if err := c.Transaction(func(tx *db.ClusterTx) error {
		id, err := tx.HostAdd(host)
		host.ID = id
		return err
	}); err != nil {
		t.Fatalf("failed to add host %q: %v", baseURL, err)
	}
	return host
}

// AddService seeds an online, active job producer of the given type on the
// host.
func AddService(t *testing.T, c *db.Cluster, host db.Host, serviceType string) db.Service {
	t.Helper()

	service := db.Service{
		HostID:       host.ID,
		Host:         host.BaseURL,
		ServiceType:  serviceType,
		Path:         "/" + serviceType,
		Online:       true,
		Active:       true,
		JobProducer:  true,
		StateChanged: Now,
		OnlineFrom:   Now,
	}
	if err := c.Transaction(func(tx *db.ClusterTx) error {
		id, err := tx.ServiceAdd(service)
		service.ID = id
		return err
	}); err != nil {
		t.Fatalf("failed to add service %q: %v", serviceType, err)
	}
	return service
}

// AddJob seeds a job, filling the creation date when missing, and returns
// it as read back from the database.
func AddJob(t *testing.T, c *db.Cluster, job db.Job) db.Job {
	t.Helper()

	if job.DateCreated.IsZero() {
		job.DateCreated = Now
	}
	var stored db.Job
	if err := c.Transaction(func(tx *db.ClusterTx) error {
		id, err := tx.JobAdd(job)
		if err != nil {
			return err
		}
		stored, err = tx.JobByID(id)
		return err
	}); err != nil {
		t.Fatalf("failed to add job: %v", err)
	}
	return stored
}
