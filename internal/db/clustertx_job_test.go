package db_test

import (
	"testing"
	"time"

	"github.com/spoke-d/dispatchd/internal/db"
	dtesting "github.com/spoke-d/dispatchd/internal/testing"
	"github.com/stretchr/testify/require"
)

func TestJobAddAndByID(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	host := dtesting.AddHost(t, cluster, "http://worker-1:8080", 2)
	service := dtesting.AddService(t, cluster, host, "compose")

	job := dtesting.AddJob(t, cluster, db.Job{
		Type:             "compose",
		Operation:        "encode",
		Arguments:        []string{"a", "b"},
		Payload:          "<mp/>",
		Status:           db.StatusQueued,
		Dispatchable:     true,
		Creator:          "admin",
		Organization:     db.DefaultOrganization,
		CreatorServiceID: service.ID,
	})

	require.Equal(t, "compose", job.Type)
	require.Equal(t, []string{"a", "b"}, job.Arguments)
	require.Equal(t, db.StatusQueued, job.Status)
	require.True(t, job.Dispatchable)
	require.Equal(t, "http://worker-1:8080", job.CreatedHost)
	require.Equal(t, "", job.ProcessingHost)
	require.Equal(t, db.Signature("compose", "encode"), job.Signature)
	require.True(t, job.DateCreated.Equal(dtesting.Now))
	require.True(t, job.DateStarted.IsZero())
}

func TestJobByIDMissing(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	err := cluster.Transaction(func(tx *db.ClusterTx) error {
		_, err := tx.JobByID(42)
		return err
	})
	require.Equal(t, db.ErrNoSuchObject, err)
}

func TestJobClaimIsCompareAndSwap(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	host := dtesting.AddHost(t, cluster, "http://worker-1:8080", 2)
	service := dtesting.AddService(t, cluster, host, "compose")
	job := dtesting.AddJob(t, cluster, db.Job{
		Type:         "compose",
		Operation:    "encode",
		Status:       db.StatusQueued,
		Dispatchable: true,
	})

	err := cluster.Transaction(func(tx *db.ClusterTx) error {
		return tx.JobClaim(job.ID, job.Version, db.StatusDispatching, service.ID)
	})
	require.NoError(t, err)

	// A second claim with the stale version loses.
	err = cluster.Transaction(func(tx *db.ClusterTx) error {
		return tx.JobClaim(job.ID, job.Version, db.StatusDispatching, service.ID)
	})
	require.Equal(t, db.ErrConflict, err)

	var claimed db.Job
	err = cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		claimed, err = tx.JobByID(job.ID)
		return
	})
	require.NoError(t, err)
	require.Equal(t, db.StatusDispatching, claimed.Status)
	require.Equal(t, service.ID, claimed.ProcessorServiceID)
	require.Equal(t, host.BaseURL, claimed.ProcessingHost)
	require.Equal(t, job.Version+1, claimed.Version)
}

func TestJobsDispatchableOrdersRestartFirst(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	older := dtesting.AddJob(t, cluster, db.Job{
		Type: "compose", Operation: "encode", Status: db.StatusQueued, Dispatchable: true,
		DateCreated: dtesting.Now.Add(-time.Hour),
	})
	restart := dtesting.AddJob(t, cluster, db.Job{
		Type: "compose", Operation: "encode", Status: db.StatusRestart, Dispatchable: true,
	})
	dtesting.AddJob(t, cluster, db.Job{
		Type: "compose", Operation: "encode", Status: db.StatusQueued, Dispatchable: false,
	})
	dtesting.AddJob(t, cluster, db.Job{
		Type: "compose", Operation: "encode", Status: db.StatusRunning, Dispatchable: true,
	})

	var jobs []db.Job
	err := cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		jobs, err = tx.JobsDispatchable(10)
		return
	})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, restart.ID, jobs[0].ID)
	require.Equal(t, older.ID, jobs[1].ID)

	err = cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		jobs, err = tx.JobsDispatchable(1)
		return
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestJobRemoveCascadesToDescendants(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	root := dtesting.AddJob(t, cluster, db.Job{Type: "workflow", Operation: "START_WORKFLOW", Status: db.StatusRunning})
	child := dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusRunning, ParentID: root.ID, RootID: root.ID})
	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "trim", Status: db.StatusQueued, ParentID: child.ID, RootID: root.ID})

	err := cluster.Transaction(func(tx *db.ClusterTx) error {
		return tx.JobRemove(root.ID)
	})
	require.NoError(t, err)

	var count int64
	err = cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		count, err = tx.JobCount(db.JobFilter{})
		return
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}

func TestJobsWithoutParentSkipsWorkflowControlJobs(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	old := dtesting.Now.Add(-48 * time.Hour)
	finished := dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusFinished, DateCreated: old})
	dtesting.AddJob(t, cluster, db.Job{Type: "workflow", Operation: db.OperationStartWorkflow, Status: db.StatusFinished, DateCreated: old})
	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusRunning, DateCreated: old})
	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusFailed})

	var jobs []db.Job
	err := cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		jobs, err = tx.JobsWithoutParent(dtesting.Now.Add(-24 * time.Hour))
		return
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, finished.ID, jobs[0].ID)
}

func TestHostLoadsCountActiveJobs(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	h1 := dtesting.AddHost(t, cluster, "http://worker-1:8080", 4)
	h2 := dtesting.AddHost(t, cluster, "http://worker-2:8080", 4)
	s1 := dtesting.AddService(t, cluster, h1, "compose")
	s2 := dtesting.AddService(t, cluster, h2, "compose")
	w1 := dtesting.AddService(t, cluster, h1, db.WorkflowType)

	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusRunning, ProcessorServiceID: s1.ID})
	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusDispatching, ProcessorServiceID: s1.ID})
	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusFinished, ProcessorServiceID: s1.ID})
	dtesting.AddJob(t, cluster, db.Job{Type: db.WorkflowType, Operation: db.OperationStartWorkflow, Status: db.StatusRunning, ProcessorServiceID: w1.ID})
	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusRunning, ProcessorServiceID: s2.ID})

	err := cluster.Transaction(func(tx *db.ClusterTx) error {
		return tx.HostSetMaintenance(h2.ID, true)
	})
	require.NoError(t, err)

	var loads map[string]int64
	err = cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		loads, err = tx.HostLoads(db.WorkflowType)
		return
	})
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"http://worker-1:8080": 2}, loads)
}

func TestServiceFailedJobCount(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	host := dtesting.AddHost(t, cluster, "http://worker-1:8080", 4)
	service := dtesting.AddService(t, cluster, host, "compose")

	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusFailed, ProcessorServiceID: service.ID, DateCompleted: dtesting.Now.Add(-time.Hour)})
	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusFailed, ProcessorServiceID: service.ID, DateCompleted: dtesting.Now.Add(time.Minute)})
	dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusFinished, ProcessorServiceID: service.ID, DateCompleted: dtesting.Now.Add(time.Minute)})

	var n int
	err := cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		n, err = tx.ServiceFailedJobCount(service.ID, dtesting.Now)
		return
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
