package registry_test

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/failover"
	"github.com/spoke-d/dispatchd/internal/registry"
	"github.com/spoke-d/dispatchd/internal/registry/mocks"
	dtesting "github.com/spoke-d/dispatchd/internal/testing"
	"github.com/stretchr/testify/require"
)

func TestCreateJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	host := dtesting.AddHost(t, f.cluster, workerOne, 2)
	service := dtesting.AddService(t, f.cluster, host, "compose")

	parent, err := f.registry.CreateJob(registry.CreateJobParams{
		Host:         workerOne,
		Type:         "compose",
		Operation:    "encode",
		Arguments:    []string{"track-1"},
		Dispatchable: true,
		Creator:      "admin",
	})
	require.NoError(t, err)
	require.Equal(t, db.StatusQueued, parent.Status)
	require.Equal(t, int64(0), parent.ProcessorServiceID)
	require.Equal(t, db.DefaultOrganization, parent.Organization)
	require.Equal(t, db.Signature("compose", "encode"), parent.Signature)

	child, err := f.registry.CreateJob(registry.CreateJobParams{
		Host:      workerOne,
		Type:      "compose",
		Operation: "inspect",
		ParentID:  parent.ID,
	})
	require.NoError(t, err)
	require.Equal(t, db.StatusRunning, child.Status)
	require.Equal(t, service.ID, child.ProcessorServiceID)
	require.True(t, child.DateStarted.Equal(child.DateCreated))
	require.Equal(t, int64(0), child.QueueTime)
	require.Equal(t, parent.ID, child.ParentID)
	require.Equal(t, parent.ID, child.RootID)

	grandchild, err := f.registry.CreateJob(registry.CreateJobParams{
		Host:      workerOne,
		Type:      "compose",
		Operation: "inspect",
		ParentID:  child.ID,
	})
	require.NoError(t, err)
	require.Equal(t, child.ID, grandchild.ParentID)
	require.Equal(t, parent.ID, grandchild.RootID)

	descendants, err := f.registry.ChildJobs(parent.ID)
	require.NoError(t, err)
	require.Len(t, descendants, 2)

	// A non-root job has no root index and walks its children.
	descendants, err = f.registry.ChildJobs(child.ID)
	require.NoError(t, err)
	require.Len(t, descendants, 1)
	require.Equal(t, grandchild.ID, descendants[0].ID)
}

func TestCreateJobErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	_, err := f.registry.CreateJob(registry.CreateJobParams{Host: workerOne, Type: "compose"})
	if expected, actual := true, registry.IsIllegalArgument(err); expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}

	_, err = f.registry.CreateJob(registry.CreateJobParams{Host: workerOne, Type: "compose", Operation: "encode"})
	if expected, actual := true, registry.IsServiceRegistryError(err); expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}

	host := dtesting.AddHost(t, f.cluster, workerOne, 2)
	dtesting.AddService(t, f.cluster, host, "compose")

	_, err = f.registry.CreateJob(registry.CreateJobParams{Host: workerOne, Type: "compose", Operation: "encode", ParentID: 99})
	if expected, actual := true, registry.IsNotFound(err); expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestUpdateJobStampsTimes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFailover := mocks.NewMockFailover(ctrl)

	f, cleanup := setup(t, ctrl, registry.WithFailover(mockFailover))
	defer cleanup()

	host := dtesting.AddHost(t, f.cluster, workerOne, 2)
	service := dtesting.AddService(t, f.cluster, host, "compose")

	job, err := f.registry.CreateJob(registry.CreateJobParams{
		Host:         workerOne,
		Type:         "compose",
		Operation:    "encode",
		Dispatchable: true,
	})
	require.NoError(t, err)

	gomock.InOrder(
		mockFailover.EXPECT().Process(gomock.Any()).Return(nil),
		mockFailover.EXPECT().Process(gomock.Any()).Return(nil),
	)

	f.advance(3 * time.Second)
	job.Status = db.StatusRunning
	job.ProcessingHost = workerOne
	running, err := f.registry.UpdateJob(job)
	require.NoError(t, err)
	require.Equal(t, service.ID, running.ProcessorServiceID)
	require.True(t, running.DateStarted.Equal(f.now))
	require.Equal(t, int64(3000), running.QueueTime)

	// Same status, no failover run.
	running.Payload = "<mp/>"
	running, err = f.registry.UpdateJob(running)
	require.NoError(t, err)
	require.Equal(t, "<mp/>", running.Payload)

	f.advance(2 * time.Second)
	running.Status = db.StatusFinished
	finished, err := f.registry.UpdateJob(running)
	require.NoError(t, err)
	require.True(t, finished.DateCompleted.Equal(f.now))
	require.Equal(t, int64(2000), finished.RunTime)
	require.True(t, finished.Version > job.Version)
}

func TestUpdateJobFinishedWithoutStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	host := dtesting.AddHost(t, f.cluster, workerOne, 2)
	dtesting.AddService(t, f.cluster, host, "compose")

	job, err := f.registry.CreateJob(registry.CreateJobParams{Host: workerOne, Type: "compose", Operation: "encode"})
	require.NoError(t, err)

	f.advance(5 * time.Second)
	job.Status = db.StatusFinished
	finished, err := f.registry.UpdateJob(job)
	require.NoError(t, err)
	require.True(t, finished.DateStarted.Equal(finished.DateCreated))
	require.Equal(t, int64(5000), finished.RunTime)

	_, err = f.registry.UpdateJob(db.Job{ID: 1234})
	require.True(t, registry.IsNotFound(err))
}

func TestUnregisterServiceCleansRunningJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	host := dtesting.AddHost(t, f.cluster, workerOne, 2)
	service := dtesting.AddService(t, f.cluster, host, "compose")

	running := dtesting.AddJob(t, f.cluster, db.Job{
		Type:               "compose",
		Operation:          "encode",
		Status:             db.StatusRunning,
		Dispatchable:       true,
		ProcessorServiceID: service.ID,
	})
	child := dtesting.AddJob(t, f.cluster, db.Job{
		Type:      "compose",
		Operation: "inspect",
		Status:    db.StatusQueued,
		ParentID:  running.ID,
		RootID:    running.ID,
	})
	undispatchable := dtesting.AddJob(t, f.cluster, db.Job{
		Type:               "compose",
		Operation:          "ingest",
		Status:             db.StatusWaiting,
		ProcessorServiceID: service.ID,
	})

	require.NoError(t, f.registry.UnregisterService("compose", workerOne))

	restarted, err := f.registry.Job(running.ID)
	require.NoError(t, err)
	require.Equal(t, db.StatusRestart, restarted.Status)
	require.Equal(t, int64(0), restarted.ProcessorServiceID)

	cancelled, err := f.registry.Job(child.ID)
	require.NoError(t, err)
	require.Equal(t, db.StatusCanceled, cancelled.Status)

	failed, err := f.registry.Job(undispatchable.ID)
	require.NoError(t, err)
	require.Equal(t, db.StatusFailed, failed.Status)
	require.False(t, failed.DateCompleted.IsZero())

	services, err := f.registry.ServicesByType("compose")
	require.NoError(t, err)
	require.False(t, services[0].Online)
}

func TestRegisterServiceAgainFailsUndispatchableJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	host := dtesting.AddHost(t, f.cluster, workerOne, 2)
	dtesting.AddService(t, f.cluster, host, "compose")

	job, err := f.registry.CreateJob(registry.CreateJobParams{Host: workerOne, Type: "compose", Operation: "ingest"})
	require.NoError(t, err)
	require.Equal(t, db.StatusRunning, job.Status)

	f.advance(3 * time.Second)
	_, err = f.registry.RegisterService("compose", workerOne, "", false)
	require.NoError(t, err)

	failed, err := f.registry.Job(job.ID)
	require.NoError(t, err)
	if expected, actual := db.StatusFailed, failed.Status; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
	require.Equal(t, int64(3000), failed.RunTime)
}

func TestRegisterHostAgainCancelsUndispatchableJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	one := dtesting.AddHost(t, f.cluster, workerOne, 2)
	serviceOne := dtesting.AddService(t, f.cluster, one, "compose")
	two := dtesting.AddHost(t, f.cluster, workerTwo, 2)
	dtesting.AddService(t, f.cluster, two, "compose")

	orphaned, err := f.registry.CreateJob(registry.CreateJobParams{Host: workerOne, Type: "compose", Operation: "ingest"})
	require.NoError(t, err)
	elsewhere, err := f.registry.CreateJob(registry.CreateJobParams{Host: workerTwo, Type: "compose", Operation: "ingest"})
	require.NoError(t, err)
	dispatched := dtesting.AddJob(t, f.cluster, db.Job{
		Type:               "compose",
		Operation:          "encode",
		Status:             db.StatusRunning,
		Dispatchable:       true,
		ProcessorServiceID: serviceOne.ID,
	})

	_, err = f.registry.RegisterHost(workerOne, "", "", 2)
	require.NoError(t, err)

	for _, c := range []struct {
		id     int64
		status db.JobStatus
	}{
		{id: orphaned.ID, status: db.StatusCanceled},
		{id: elsewhere.ID, status: db.StatusRunning},
		{id: dispatched.ID, status: db.StatusRunning},
	} {
		job, err := f.registry.Job(c.id)
		require.NoError(t, err)
		if expected, actual := c.status, job.Status; expected != actual {
			t.Errorf("job %d expected: %v, actual: %v", c.id, expected, actual)
		}
	}
}

func TestRegisterServiceAgainCancelsWholeSubtree(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	host := dtesting.AddHost(t, f.cluster, workerOne, 8)
	service := dtesting.AddService(t, f.cluster, host, "compose")

	running := func(parent db.Job) db.Job {
		job := db.Job{
			Type:               "compose",
			Operation:          "encode",
			Status:             db.StatusRunning,
			Dispatchable:       true,
			ProcessorServiceID: service.ID,
		}
		if parent.ID > 0 {
			job.ParentID = parent.ID
			job.RootID = parent.ID
			if parent.RootID > 0 {
				job.RootID = parent.RootID
			}
		}
		return dtesting.AddJob(t, f.cluster, job)
	}

	root := running(db.Job{})
	var descendants []db.Job
	for i := 0; i < 3; i++ {
		child := running(root)
		descendants = append(descendants, child, running(child))
	}

	_, err := f.registry.RegisterService("compose", workerOne, "", true)
	require.NoError(t, err)

	restarted, err := f.registry.Job(root.ID)
	require.NoError(t, err)
	require.Equal(t, db.StatusRestart, restarted.Status)

	for _, descendant := range descendants {
		job, err := f.registry.Job(descendant.ID)
		require.NoError(t, err)
		if expected, actual := db.StatusCanceled, job.Status; expected != actual {
			t.Errorf("job %d expected: %v, actual: %v", job.ID, expected, actual)
		}
	}
}

func TestUpdateJobDrivesServiceHealth(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	source := clusterconfig.NewSource(cluster)
	r := registry.New(cluster, source, registry.WithFailover(failover.New(cluster, source)))

	host := dtesting.AddHost(t, cluster, workerOne, 2)
	service := dtesting.AddService(t, cluster, host, "compose")

	health := func() db.HealthState {
		services, err := r.ServicesByType("compose")
		require.NoError(t, err)
		require.Len(t, services, 1)
		return services[0].State
	}

	for _, expected := range []db.HealthState{db.StateWarning, db.StateError} {
		job := dtesting.AddJob(t, cluster, db.Job{
			Type:               "compose",
			Operation:          "encode",
			Status:             db.StatusRunning,
			Dispatchable:       true,
			ProcessorServiceID: service.ID,
		})
		job.Status = db.StatusFailed
		_, err := r.UpdateJob(job)
		require.NoError(t, err)

		if actual := health(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	}
}

func TestUnregisterServiceRestartsPausedRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	host := dtesting.AddHost(t, f.cluster, workerOne, 2)
	service := dtesting.AddService(t, f.cluster, host, "compose")

	root := dtesting.AddJob(t, f.cluster, db.Job{
		Type:         db.WorkflowType,
		Operation:    db.OperationStartWorkflow,
		Status:       db.StatusPaused,
		Dispatchable: true,
	})
	running := dtesting.AddJob(t, f.cluster, db.Job{
		Type:               "compose",
		Operation:          "encode",
		Status:             db.StatusRunning,
		Dispatchable:       true,
		ProcessorServiceID: service.ID,
		ParentID:           root.ID,
		RootID:             root.ID,
	})

	require.NoError(t, f.registry.UnregisterService("compose", workerOne))

	restarted, err := f.registry.Job(root.ID)
	require.NoError(t, err)
	require.Equal(t, db.StatusRestart, restarted.Status)
	require.Equal(t, db.OperationStartOperation, restarted.Operation)
	require.Equal(t, db.Signature(db.WorkflowType, db.OperationStartOperation), restarted.Signature)

	cancelled, err := f.registry.Job(running.ID)
	require.NoError(t, err)
	require.Equal(t, db.StatusCanceled, cancelled.Status)
}

func TestRemoveJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	parent := dtesting.AddJob(t, f.cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusFinished})
	child := dtesting.AddJob(t, f.cluster, db.Job{
		Type:      "compose",
		Operation: "inspect",
		Status:    db.StatusFinished,
		ParentID:  parent.ID,
		RootID:    parent.ID,
	})

	err := f.registry.RemoveJobs([]int64{0})
	require.True(t, registry.IsNotFound(err))

	require.NoError(t, f.registry.RemoveJobs([]int64{parent.ID, child.ID}))

	_, err = f.registry.Job(child.ID)
	require.True(t, registry.IsNotFound(err))

	err = f.registry.RemoveJobs([]int64{parent.ID})
	require.True(t, registry.IsNotFound(err))
}

func TestRemoveParentlessJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	old := dtesting.AddJob(t, f.cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusFinished})
	workflow := dtesting.AddJob(t, f.cluster, db.Job{Type: db.WorkflowType, Operation: db.OperationStartWorkflow, Status: db.StatusFinished})
	running := dtesting.AddJob(t, f.cluster, db.Job{Type: "compose", Operation: "encode", Status: db.StatusRunning})

	f.advance(48 * time.Hour)
	fresh := dtesting.AddJob(t, f.cluster, db.Job{
		Type:        "compose",
		Operation:   "encode",
		Status:      db.StatusFinished,
		DateCreated: f.now,
	})

	removed, err := f.registry.RemoveParentlessJobs(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = f.registry.Job(old.ID)
	require.True(t, registry.IsNotFound(err))
	for _, id := range []int64{workflow.ID, running.ID, fresh.ID} {
		_, err = f.registry.Job(id)
		require.NoError(t, err)
	}

	_, err = f.registry.RemoveParentlessJobs(0)
	require.True(t, registry.IsIllegalArgument(err))
}

func TestCountAndStatistics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, cleanup := setup(t, ctrl)
	defer cleanup()

	host := dtesting.AddHost(t, f.cluster, workerOne, 4)
	service := dtesting.AddService(t, f.cluster, host, "compose")
	for _, status := range []db.JobStatus{db.StatusRunning, db.StatusRunning, db.StatusQueued} {
		dtesting.AddJob(t, f.cluster, db.Job{
			Type:               "compose",
			Operation:          "encode",
			Status:             status,
			Dispatchable:       true,
			ProcessorServiceID: service.ID,
		})
	}

	count, err := f.registry.Count(db.JobFilter{Type: "compose", Statuses: []db.JobStatus{db.StatusRunning}})
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	active, err := f.registry.ActiveJobs()
	require.NoError(t, err)
	require.Len(t, active, 2)

	loads, err := f.registry.CurrentHostLoads()
	require.NoError(t, err)
	require.Equal(t, int64(2), loads[workerOne].CurrentLoad)
	require.Equal(t, int64(4), loads[workerOne].MaxLoad)

	node, err := f.registry.MaxLoadOnNode(workerOne)
	require.NoError(t, err)
	require.Equal(t, int64(4), node.MaxLoad)

	stats, err := f.registry.ServiceStatistics()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, int64(2), stats[0].Running)
	require.Equal(t, int64(1), stats[0].Queued)
	require.Equal(t, service.ID, stats[0].Service.ID)
}
