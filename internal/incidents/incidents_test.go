package incidents_test

import (
	"strings"
	"testing"
	"time"

	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/incidents"
	"github.com/spoke-d/dispatchd/internal/registry"
	dtesting "github.com/spoke-d/dispatchd/internal/testing"
	"github.com/stretchr/testify/require"
)

func TestStoreIncident(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	job := dtesting.AddJob(t, cluster, db.Job{
		Type:      "compose",
		Operation: "encode",
		Status:    db.StatusRunning,
	})

	service := incidents.New(cluster)
	incident, err := service.StoreIncident(
		job.ID,
		dtesting.Now,
		"compose.encode.failed",
		db.SeverityFailure,
		map[string]string{"track": "track-1"},
		[]db.Detail{{Title: "command", Content: "ffmpeg -i in.mp4"}},
	)
	require.NoError(t, err)
	require.True(t, incident.ID > 0)
	require.Equal(t, job.ID, incident.JobID)
	require.Equal(t, "track-1", incident.Parameters["track"])
	require.Len(t, incident.Details, 1)

	stored, err := service.Incident(incident.ID)
	require.NoError(t, err)
	require.Equal(t, db.SeverityFailure, stored.Severity)
	require.True(t, dtesting.Now.Equal(stored.Timestamp))
}

func TestStoreIncidentUnknownJob(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	service := incidents.New(cluster)
	_, err := service.StoreIncident(42, dtesting.Now, "compose.encode.failed", db.SeverityError, nil, nil)
	if expected, actual := true, registry.IsIllegalState(err); expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestIncidentNotFound(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	_, err := incidents.New(cluster).Incident(7)
	if expected, actual := true, registry.IsNotFound(err); expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestIncidentsOfJobCascade(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	service := incidents.New(cluster)

	parent := dtesting.AddJob(t, cluster, db.Job{Type: "compose", Operation: "concat", Status: db.StatusFailed})
	failing := dtesting.AddJob(t, cluster, db.Job{
		Type:      "compose",
		Operation: "encode",
		Status:    db.StatusFailed,
		ParentID:  parent.ID,
		RootID:    parent.ID,
	})
	quiet := dtesting.AddJob(t, cluster, db.Job{
		Type:      "compose",
		Operation: "encode",
		Status:    db.StatusFinished,
		ParentID:  parent.ID,
		RootID:    parent.ID,
	})

	_, err := service.StoreIncident(parent.ID, dtesting.Now, "compose.concat.failed", db.SeverityFailure, nil, nil)
	require.NoError(t, err)
	_, err = service.StoreIncident(failing.ID, dtesting.Now, "compose.encode.failed", db.SeverityError, nil, nil)
	require.NoError(t, err)

	tree, err := service.IncidentsOfJob([]int64{parent.ID}, false)
	require.NoError(t, err)
	require.Len(t, tree.Incidents, 1)
	require.Len(t, tree.Descendants, 0)

	tree, err = service.IncidentsOfJob([]int64{parent.ID}, true)
	require.NoError(t, err)
	require.Len(t, tree.Incidents, 1)
	require.Len(t, tree.Descendants, 1)
	require.Equal(t, failing.ID, tree.Descendants[0].Incidents[0].JobID)

	tree, err = service.IncidentsOfJob([]int64{quiet.ID}, true)
	require.NoError(t, err)
	require.True(t, tree.Empty())
}

func TestIncidentsOfWorkflow(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	service := incidents.New(cluster)

	workflow := dtesting.AddJob(t, cluster, db.Job{
		Type:      db.WorkflowType,
		Operation: db.OperationStartWorkflow,
		Status:    db.StatusRunning,
	})
	started := dtesting.AddJob(t, cluster, db.Job{
		Type:        db.WorkflowType,
		Operation:   db.OperationStartOperation,
		Status:      db.StatusFailed,
		ParentID:    workflow.ID,
		RootID:      workflow.ID,
		DateCreated: dtesting.Now.Add(time.Second),
	})
	pending := dtesting.AddJob(t, cluster, db.Job{
		Type:        db.WorkflowType,
		Operation:   db.OperationStartOperation,
		Status:      db.StatusInstantiated,
		ParentID:    workflow.ID,
		RootID:      workflow.ID,
		DateCreated: dtesting.Now.Add(2 * time.Second),
	})
	encode := dtesting.AddJob(t, cluster, db.Job{
		Type:      "compose",
		Operation: "encode",
		Status:    db.StatusFailed,
		ParentID:  started.ID,
		RootID:    workflow.ID,
	})

	_, err := service.StoreIncident(encode.ID, dtesting.Now, "compose.encode.failed", db.SeverityFailure, nil, nil)
	require.NoError(t, err)
	_, err = service.StoreIncident(pending.ID, dtesting.Now, "workflow.operation.skipped", db.SeverityInfo, nil, nil)
	require.NoError(t, err)

	tree, err := service.IncidentsOfJob([]int64{workflow.ID}, true)
	require.NoError(t, err)
	require.Len(t, tree.Incidents, 0)
	// The instantiated operation is not descended into.
	require.Len(t, tree.Descendants, 1)
	operation := tree.Descendants[0]
	require.Len(t, operation.Incidents, 0)
	require.Len(t, operation.Descendants, 1)
	require.Equal(t, encode.ID, operation.Descendants[0].Incidents[0].JobID)
}

func TestIncidentsOfWorkflowOrdersOperationsByCreation(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	service := incidents.New(cluster)

	workflow := dtesting.AddJob(t, cluster, db.Job{
		Type:      db.WorkflowType,
		Operation: db.OperationStartWorkflow,
		Status:    db.StatusRunning,
	})
	late := dtesting.AddJob(t, cluster, db.Job{
		Type:        db.WorkflowType,
		Operation:   db.OperationStartOperation,
		Status:      db.StatusFailed,
		ParentID:    workflow.ID,
		RootID:      workflow.ID,
		DateCreated: dtesting.Now.Add(time.Minute),
	})
	early := dtesting.AddJob(t, cluster, db.Job{
		Type:        db.WorkflowType,
		Operation:   db.OperationStartOperation,
		Status:      db.StatusFinished,
		ParentID:    workflow.ID,
		RootID:      workflow.ID,
		DateCreated: dtesting.Now.Add(time.Second),
	})

	for _, id := range []int64{late.ID, early.ID} {
		_, err := service.StoreIncident(id, dtesting.Now, "workflow.operation.failed", db.SeverityWarning, nil, nil)
		require.NoError(t, err)
	}

	tree, err := service.IncidentsOfJob([]int64{workflow.ID}, true)
	require.NoError(t, err)
	require.Len(t, tree.Descendants, 2)
	if expected, actual := early.ID, tree.Descendants[0].Incidents[0].JobID; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
	if expected, actual := late.ID, tree.Descendants[1].Incidents[0].JobID; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestKeyChain(t *testing.T) {
	testCases := []struct {
		locale   string
		expected []string
	}{
		{"de_DE", []string{"c.title_de_DE", "c.title_de", "c.title"}},
		{"pt-br", []string{"c.title_pt_BR", "c.title_pt", "c.title"}},
		{"fr", []string{"c.title_fr", "c.title"}},
		{"", []string{"c.title"}},
	}
	for _, tc := range testCases {
		t.Run(tc.locale, func(t *testing.T) {
			require.Equal(t, tc.expected, incidents.KeyChain("c", "title", tc.locale))
		})
	}
}

func TestLocalize(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	catalog, err := incidents.LoadCatalog(strings.NewReader(`
compose.failed.title: "Encoding failed"
compose.failed.title_de: "Kodierung fehlgeschlagen"
compose.failed.description: "Track {{track}} could not be encoded"
`))
	require.NoError(t, err)

	service := incidents.New(cluster, incidents.WithCatalog(catalog))

	text, err := service.Localize("compose.failed", "de_AT", map[string]string{"track": "t1"})
	require.NoError(t, err)
	require.Equal(t, "Kodierung fehlgeschlagen", text.Title)
	require.Equal(t, "Track t1 could not be encoded", text.Description)

	text, err = service.Localize("compose.failed", "en_US", nil)
	require.NoError(t, err)
	require.Equal(t, "Encoding failed", text.Title)

	_, err = service.Localize("unknown", "en", nil)
	if expected, actual := true, incidents.IsNoText(err); expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}
