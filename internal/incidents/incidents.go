// Package incidents records the failures and warnings services report
// against jobs, and assembles them into trees that follow the job tree.
package incidents

import (
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/events"
	"github.com/spoke-d/dispatchd/internal/registry"
	"golang.org/x/exp/slices"
)

// Cluster mediates access to data stored in the registry database.
type Cluster interface {
	db.ClusterTransactioner
}

// Tree holds the incidents of a set of jobs, and the trees of their
// descendants that have incidents somewhere below them.
type Tree struct {
	Incidents   []db.Incident `json:"incidents" yaml:"incidents"`
	Descendants []Tree        `json:"descendants" yaml:"descendants"`
}

// Empty reports whether no incident exists anywhere in the tree.
func (t Tree) Empty() bool {
	if len(t.Incidents) > 0 {
		return false
	}
	for _, d := range t.Descendants {
		if !d.Empty() {
			return false
		}
	}
	return true
}

// Service stores and queries incidents.
type Service struct {
	cluster Cluster
	catalog *Catalog
	cache   *xsync.MapOf[string, string]
	events  events.Sender
	clock   clock.Clock
	logger  log.Logger
}

// New creates a Service with sane defaults
func New(cluster Cluster, options ...Option) *Service {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Service{
		cluster: cluster,
		catalog: opts.catalog,
		cache:   xsync.NewMapOf[string, string](),
		events:  opts.events,
		clock:   opts.clock,
		logger:  opts.logger,
	}
}

// StoreIncident attaches an incident to the job. The job must exist, an
// incident is never stored on its own.
func (s *Service) StoreIncident(
	jobID int64,
	timestamp time.Time,
	code string,
	severity db.Severity,
	parameters map[string]string,
	details []db.Detail,
) (db.Incident, error) {
	if code == "" {
		return db.Incident{}, registry.IllegalArgument("incident code must not be blank")
	}
	if timestamp.IsZero() {
		timestamp = s.clock.UTC()
	}

	incident := db.Incident{
		JobID:      jobID,
		Timestamp:  timestamp.UTC(),
		Code:       code,
		Severity:   severity,
		Parameters: parameters,
		Details:    details,
	}
	err := s.cluster.Transaction(func(tx *db.ClusterTx) error {
		if _, err := tx.JobByID(jobID); err == db.ErrNoSuchObject {
			return registry.IllegalState("cannot store an incident for unknown job %d", jobID)
		} else if err != nil {
			return errors.WithStack(err)
		}
		id, err := tx.IncidentAdd(incident)
		if err != nil {
			return errors.WithStack(err)
		}
		incident, err = tx.IncidentByID(id)
		return errors.WithStack(err)
	})
	if err != nil {
		return db.Incident{}, registry.Failure(err)
	}

	level.Debug(s.logger).Log("msg", "Stored incident", "job", jobID, "code", code, "severity", severity)
	s.events.Send(events.TypeJob, "incident-created", incident)
	return incident, nil
}

// Incident returns the incident with the given id.
func (s *Service) Incident(id int64) (db.Incident, error) {
	var incident db.Incident
	err := s.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		incident, err = tx.IncidentByID(id)
		if err == db.ErrNoSuchObject {
			return registry.NotFound("incident %d does not exist", id)
		}
		return errors.WithStack(err)
	})
	return incident, registry.Failure(err)
}

// IncidentsOfJob returns the incidents of the given jobs. With cascade the
// tree also holds the incidents of their descendants: a workflow is
// descended through its started operations, any other job through its
// child jobs. Branches without incidents are left out.
func (s *Service) IncidentsOfJob(jobIDs []int64, cascade bool) (Tree, error) {
	var tree Tree
	err := s.cluster.Transaction(func(tx *db.ClusterTx) error {
		jobs := make([]db.Job, 0, len(jobIDs))
		for _, id := range jobIDs {
			job, err := tx.JobByID(id)
			if err == db.ErrNoSuchObject {
				return registry.NotFound("job %d does not exist", id)
			} else if err != nil {
				return errors.WithStack(err)
			}
			jobs = append(jobs, job)
		}
		var err error
		tree, err = s.tree(tx, jobs, cascade)
		return err
	})
	return tree, registry.Failure(err)
}

func (s *Service) tree(tx *db.ClusterTx, jobs []db.Job, cascade bool) (Tree, error) {
	tree := Tree{
		Incidents:   []db.Incident{},
		Descendants: []Tree{},
	}
	for _, job := range jobs {
		incidents, err := tx.IncidentsByJob(job.ID)
		if err != nil {
			return Tree{}, errors.WithStack(err)
		}
		tree.Incidents = append(tree.Incidents, incidents...)

		if !cascade {
			continue
		}
		children, err := s.children(tx, job)
		if err != nil {
			return Tree{}, err
		}
		for _, child := range children {
			sub, err := s.tree(tx, []db.Job{child}, true)
			if err != nil {
				return Tree{}, err
			}
			if !sub.Empty() {
				tree.Descendants = append(tree.Descendants, sub)
			}
		}
	}
	return tree, nil
}

// children returns the jobs a tree descends into. The operations of a
// workflow that never left INSTANTIATED did not run, so they cannot carry
// incidents.
func (s *Service) children(tx *db.ClusterTx, job db.Job) ([]db.Job, error) {
	if job.Operation != db.OperationStartWorkflow {
		children, err := tx.JobChildren(job.ID)
		return children, errors.WithStack(err)
	}

	jobs, err := tx.JobsByRoot(job.ID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var operations []db.Job
	for _, candidate := range jobs {
		if candidate.Operation != db.OperationStartOperation || candidate.Status == db.StatusInstantiated {
			continue
		}
		operations = append(operations, candidate)
	}
	slices.SortStableFunc(operations, func(a, b db.Job) int {
		return a.DateCreated.Compare(b.DateCreated)
	})
	return operations, nil
}
