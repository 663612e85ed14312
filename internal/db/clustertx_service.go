package db

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Service is a registration of a service type on a host.
type Service struct {
	ID             int64       `json:"id" yaml:"id"`
	HostID         int64       `json:"host_id" yaml:"host_id"`
	Host           string      `json:"host" yaml:"host"`
	ServiceType    string      `json:"service_type" yaml:"service_type"`
	Path           string      `json:"path" yaml:"path"`
	Online         bool        `json:"online" yaml:"online"`
	Active         bool        `json:"active" yaml:"active"`
	JobProducer    bool        `json:"job_producer" yaml:"job_producer"`
	State          HealthState `json:"state" yaml:"state"`
	WarningTrigger string      `json:"warning_trigger" yaml:"warning_trigger"`
	ErrorTrigger   string      `json:"error_trigger" yaml:"error_trigger"`
	StateChanged   time.Time   `json:"state_changed" yaml:"state_changed"`
	OnlineFrom     time.Time   `json:"online_from" yaml:"online_from"`

	// Maintenance mirrors the maintenance flag of the host.
	Maintenance bool `json:"maintenance" yaml:"maintenance"`
}

// Services returns all the registered services.
func (c *ClusterTx) Services() ([]Service, error) {
	return c.services("")
}

// ServicesByType returns the services of the given type.
func (c *ClusterTx) ServicesByType(serviceType string) ([]Service, error) {
	return c.services("s.service_type=?", serviceType)
}

// ServicesByHost returns the services running on the host with the given
// base url.
func (c *ClusterTx) ServicesByHost(baseURL string) ([]Service, error) {
	return c.services("h.base_url=?", baseURL)
}

// ServicesByState returns the services in any of the given health states.
func (c *ClusterTx) ServicesByState(states ...HealthState) ([]Service, error) {
	if len(states) == 0 {
		return nil, nil
	}
	args := make([]interface{}, len(states))
	for i, state := range states {
		args[i] = state
	}
	return c.services(in("s.state", len(states)), args...)
}

// ServiceByTypeAndHost returns the service of the given type running on
// the host with the given base url.
func (c *ClusterTx) ServiceByTypeAndHost(serviceType, baseURL string) (Service, error) {
	return c.service(c.services("s.service_type=? AND h.base_url=?", serviceType, baseURL))
}

// ServiceByID returns the service with the given id.
func (c *ClusterTx) ServiceByID(id int64) (Service, error) {
	return c.service(c.services("s.id=?", id))
}

// RelatedServices returns the services of the given type whose health state
// was triggered by the given job signature.
func (c *ClusterTx) RelatedServices(serviceType, signature string) ([]Service, error) {
	return c.services(
		"s.service_type=? AND ((s.state=? AND s.warning_trigger=?) OR (s.state=? AND s.error_trigger=?))",
		serviceType,
		StateWarning, signature,
		StateError, signature,
	)
}

// ServiceAdd inserts a new service registration and returns its id.
func (c *ClusterTx) ServiceAdd(service Service) (int64, error) {
	columns := []string{
		"host_id",
		"service_type",
		"path",
		"online",
		"active",
		"job_producer",
		"state",
		"warning_trigger",
		"error_trigger",
		"state_changed",
		"online_from",
	}
	values := []interface{}{
		service.HostID,
		service.ServiceType,
		service.Path,
		boolToInt(service.Online),
		boolToInt(service.Active),
		boolToInt(service.JobProducer),
		service.State,
		service.WarningTrigger,
		service.ErrorTrigger,
		service.StateChanged.UTC(),
		service.OnlineFrom.UTC(),
	}
	return c.query.UpsertObject(c.tx, "services", columns, values)
}

// ServiceUpdate rewrites the registration fields of an existing service.
// The health state is left untouched, see ServiceSetState.
func (c *ClusterTx) ServiceUpdate(service Service) error {
	return c.exec(
		"UPDATE services SET path=?, online=?, active=?, job_producer=?, online_from=? WHERE id=?",
		service.Path,
		boolToInt(service.Online),
		boolToInt(service.Active),
		boolToInt(service.JobProducer),
		service.OnlineFrom.UTC(),
		service.ID,
	)
}

// ServiceSetOnline flags the service with the given id as online or
// offline.
func (c *ClusterTx) ServiceSetOnline(id int64, online bool, now time.Time) error {
	if online {
		return c.exec("UPDATE services SET online=1, online_from=? WHERE id=?", now.UTC(), id)
	}
	return c.exec("UPDATE services SET online=0 WHERE id=?", id)
}

// ServiceSetActive flags the service with the given id as enabled or
// disabled.
func (c *ClusterTx) ServiceSetActive(id int64, active bool) error {
	return c.exec("UPDATE services SET active=? WHERE id=?", boolToInt(active), id)
}

// ServiceSetState moves the service with the given id to a new health
// state, recording the triggers and the time of the change.
func (c *ClusterTx) ServiceSetState(id int64, state HealthState, warningTrigger, errorTrigger string, now time.Time) error {
	return c.exec(
		"UPDATE services SET state=?, warning_trigger=?, error_trigger=?, state_changed=? WHERE id=?",
		state, warningTrigger, errorTrigger, now.UTC(), id,
	)
}

func (c *ClusterTx) service(services []Service, err error) (Service, error) {
	if err != nil {
		return Service{}, err
	}
	switch len(services) {
	case 0:
		return Service{}, ErrNoSuchObject
	case 1:
		return services[0], nil
	default:
		return Service{}, errors.Errorf("more than one service matches")
	}
}

func (c *ClusterTx) services(where string, args ...interface{}) ([]Service, error) {
	var services []Service
	dest := func(i int) []interface{} {
		services = append(services, Service{})
		return []interface{}{
			&services[i].ID,
			&services[i].HostID,
			&services[i].Host,
			&services[i].ServiceType,
			&services[i].Path,
			&services[i].Online,
			&services[i].Active,
			&services[i].JobProducer,
			&services[i].State,
			&services[i].WarningTrigger,
			&services[i].ErrorTrigger,
			&services[i].StateChanged,
			&services[i].OnlineFrom,
			&services[i].Maintenance,
		}
	}
	stmt := `
SELECT s.id, s.host_id, h.base_url, s.service_type, s.path, s.online, s.active, s.job_producer,
       s.state, s.warning_trigger, s.error_trigger, s.state_changed, s.online_from, h.maintenance
  FROM services AS s
  JOIN hosts AS h ON h.id = s.host_id `
	if where != "" {
		stmt += fmt.Sprintf("WHERE %s ", where)
	}
	stmt += "ORDER BY s.id"
	err := c.query.SelectObjects(c.tx, dest, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch services")
	}
	return services, nil
}
