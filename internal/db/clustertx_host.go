package db

import (
	"fmt"

	"github.com/pkg/errors"
)

// Host is a machine running one or more services.
type Host struct {
	ID          int64  `json:"id" yaml:"id"`
	BaseURL     string `json:"base_url" yaml:"base_url"`
	Address     string `json:"address" yaml:"address"`
	NodeName    string `json:"node_name" yaml:"node_name"`
	MaxJobs     int64  `json:"max_jobs" yaml:"max_jobs"`
	Online      bool   `json:"online" yaml:"online"`
	Active      bool   `json:"active" yaml:"active"`
	Maintenance bool   `json:"maintenance" yaml:"maintenance"`
}

// Available reports whether jobs can be dispatched to the host.
func (h Host) Available() bool {
	return h.Online && h.Active && !h.Maintenance
}

// Hosts returns all the registered hosts.
func (c *ClusterTx) Hosts() ([]Host, error) {
	return c.hosts("")
}

// HostByBaseURL returns the host with the given base url.
func (c *ClusterTx) HostByBaseURL(baseURL string) (Host, error) {
	hosts, err := c.hosts("base_url=?", baseURL)
	if err != nil {
		return Host{}, err
	}
	switch len(hosts) {
	case 0:
		return Host{}, ErrNoSuchObject
	case 1:
		return hosts[0], nil
	default:
		return Host{}, errors.Errorf("more than one host matches")
	}
}

// HostAdd inserts a new host and returns its id. Hosts are never replaced,
// because services reference them; use HostUpdate on an existing host.
func (c *ClusterTx) HostAdd(host Host) (int64, error) {
	columns := []string{
		"base_url",
		"address",
		"node_name",
		"max_jobs",
		"online",
		"active",
		"maintenance",
	}
	values := []interface{}{
		host.BaseURL,
		host.Address,
		host.NodeName,
		host.MaxJobs,
		boolToInt(host.Online),
		boolToInt(host.Active),
		boolToInt(host.Maintenance),
	}
	return c.query.UpsertObject(c.tx, "hosts", columns, values)
}

// HostUpdate rewrites the mutable fields of the host with the given id.
func (c *ClusterTx) HostUpdate(host Host) error {
	return c.exec(
		"UPDATE hosts SET address=?, node_name=?, max_jobs=?, online=?, active=?, maintenance=? WHERE id=?",
		host.Address,
		host.NodeName,
		host.MaxJobs,
		boolToInt(host.Online),
		boolToInt(host.Active),
		boolToInt(host.Maintenance),
		host.ID,
	)
}

// HostSetOnline flags the host with the given id as online or offline.
func (c *ClusterTx) HostSetOnline(id int64, online bool) error {
	return c.exec("UPDATE hosts SET online=? WHERE id=?", boolToInt(online), id)
}

// HostSetActive flags the host with the given id as enabled or disabled.
func (c *ClusterTx) HostSetActive(id int64, active bool) error {
	return c.exec("UPDATE hosts SET active=? WHERE id=?", boolToInt(active), id)
}

// HostSetMaintenance puts the host with the given id in or out of
// maintenance.
func (c *ClusterTx) HostSetMaintenance(id int64, maintenance bool) error {
	return c.exec("UPDATE hosts SET maintenance=? WHERE id=?", boolToInt(maintenance), id)
}

func (c *ClusterTx) hosts(where string, args ...interface{}) ([]Host, error) {
	var hosts []Host
	dest := func(i int) []interface{} {
		hosts = append(hosts, Host{})
		return []interface{}{
			&hosts[i].ID,
			&hosts[i].BaseURL,
			&hosts[i].Address,
			&hosts[i].NodeName,
			&hosts[i].MaxJobs,
			&hosts[i].Online,
			&hosts[i].Active,
			&hosts[i].Maintenance,
		}
	}
	stmt := `
SELECT id, base_url, address, node_name, max_jobs, online, active, maintenance
  FROM hosts `
	if where != "" {
		stmt += fmt.Sprintf("WHERE %s ", where)
	}
	stmt += "ORDER BY id"
	err := c.query.SelectObjects(c.tx, dest, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch hosts")
	}
	return hosts, nil
}
