package client

import (
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/load"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/hosts"
)

// Hosts represents the machines worker processes run on.
type Hosts struct {
	client *Client
}

// List returns every registered host
func (h *Hosts) List() ([]db.Host, error) {
	var result []db.Host
	if err := h.client.exec("GET", "/1.0/hosts", nil, "", readInto(&result)); err != nil {
		return nil, errors.WithStack(err)
	}
	return result, nil
}

// Get returns a host together with its services
func (h *Hosts) Get(baseURL string) (hosts.HostDetails, error) {
	var result hosts.HostDetails
	path := withQuery("/1.0/hosts", url.Values{"host": {baseURL}})
	if err := h.client.exec("GET", path, nil, "", readInto(&result)); err != nil {
		return result, errors.WithStack(err)
	}
	return result, nil
}

// Register adds the host or brings it back online
func (h *Hosts) Register(registration hosts.Registration) (db.Host, error) {
	var result db.Host
	if err := h.client.exec("POST", "/1.0/hosts", registration, "", readInto(&result)); err != nil {
		return result, errors.WithStack(err)
	}
	return result, nil
}

// Unregister takes the host and its services offline
func (h *Hosts) Unregister(baseURL string) error {
	path := withQuery("/1.0/hosts", url.Values{"host": {baseURL}})
	return errors.WithStack(h.client.exec("DELETE", path, nil, "", nopReadFn))
}

// SetMaintenance moves the host in or out of maintenance
func (h *Hosts) SetMaintenance(baseURL string, maintenance bool) error {
	return h.setState("/1.0/hosts/maintenance", hosts.State{Host: baseURL, Maintenance: maintenance})
}

// Enable lets the dispatcher use the host again
func (h *Hosts) Enable(baseURL string) error {
	return h.setState("/1.0/hosts/enable", hosts.State{Host: baseURL})
}

// Disable stops the dispatcher from using the host
func (h *Hosts) Disable(baseURL string) error {
	return h.setState("/1.0/hosts/disable", hosts.State{Host: baseURL})
}

func (h *Hosts) setState(path string, state hosts.State) error {
	return errors.WithStack(h.client.exec("PUT", path, state, "", nopReadFn))
}

// Loads returns the number of active jobs per available host. With max
// set, the capacity of every host is returned instead.
func (h *Hosts) Loads(max bool) (load.SystemLoad, error) {
	var result load.SystemLoad
	path := withQuery("/1.0/loads", url.Values{"max": {boolParam(max)}})
	if err := h.client.exec("GET", path, nil, "", readInto(&result)); err != nil {
		return nil, errors.WithStack(err)
	}
	return result, nil
}

func boolParam(v bool) string {
	if !v {
		return ""
	}
	return strconv.FormatBool(v)
}
