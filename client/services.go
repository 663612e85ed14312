package client

import (
	"net/url"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/registry"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/hosts"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/services"
)

// Services represents the job processors offered by the hosts.
type Services struct {
	client *Client
}

// List returns the services, optionally narrowed to a service type or a
// host.
func (s *Services) List(serviceType, host string) ([]db.Service, error) {
	var result []db.Service
	path := withQuery("/1.0/services", url.Values{
		"type": {serviceType},
		"host": {host},
	})
	if err := s.client.exec("GET", path, nil, "", readInto(&result)); err != nil {
		return nil, errors.WithStack(err)
	}
	return result, nil
}

// Register adds the service or brings it back online
func (s *Services) Register(registration services.Registration) (db.Service, error) {
	var result db.Service
	if err := s.client.exec("POST", "/1.0/services", registration, "", readInto(&result)); err != nil {
		return result, errors.WithStack(err)
	}
	return result, nil
}

// Unregister takes the service offline, recovering the jobs it was running
func (s *Services) Unregister(serviceType, host string) error {
	path := withQuery("/1.0/services", url.Values{
		"type": {serviceType},
		"host": {host},
	})
	return errors.WithStack(s.client.exec("DELETE", path, nil, "", nopReadFn))
}

// Sanitize returns the service to the NORMAL health state
func (s *Services) Sanitize(serviceType, host string) error {
	ref := services.Ref{ServiceType: serviceType, Host: host}
	return errors.WithStack(s.client.exec("POST", "/1.0/services/sanitize", ref, "", nopReadFn))
}

// Warnings returns the services in the WARNING or ERROR state
func (s *Services) Warnings() ([]db.Service, error) {
	var result []db.Service
	if err := s.client.exec("GET", "/1.0/services/warnings", nil, "", readInto(&result)); err != nil {
		return nil, errors.WithStack(err)
	}
	return result, nil
}

// Statistics returns the job counts and timings of every service
func (s *Services) Statistics() ([]registry.Statistics, error) {
	var result []registry.Statistics
	if err := s.client.exec("GET", "/1.0/statistics", nil, "", readInto(&result)); err != nil {
		return nil, errors.WithStack(err)
	}
	return result, nil
}

// Registrar announces worker hosts and services through the client.
type Registrar struct {
	client *Client
}

// Registrar returns the registration calls a worker process needs
func (c *Client) Registrar() Registrar {
	return Registrar{
		client: c,
	}
}

// RegisterHost adds the host or brings it back online
func (r Registrar) RegisterHost(registration hosts.Registration) (db.Host, error) {
	return r.client.Hosts().Register(registration)
}

// RegisterService adds the service or brings it back online
func (r Registrar) RegisterService(registration services.Registration) (db.Service, error) {
	return r.client.Services().Register(registration)
}

// UnregisterService takes the service offline
func (r Registrar) UnregisterService(serviceType, host string) error {
	return r.client.Services().Unregister(serviceType, host)
}
