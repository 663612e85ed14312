package client

import (
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/root"
	"github.com/spoke-d/dispatchd/pkg/client"
)

// Info represents a way of interacting with the daemon API, which is
// responsible for getting the information from the daemon.
type Info struct {
	client *Client
}

// Get returns the information from the daemon API
func (i *Info) Get() (root.Server, error) {
	var server root.Server
	if err := i.client.exec("GET", "/1.0", nil, "", readInto(&server)); err != nil {
		return server, errors.WithStack(err)
	}
	return server, nil
}

// Config reads and changes the configuration shared by every registry
// process.
type Config struct {
	client *Client
}

// Get returns the current configuration together with its etag
func (c *Config) Get() (map[string]interface{}, string, error) {
	var (
		update root.ServerUpdate
		etag   string
	)
	read := readInto(&update)
	if err := c.client.exec("GET", "/1.0/config", nil, "", func(response *client.Response, meta Metadata) error {
		etag = meta.ETag
		return read(response, meta)
	}); err != nil {
		return nil, "", errors.WithStack(err)
	}
	return update.Config, etag, nil
}

// Set changes the given keys, leaving the others alone. An empty value
// resets a key to its default.
func (c *Config) Set(values map[string]interface{}, etag string) error {
	err := c.client.exec("PATCH", "/1.0/config", root.ServerUpdate{Config: values}, etag, nopReadFn)
	return errors.WithStack(err)
}

// Replace sets the whole configuration, keys that are not given return to
// their defaults.
func (c *Config) Replace(values map[string]interface{}, etag string) error {
	err := c.client.exec("PUT", "/1.0/config", root.ServerUpdate{Config: values}, etag, nopReadFn)
	return errors.WithStack(err)
}
