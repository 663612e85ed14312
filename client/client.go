package client

import (
	"bytes"
	"net/url"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/pkg/client"
)

// Client is a typed client for the REST API of a registry process.
type Client struct {
	client *client.Client
	logger log.Logger
}

// New creates a Client for the registry reachable at address.
func New(address string, options ...Option) (*Client, error) {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	raw, err := client.New(
		address,
		client.WithUserAgent(opts.userAgent),
		client.WithTimeout(opts.timeout),
		client.WithLogger(opts.logger),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Client{
		client: raw,
		logger: opts.logger,
	}, nil
}

// Info returns an API leaf for the daemon information
func (c *Client) Info() *Info {
	return &Info{
		client: c,
	}
}

// Config returns an API leaf for the shared configuration
func (c *Client) Config() *Config {
	return &Config{
		client: c,
	}
}

// Hosts returns an API leaf for the registered hosts
func (c *Client) Hosts() *Hosts {
	return &Hosts{
		client: c,
	}
}

// Services returns an API leaf for the registered services
func (c *Client) Services() *Services {
	return &Services{
		client: c,
	}
}

// Jobs returns an API leaf for the job store
func (c *Client) Jobs() *Jobs {
	return &Jobs{
		client: c,
	}
}

// Incidents returns an API leaf for the incidents reported against jobs
func (c *Client) Incidents() *Incidents {
	return &Incidents{
		client: c,
	}
}

// Events returns an API leaf for the lifecycle event stream
func (c *Client) Events() *Events {
	return &Events{
		client: c,
	}
}

// Query represents a raw query to the daemon API
func (c *Client) Query(method, path string, data interface{}, etag string) (*client.Response, string, error) {
	return c.client.Query(method, path, data, etag)
}

// RawClient returns the underlying client that services this client.
func (c *Client) RawClient() *client.Client {
	return c.client
}

func nopReadFn(*client.Response, Metadata) error {
	return nil
}

// readInto decodes the response metadata into target.
func readInto(target interface{}) func(*client.Response, Metadata) error {
	return func(response *client.Response, meta Metadata) error {
		if err := json.Read(bytes.NewReader(response.Metadata), target); err != nil {
			return errors.Wrap(err, "error parsing result")
		}
		return nil
	}
}

func (c *Client) exec(
	method, path string,
	body interface{},
	etag string,
	fn func(*client.Response, Metadata) error,
) error {
	began := time.Now()
	response, etag, err := c.client.Query(method, path, body, etag)
	if err != nil {
		return errors.Wrap(err, "error requesting")
	} else if response.StatusCode != 200 {
		return errors.Errorf("invalid status code %d", response.StatusCode)
	}
	return fn(response, Metadata{
		ETag:     etag,
		Duration: time.Since(began),
	})
}

// withQuery appends the non-empty values to path.
func withQuery(path string, values url.Values) string {
	for k, v := range values {
		if len(v) == 0 || v[0] == "" {
			delete(values, k)
		}
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

// Metadata holds the metadata for each result.
type Metadata struct {
	ETag     string
	Duration time.Duration
}
