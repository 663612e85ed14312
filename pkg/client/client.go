package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	inet "github.com/spoke-d/dispatchd/internal/net"
)

// Client talks to the REST API of a registry process.
type Client struct {
	http          *http.Client
	httpHost      string
	httpUserAgent string

	logger log.Logger
}

// New creates a Client for the registry reachable at address. An address
// without a scheme is reached over plain HTTP.
func New(address string, options ...Option) (*Client, error) {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}
	if address == "" {
		return nil, errors.New("address must not be empty")
	}

	return &Client{
		httpHost:      inet.EnsureHTTP(address),
		httpUserAgent: opts.userAgent,
		http:          httpClient(opts),
		logger:        opts.logger,
	}, nil
}

// HTTPClient returns the http client used for the connection.
// This can be used to set custom http options.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Address returns the base URL of the registry.
func (c *Client) Address() string {
	return c.httpHost
}

// Query allows directly querying the API
func (c *Client) Query(
	method, path string,
	data interface{},
	eTag string,
) (*Response, string, error) {
	url := fmt.Sprintf("%s%s", c.httpHost, path)
	return c.rawQuery(method, url, data, eTag)
}

// Websocket allows directly connection to API websockets
func (c *Client) Websocket(path string) (*websocket.Conn, error) {
	url := fmt.Sprintf("%s/1.0%s", inet.WebsocketURL(c.httpHost), path)
	return c.rawWebsocket(url)
}

func (c *Client) rawQuery(method, url string, data interface{}, eTag string) (*Response, string, error) {
	level.Debug(c.logger).Log("msg", "sending request to API",
		"method", method,
		"url", url,
		"etag", eTag,
	)

	var (
		body        io.Reader
		contentType string
	)
	switch v := data.(type) {
	case nil:
	case io.Reader:
		body = v
		contentType = "application/octet-stream"
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(data); err != nil {
			return nil, "", errors.WithStack(err)
		}
		body = bytes.NewReader(buf.Bytes())
		contentType = "application/json"
		level.Debug(c.logger).Log("data", data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.httpUserAgent != "" {
		req.Header.Set("User-Agent", c.httpUserAgent)
	}
	if eTag != "" {
		req.Header.Set("If-Match", eTag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}
	defer resp.Body.Close()

	return parseResponse(resp)
}

func (c *Client) rawWebsocket(url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		NetDialContext:   dialer().DialContext,
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}

	headers := http.Header{}
	if c.httpUserAgent != "" {
		headers.Set("User-Agent", c.httpUserAgent)
	}

	conn, _, err := dialer.Dial(url, headers)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	level.Debug(c.logger).Log("msg", "Connected to the websocket", "url", url)
	return conn, nil
}

func dialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 3 * time.Second,
	}
}

func httpClient(opts *options) *http.Client {
	transport := &http.Transport{
		DialContext:       dialer().DialContext,
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: true,
	}
	if opts.proxy != nil {
		transport.Proxy = opts.proxy
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.timeout,
	}

	// Replicate the headers on redirects
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		req.Header = via[len(via)-1].Header
		return nil
	}
	return client
}

func parseResponse(resp *http.Response) (*Response, string, error) {
	etag := resp.Header.Get("ETag")

	var response Response
	if resp.ContentLength == 0 {
		response.Type = SyncResponse
		response.Status = resp.Status
		response.StatusCode = resp.StatusCode
		return &response, etag, nil
	}

	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(&response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, "", Error{
				Code:    resp.StatusCode,
				Message: fmt.Sprintf("failed to fetch %s: %s", resp.Request.URL.String(), resp.Status),
			}
		}
		return nil, "", errors.WithStack(err)
	}

	if response.Type == ErrorResponse {
		return nil, "", Error{
			Code:    response.Code,
			Message: response.Error,
		}
	}
	return &response, etag, nil
}
