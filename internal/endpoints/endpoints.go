// Package endpoints binds the listening sockets of a registry process: the
// REST API socket and the optional pprof socket.
package endpoints

import (
	"net"
	"net/http"
	_ "net/http/pprof" // registers on http.DefaultServeMux
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/retrier"
	"golang.org/x/sync/errgroup"
)

// DefaultPort is used for addresses given without a port.
const DefaultPort = "8080"

// Server serves HTTP off a listener, usually an *http.Server.
type Server interface {
	Serve(net.Listener) error
}

type endpoint struct {
	name     string
	server   Server
	listener net.Listener
}

func (e *endpoint) address() string {
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// Endpoints owns the sockets and the goroutines serving them.
type Endpoints struct {
	mutex   sync.RWMutex
	group   *errgroup.Group
	network *endpoint
	pprof   *endpoint
	logger  log.Logger
	sleeper clock.Sleeper
}

// New creates Endpoints for restServer. Addresses are bound straight away;
// an address that cannot be bound is logged and left unserved.
func New(restServer Server, options ...Option) *Endpoints {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	e := &Endpoints{
		group: new(errgroup.Group),
		network: &endpoint{
			name:   "TCP socket",
			server: restServer,
		},
		pprof: &endpoint{
			name:   "pprof socket",
			server: pprofServer(),
		},
		logger:  opts.logger,
		sleeper: opts.sleeper,
	}
	e.network.listener = e.listen(e.network, opts.networkAddress)
	e.pprof.listener = e.listen(e.pprof, opts.debugAddress)
	return e
}

// Up starts serving every bound endpoint.
func (e *Endpoints) Up() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	level.Info(e.logger).Log("msg", "Starting REST API")
	e.serve(e.network)
	e.serve(e.pprof)
	return nil
}

// Down closes every socket and waits for the servers to return.
func (e *Endpoints) Down() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	for _, ep := range []*endpoint{e.network, e.pprof} {
		if err := e.close(ep); err != nil {
			return errors.WithStack(err)
		}
	}

	// Serve always fails once its listener is closed.
	e.group.Wait()
	e.group = new(errgroup.Group)
	return nil
}

// NetworkAddress is the bound address of the REST API, or "" when unbound.
func (e *Endpoints) NetworkAddress() string {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.network.address()
}

// PprofAddress is the bound address of the pprof endpoint, or "" when
// unbound.
func (e *Endpoints) PprofAddress() string {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.pprof.address()
}

// NetworkUpdateAddress moves the REST API to address. An empty address
// closes it. If the new address cannot be bound the old one is restored.
func (e *Endpoints) NetworkUpdateAddress(address string) error {
	return e.rebind(e.network, address)
}

// PprofUpdateAddress moves the pprof endpoint to address.
func (e *Endpoints) PprofUpdateAddress(address string) error {
	return e.rebind(e.pprof, address)
}

func (e *Endpoints) listen(ep *endpoint, address string) net.Listener {
	if address == "" {
		return nil
	}
	listener, err := net.Listen("tcp", canonicalNetworkAddress(address))
	if err != nil {
		level.Error(e.logger).Log("msg", "Cannot listen, skipping", "endpoint", ep.name, "err", err)
		return nil
	}
	return listener
}

func (e *Endpoints) serve(ep *endpoint) {
	if ep.listener == nil {
		return
	}
	level.Info(e.logger).Log("msg", " - binding "+ep.name, "address", ep.listener.Addr())

	server, listener := ep.server, ep.listener
	e.group.Go(func() error {
		return server.Serve(listener)
	})
}

func (e *Endpoints) close(ep *endpoint) error {
	if ep.listener == nil {
		return nil
	}
	level.Info(e.logger).Log("msg", " - closing "+ep.name, "address", ep.listener.Addr())
	listener := ep.listener
	ep.listener = nil
	return listener.Close()
}

func (e *Endpoints) rebind(ep *endpoint, address string) error {
	if address != "" {
		address = canonicalNetworkAddress(address)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	old := ep.address()
	if address == old {
		return nil
	}
	level.Info(e.logger).Log("msg", " - updating address", "endpoint", ep.name, "old-address", old, "address", address)

	e.close(ep)
	if address == "" {
		return nil
	}

	listener, err := e.bind(address)
	if err != nil {
		if old != "" {
			if listener, rerr := e.bind(old); rerr == nil {
				ep.listener = listener
				e.serve(ep)
			}
		}
		return errors.WithStack(err)
	}
	ep.listener = listener
	e.serve(ep)
	return nil
}

func (e *Endpoints) bind(address string) (net.Listener, error) {
	var listener net.Listener
	err := retrier.New(e.sleeper, 10, 100*time.Millisecond).Run(func() error {
		var err error
		listener, err = net.Listen("tcp", address)
		return err
	})
	return listener, errors.WithStack(err)
}

// pprofServer takes over the handlers net/http/pprof registered on the
// default mux and leaves a clean mux behind.
func pprofServer() *http.Server {
	mux := http.DefaultServeMux
	http.DefaultServeMux = http.NewServeMux()
	return &http.Server{Handler: mux}
}

// canonicalNetworkAddress appends DefaultPort to addresses without a port.
func canonicalNetworkAddress(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(address, DefaultPort)
}
