package events

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	internalevents "github.com/spoke-d/dispatchd/internal/events"
	"github.com/spoke-d/dispatchd/pkg/api"
	"github.com/spoke-d/dispatchd/pkg/events"
)

// DefaultTypes are the event types a listener receives when it does not
// ask for specific ones.
var DefaultTypes = []string{
	internalevents.TypeJob,
	internalevents.TypeService,
	internalevents.TypeHost,
}

// API streams registry events over a websocket.
type API struct {
	api.DefaultService
	name       string
	wsUpgrader websocket.Upgrader
	logger     log.Logger
}

// NewAPI creates a API with sane defaults
func NewAPI(name string, logger log.Logger) *API {
	return &API{
		name: name,
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Name returns the API name
func (a *API) Name() string {
	return a.name
}

// Get upgrades the connection and subscribes it to the event types listed
// in the "type" query parameter.
func (a *API) Get(ctx context.Context, req *http.Request) api.Response {
	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	return &service{
		actorGroup: makeActorGroupShim(d.ActorGroup()),
		req:        req,
		wsUpgrader: a.wsUpgrader,
		logger:     a.logger,
	}
}

type service struct {
	actorGroup events.ActorGroup
	req        *http.Request
	wsUpgrader websocket.Upgrader
	logger     log.Logger
}

func (s *service) Render(w http.ResponseWriter) error {
	types := DefaultTypes
	if typeStr := s.req.FormValue("type"); typeStr != "" {
		types = strings.Split(typeStr, ",")
	}

	c, err := s.wsUpgrader.Upgrade(w, s.req, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	a := newActor(uuid.NewRandom().String(), c, types)
	s.actorGroup.Add(a)
	level.Debug(s.logger).Log("msg", "New event listener", "id", a.id, "types", strings.Join(types, ","))

	// Listeners never send anything, a failing read means the peer went
	// away.
	go func() {
		for {
			if _, _, err := c.NextReader(); err != nil {
				a.Close()
				return
			}
		}
	}()

	// Hold the request open until the actor is closed.
	<-a.closed

	level.Debug(s.logger).Log("msg", "Event listener disconnected", "id", a.id)
	return nil
}
