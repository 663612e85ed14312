package daemon

import (
	"github.com/spoke-d/dispatchd/internal/actors"
	"github.com/spoke-d/dispatchd/internal/config"
	"github.com/spoke-d/dispatchd/pkg/api"
	"github.com/spoke-d/dispatchd/pkg/events"
)

type daemonShim struct {
	daemon *Daemon
}

func makeDaemonShim(daemon *Daemon) daemonShim {
	return daemonShim{
		daemon: daemon,
	}
}

func (s daemonShim) SetupChan() <-chan struct{} {
	return s.daemon.SetupChan()
}

func (s daemonShim) Cluster() api.Cluster {
	return s.daemon.Cluster()
}

func (s daemonShim) Registry() api.Registry {
	return s.daemon.Registry()
}

func (s daemonShim) Incidents() api.Incidents {
	return s.daemon.Incidents()
}

func (s daemonShim) ClusterConfigSchema() config.Schema {
	return s.daemon.ClusterConfigSchema()
}

func (s daemonShim) ConfigChanged() {
	s.daemon.ConfigChanged()
}

func (s daemonShim) ActorGroup() api.ActorGroup {
	return makeAPIActorGroupShim(s.daemon.ActorGroup())
}

func (s daemonShim) Version() string {
	return s.daemon.Version()
}

func (s daemonShim) APIExtensions() []string {
	return s.daemon.APIExtensions()
}

func (s daemonShim) UnsafeShutdown() {
	s.daemon.UnsafeShutdown()
}

type apiActorGroupShim struct {
	group *actors.Group
}

func makeAPIActorGroupShim(group *actors.Group) apiActorGroupShim {
	return apiActorGroupShim{
		group: group,
	}
}

func (s apiActorGroupShim) Add(a api.Actor) {
	s.group.Add(a)
}

func (s apiActorGroupShim) Prune() bool {
	return s.group.Prune()
}

func (s apiActorGroupShim) Walk(fn func(api.Actor) error) error {
	return s.group.Walk(func(a actors.Actor) error {
		return fn(a)
	})
}

type eventsActorGroupShim struct {
	group *actors.Group
}

func makeEventsActorGroupShim(group *actors.Group) eventsActorGroupShim {
	return eventsActorGroupShim{
		group: group,
	}
}

func (s eventsActorGroupShim) Add(a events.Actor) {
	s.group.Add(a)
}

func (s eventsActorGroupShim) Prune() bool {
	return s.group.Prune()
}

func (s eventsActorGroupShim) Walk(fn func(events.Actor) error) error {
	return s.group.Walk(func(a actors.Actor) error {
		return fn(a)
	})
}
