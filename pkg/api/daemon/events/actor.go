package events

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is the write side of an event websocket.
type Conn interface {
	WriteMessage(int, []byte) error
	Close() error
}

// actor is one websocket subscribed to a set of event types. The
// broadcaster and the read loop may both close it.
type actor struct {
	id    string
	types []string

	mutex  sync.Mutex
	conn   Conn
	closed chan struct{}
}

func newActor(id string, conn Conn, types []string) *actor {
	return &actor{
		id:     id,
		types:  types,
		conn:   conn,
		closed: make(chan struct{}),
	}
}

func (a *actor) ID() string      { return a.id }
func (a *actor) Types() []string { return a.types }

func (a *actor) Write(body []byte) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.conn.WriteMessage(websocket.TextMessage, body)
}

func (a *actor) Close() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.Done() {
		return
	}
	a.conn.Close()
	close(a.closed)
}

func (a *actor) Done() bool {
	select {
	case <-a.closed:
		return true
	default:
		return false
	}
}
