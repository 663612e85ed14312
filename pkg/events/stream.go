package events

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Client opens websockets against the registry API.
type Client interface {
	Websocket(path string) (*websocket.Conn, error)
}

// Events reads the /events stream of a registry. All listeners share one
// websocket, opened by the first listener and closed after the last one
// disconnects.
type Events struct {
	client Client
	types  []string
	logger log.Logger

	mutex     sync.Mutex
	conn      *websocket.Conn
	listeners []*EventListener
}

// NewEvents creates an Events for client.
func NewEvents(client Client, options ...Option) *Events {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Events{
		client: client,
		types:  opts.types,
		logger: opts.logger,
	}
}

// GetEvents adds a listener, connecting to the stream if needed.
func (e *Events) GetEvents() (*EventListener, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.conn == nil {
		path := "/events"
		if len(e.types) > 0 {
			path += "?type=" + strings.Join(e.types, ",")
		}
		conn, err := e.client.Websocket(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		e.conn = conn
		go e.read(conn)
	}

	listener := &EventListener{
		events: e,
		done:   make(chan struct{}),
	}
	e.listeners = append(e.listeners, listener)
	return listener, nil
}

func (e *Events) read(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			e.mutex.Lock()
			var listeners []*EventListener
			if e.conn == conn {
				listeners, e.listeners, e.conn = e.listeners, nil, nil
			}
			e.mutex.Unlock()

			conn.Close()
			for _, listener := range listeners {
				listener.close(err)
			}
			return
		}

		message, messageType, err := parseMessage(data)
		if err != nil {
			level.Debug(e.logger).Log("msg", "Dropping malformed event", "err", err)
			continue
		}

		e.mutex.Lock()
		listeners := append([]*EventListener(nil), e.listeners...)
		e.mutex.Unlock()

		for _, listener := range listeners {
			listener.dispatch(messageType, message)
		}
	}
}

func (e *Events) remove(listener *EventListener) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	for i, l := range e.listeners {
		if l == listener {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			break
		}
	}
	if len(e.listeners) == 0 && e.conn != nil {
		e.conn.Close()
		e.conn = nil
	}
}

func parseMessage(data []byte) (map[string]interface{}, string, error) {
	var message map[string]interface{}
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, "", errors.WithStack(err)
	}
	messageType, ok := message["type"].(string)
	if !ok {
		return nil, "", errors.New("invalid message type")
	}
	return message, messageType, nil
}

// EventTarget is a handler added to a listener.
type EventTarget struct {
	function func(interface{})
	types    []string
}

// EventListener receives events until it disconnects or the stream fails.
type EventListener struct {
	events *Events

	mutex   sync.Mutex
	targets []*EventTarget
	once    sync.Once
	done    chan struct{}
	err     error
}

// AddHandler calls function for every event whose type is in types. A nil
// types matches every event.
func (l *EventListener) AddHandler(types []string, function func(interface{})) *EventTarget {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	target := &EventTarget{
		function: function,
		types:    types,
	}
	l.targets = append(l.targets, target)
	return target
}

// RemoveHandler stops calling target.
func (l *EventListener) RemoveHandler(target *EventTarget) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for i, t := range l.targets {
		if t == target {
			l.targets = append(l.targets[:i], l.targets[i+1:]...)
			return nil
		}
	}
	return errors.New("function and event type not found")
}

// Disconnect stops the listener. Wait then returns nil.
func (l *EventListener) Disconnect() {
	l.events.remove(l)
	l.close(nil)
}

// Wait blocks until the listener is disconnected or the stream fails.
func (l *EventListener) Wait() error {
	<-l.done
	return l.Err()
}

// IsActive reports whether the listener still receives events.
func (l *EventListener) IsActive() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Err is the error that ended the stream, if any.
func (l *EventListener) Err() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.err
}

func (l *EventListener) close(err error) {
	l.once.Do(func() {
		l.mutex.Lock()
		l.err = errors.WithStack(err)
		l.mutex.Unlock()
		close(l.done)
	})
}

func (l *EventListener) dispatch(messageType string, message map[string]interface{}) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for _, target := range l.targets {
		if target.types != nil && !contains(target.types, messageType) {
			continue
		}
		go target.function(message)
	}
}
