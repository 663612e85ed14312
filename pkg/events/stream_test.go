package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type dialer struct {
	url  string
	path chan string
}

func (d dialer) Websocket(path string) (*websocket.Conn, error) {
	d.path <- path
	conn, _, err := websocket.DefaultDialer.Dial(d.url, nil)
	return conn, err
}

func newStreamServer(t *testing.T, start <-chan struct{}, messages ...string) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		defer conn.Close()
		<-start
		for _, message := range messages {
			conn.WriteMessage(websocket.TextMessage, []byte(message))
		}
		// Hold the socket open until the client goes away.
		conn.ReadMessage()
	}))
}

func TestEventsStream(t *testing.T) {
	start := make(chan struct{})
	server := newStreamServer(t, start,
		`garbage`,
		`{"type":"host","action":"host-created"}`,
		`{"type":"job","action":"job-created"}`,
	)
	defer server.Close()

	d := dialer{
		url:  "ws" + strings.TrimPrefix(server.URL, "http"),
		path: make(chan string, 1),
	}
	stream := NewEvents(d, WithTypes("job", "host"))
	listener, err := stream.GetEvents()
	require.NoError(t, err)

	if expected, actual := "/events?type=job,host", <-d.path; expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}

	received := make(chan interface{}, 2)
	listener.AddHandler([]string{"job"}, func(event interface{}) {
		received <- event
	})
	close(start)

	select {
	case event := <-received:
		message := event.(map[string]interface{})
		if expected, actual := "job-created", message["action"]; expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a job event")
	}

	listener.Disconnect()
	require.NoError(t, listener.Wait())
	if expected, actual := false, listener.IsActive(); expected != actual {
		t.Errorf("expected: %t, actual: %t", expected, actual)
	}
	// Disconnecting twice is harmless.
	listener.Disconnect()
}

func TestEventListenerRemoveHandler(t *testing.T) {
	listener := &EventListener{done: make(chan struct{})}
	target := listener.AddHandler(nil, func(interface{}) {})
	require.NoError(t, listener.RemoveHandler(target))
	if err := listener.RemoveHandler(target); err == nil {
		t.Error("expected err not to be nil")
	}
}
