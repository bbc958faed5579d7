package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"taskboard/pkg/types"
)

// hubConnPair is one accepted websocket: the server side goes into the
// hub, the client side reads what the hub pushes.
type hubConnPair struct {
	server *websocket.Conn
	client *websocket.Conn
}

// dialHubPair opens a connection through a bare upgrade endpoint and
// returns both ends.
func dialHubPair(t *testing.T, ts *httptest.Server, accepted chan *websocket.Conn) hubConnPair {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server := <-accepted:
		t.Cleanup(func() { _ = server.Close() })
		return hubConnPair{server: server, client: client}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for server-side connection")
		return hubConnPair{}
	}
}

func newUpgradeEndpoint(t *testing.T) (*httptest.Server, chan *websocket.Conn) {
	t.Helper()
	accepted := make(chan *websocket.Conn, 4)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- conn
	}))
	t.Cleanup(ts.Close)
	return ts, accepted
}

func TestLeave_FromReplacedConnectionKeepsSuccessor(t *testing.T) {
	ts, accepted := newUpgradeEndpoint(t)
	hub := NewHub()

	first := dialHubPair(t, ts, accepted)
	second := dialHubPair(t, ts, accepted)

	// Rebind: the second registration replaces the first.
	oldPC := hub.Register("user-1", first.server)
	newPC := hub.Register("user-1", second.server)
	if hub.Count() != 1 {
		t.Fatalf("Expected 1 tracked connection, got %d", hub.Count())
	}

	// The leave frame written on the old socket arrives after the
	// replacement has registered. It must not evict the successor.
	hub.Leave(oldPC)
	if hub.Count() != 1 {
		t.Fatal("Late leave from the replaced connection evicted the successor")
	}

	hub.ForceLogout("user-1", "gone")
	_ = second.client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := second.client.ReadJSON(&ev); err != nil {
		t.Fatalf("Successor connection never received the push: %v", err)
	}
	if ev.Event != types.EventForceLogout {
		t.Errorf("Expected %s event, got %s", types.EventForceLogout, ev.Event)
	}

	// A leave on the connection the hub actually tracks still works.
	hub.Leave(newPC)
	if hub.Count() != 0 {
		t.Errorf("Expected membership released, got %d connections", hub.Count())
	}
}

func TestUnregister_OnlyRemovesCurrentConnection(t *testing.T) {
	ts, accepted := newUpgradeEndpoint(t)
	hub := NewHub()

	first := dialHubPair(t, ts, accepted)
	second := dialHubPair(t, ts, accepted)

	oldPC := hub.Register("user-1", first.server)
	hub.Register("user-1", second.server)

	// The replaced handler's deferred unregister fires late.
	hub.Unregister(oldPC)
	if hub.Count() != 1 {
		t.Error("Unregister of a replaced connection must not drop the successor")
	}
}
