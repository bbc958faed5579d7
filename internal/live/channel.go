package live

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taskboard/pkg/types"
)

const (
	writeTimeout   = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
	healthyConnAge = time.Second
)

// frame is the wire shape of one push-channel message.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Channel maintains one push connection per authenticated identity.
// Bind never blocks on connection success: dialing and retry happen in
// a background goroutine and events arrive once the transport is up.
type Channel struct {
	url    string
	dialer *websocket.Dialer

	mu          sync.Mutex
	handle      *handle
	observers   []func(types.Event)
	forceLogout func(types.ForceLogout)
}

// handle is one connection attempt bound to a single user identity.
// A superseded handle keeps its identity for its whole lifetime so
// late frames read off it can be recognized and dropped.
type handle struct {
	id     string
	userID string
	token  string

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	conn      *websocket.Conn
	closeOnce sync.Once
}

// NewChannel creates a channel dialing the given websocket URL.
func NewChannel(url string) *Channel {
	return &Channel{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Bind opens a connection for the identity. An open handle bound to a
// previous identity is fully closed, leave-room notification included,
// before the new handle starts dialing. Two live handles never
// coexist, so force-logout events cannot cross between sessions.
func (c *Channel) Bind(userID, token string) error {
	if userID == "" || token == "" {
		return ErrMissingIdentity
	}

	c.mu.Lock()
	old := c.handle
	c.handle = nil
	c.mu.Unlock()

	if old != nil {
		old.close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{
		id:     uuid.New().String(),
		userID: userID,
		token:  token,
		ctx:    ctx,
		cancel: cancel,
	}

	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()

	go c.run(h)
	return nil
}

// Close emits the leave-room notification for the bound user and then
// terminates the connection. Safe to call repeatedly or when closed.
func (c *Channel) Close() {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.mu.Unlock()

	if h != nil {
		h.close()
	}
}

// BoundUserID returns the identity of the current handle, or "".
func (c *Channel) BoundUserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return ""
	}
	return c.handle.userID
}

// IsOpen reports whether the underlying transport is connected.
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn != nil
}

// OnEvent registers a diagnostic observer seeing every inbound frame.
func (c *Channel) OnEvent(fn func(types.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// OnForceLogout registers the typed force-logout consumer.
func (c *Channel) OnForceLogout(fn func(types.ForceLogout)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forceLogout = fn
}

// run dials, authenticates and reads frames until the handle is
// superseded or closed, reconnecting with exponential backoff.
func (c *Channel) run(h *handle) {
	backoff := initialBackoff

	for {
		if h.ctx.Err() != nil || !c.isCurrent(h) {
			return
		}

		conn, _, err := c.dialer.DialContext(h.ctx, c.url, nil)
		if err != nil {
			log.Printf("Push channel dial failed, retrying in %v: %v", backoff, err)
			var ok bool
			if backoff, ok = h.backoffWait(backoff); !ok {
				return
			}
			continue
		}

		// First frame carries the connection-time credentials.
		auth := frame{Event: types.EventAuth}
		auth.Data, _ = json.Marshal(types.AuthPayload{UserID: h.userID, Token: h.token})
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(auth); err != nil {
			log.Printf("Push channel auth write failed, retrying in %v: %v", backoff, err)
			_ = conn.Close()
			var ok bool
			if backoff, ok = h.backoffWait(backoff); !ok {
				return
			}
			continue
		}

		h.mu.Lock()
		if h.ctx.Err() != nil {
			h.mu.Unlock()
			_ = conn.Close()
			return
		}
		h.conn = conn
		h.mu.Unlock()

		connectedAt := time.Now()
		c.readLoop(h, conn)

		h.mu.Lock()
		h.conn = nil
		h.mu.Unlock()

		// A connection that dies right away counts as a failure: a
		// server that accepts and immediately drops sockets must not
		// turn the redial loop hot.
		if time.Since(connectedAt) >= healthyConnAge {
			backoff = initialBackoff
			continue
		}
		var ok bool
		if backoff, ok = h.backoffWait(backoff); !ok {
			return
		}
	}
}

// backoffWait sleeps for the current backoff unless the handle is
// cancelled, returning the next backoff and whether to keep retrying.
func (h *handle) backoffWait(d time.Duration) (time.Duration, bool) {
	select {
	case <-time.After(d):
	case <-h.ctx.Done():
		return d, false
	}
	if d *= 2; d > maxBackoff {
		d = maxBackoff
	}
	return d, true
}

// readLoop delivers frames until the connection drops. Frames read
// off a handle that is no longer current are discarded: a stale handle
// must never deliver into the new session.
func (c *Channel) readLoop(h *handle, conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if h.ctx.Err() == nil {
				log.Printf("Push channel read failed: %v", err)
			}
			_ = conn.Close()
			return
		}

		if !c.isCurrent(h) {
			log.Printf("Dropping frame from superseded handle: event=%s handle=%s", f.Event, h.id)
			_ = conn.Close()
			return
		}

		c.dispatch(f)
	}
}

func (c *Channel) dispatch(f frame) {
	ev := types.Event{Name: f.Event}
	if len(f.Data) > 0 {
		var payload any
		if err := json.Unmarshal(f.Data, &payload); err == nil {
			ev.Data = payload
		}
	}

	c.mu.Lock()
	observers := make([]func(types.Event), len(c.observers))
	copy(observers, c.observers)
	forceLogout := c.forceLogout
	c.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}

	if f.Event == types.EventForceLogout && forceLogout != nil {
		var fl types.ForceLogout
		if err := json.Unmarshal(f.Data, &fl); err != nil {
			log.Printf("Malformed force-logout payload: %v", err)
			return
		}
		forceLogout(fl)
	}
}

func (c *Channel) isCurrent(h *handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle == h
}

// close sends the leave-room notification and then tears the
// connection down. The notification must go out strictly before the
// close, otherwise the server leaks per-user room membership.
func (h *handle) close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		conn := h.conn
		h.conn = nil
		h.mu.Unlock()

		if conn != nil {
			leave := frame{Event: types.EventLeaveRoom}
			leave.Data, _ = json.Marshal(types.LeaveRoom{UserID: h.userID})
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(leave); err != nil {
				log.Printf("Failed to send leave-room notification: %v", err)
			}
			_ = conn.Close()
		}

		h.cancel()
	})
}
