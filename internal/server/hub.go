package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"taskboard/pkg/types"
)

const pushWriteTimeout = 5 * time.Second

// Hub tracks one push connection per user id. Registering a second
// connection for the same user replaces the first; the old socket is
// closed asynchronously so registration never deadlocks on a slow
// peer.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*pushConn
}

// pushConn serializes writes onto one websocket.
type pushConn struct {
	userID string
	conn   *websocket.Conn
	mu     sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{connections: make(map[string]*pushConn)}
}

// Register tracks a connection for a user, replacing any previous one.
func (h *Hub) Register(userID string, conn *websocket.Conn) *pushConn {
	pc := &pushConn{userID: userID, conn: conn}

	h.mu.Lock()
	if existing, ok := h.connections[userID]; ok {
		go func() {
			if err := existing.conn.Close(); err != nil {
				log.Printf("Failed to close replaced push connection: user=%s err=%v", userID, err)
			}
		}()
	}
	h.connections[userID] = pc
	h.mu.Unlock()

	log.Printf("Push connection registered: user=%s", userID)
	return pc
}

// Unregister removes a connection if it is still the one tracked for
// its user. Safe for concurrent and repeated calls.
func (h *Hub) Unregister(pc *pushConn) {
	h.mu.Lock()
	if current, ok := h.connections[pc.userID]; ok && current == pc {
		delete(h.connections, pc.userID)
	}
	h.mu.Unlock()
}

// Leave releases a user's room membership, but only when the frame
// arrived on the connection the hub currently tracks for that user.
// On rebind the client's leave frame races the replacement
// registration; a late leave read off the replaced socket must not
// evict its successor.
func (h *Hub) Leave(pc *pushConn) {
	h.mu.Lock()
	current, ok := h.connections[pc.userID]
	released := ok && current == pc
	if released {
		delete(h.connections, pc.userID)
	}
	h.mu.Unlock()

	if released {
		log.Printf("Push room released: user=%s", pc.userID)
	} else {
		log.Printf("Ignoring leave from replaced connection: user=%s", pc.userID)
	}
}

// ForceLogout pushes a force-logout event at one user. A user with no
// live connection simply misses the push; their tokens are already
// revoked so the next authenticated request fails.
func (h *Hub) ForceLogout(userID, message string) {
	h.mu.RLock()
	pc, ok := h.connections[userID]
	h.mu.RUnlock()
	if !ok {
		log.Printf("No push connection for force-logout: user=%s", userID)
		return
	}

	payload, _ := json.Marshal(types.ForceLogout{UserID: userID, Message: message})
	if err := pc.write(types.Event{Name: types.EventForceLogout, Data: json.RawMessage(payload)}); err != nil {
		log.Printf("Failed to push force-logout: user=%s err=%v", userID, err)
	}
}

// Count returns the number of live push connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (pc *pushConn) write(ev types.Event) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	_ = pc.conn.SetWriteDeadline(time.Now().Add(pushWriteTimeout))
	return pc.conn.WriteJSON(ev)
}
