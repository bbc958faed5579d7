package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"taskboard/pkg/types"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin: func(r *http.Request) bool {
		// Development server: accept any origin.
		return true
	},
}

// Server is the development backend: the Auth/Users/Tasks APIs plus
// the push channel, enough to run and integration-test the client.
type Server struct {
	storage *Storage
	hub     *Hub
	router  *mux.Router
}

// NewServer wires storage and the push hub into the HTTP router.
func NewServer(storage *Storage) *Server {
	s := &Server{
		storage: storage,
		hub:     NewHub(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/users", s.requireRole(types.RoleAdmin, s.handleListUsers)).Methods(http.MethodGet)
	r.HandleFunc("/api/users/status", s.requireRole(types.RoleAdmin, s.handleUserStatus)).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks", s.requireAuth(s.handleListTasks)).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/bulk-update", s.requireAuth(s.handleBulkUpdate)).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id}", s.requireAuth(s.handleUpdateTask)).Methods(http.MethodPut)
	r.HandleFunc("/ws", s.handlePush)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router = r

	return s
}

// Hub exposes the push hub, mainly for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	creds, err := s.storage.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	s.sendJSON(w, http.StatusOK, creds)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg types.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		s.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := reg.Validate(); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Self-registration always creates a regular user account.
	if _, err := s.storage.CreateUser(r.Context(), reg.Name, reg.Email, reg.Password, types.RoleUser); err != nil {
		if err == ErrEmailTaken {
			s.sendError(w, err.Error(), http.StatusConflict)
			return
		}
		s.sendError(w, "registration failed", http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, http.StatusCreated, map[string]any{})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ *types.User) {
	users, err := s.storage.ListUsers(r.Context())
	if err != nil {
		s.sendError(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleUserStatus(w http.ResponseWriter, r *http.Request, caller *types.User) {
	var req struct {
		ID     string `json:"id"`
		Active bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		s.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == caller.ID && !req.Active {
		s.sendError(w, "cannot deactivate your own account", http.StatusBadRequest)
		return
	}

	if err := s.storage.SetUserActive(r.Context(), req.ID, req.Active); err != nil {
		if err == ErrUserNotFound {
			s.sendError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.sendError(w, "failed to update user status", http.StatusInternalServerError)
		return
	}

	// Deactivation invalidates the user's session everywhere: tokens
	// are already revoked, and any live client is told to log out now.
	if !req.Active {
		s.hub.ForceLogout(req.ID, "Your account has been deactivated by an administrator.")
	}
	s.sendJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, caller *types.User) {
	assignedTo := r.URL.Query().Get("assignedTo")
	// Regular users only ever see their own tasks.
	if caller.Role != types.RoleAdmin {
		assignedTo = caller.ID
	}

	tasks, err := s.storage.ListTasks(r.Context(), assignedTo)
	if err != nil {
		s.sendError(w, "failed to list tasks", http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []types.Task{}
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, _ *types.User) {
	id := mux.Vars(r)["id"]

	var task types.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		s.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !types.IsValidStatus(task.Status) {
		s.sendError(w, types.ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}

	if err := s.storage.UpdateTask(r.Context(), id, task); err != nil {
		if err == ErrTaskNotFound {
			s.sendError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.sendError(w, "failed to update task", http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request, _ *types.User) {
	var req struct {
		TaskIDs    []string `json:"taskIds"`
		UpdateData struct {
			Status types.Status `json:"status"`
		} `json:"updateData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.TaskIDs) == 0 {
		s.sendError(w, "taskIds cannot be empty", http.StatusBadRequest)
		return
	}
	if !types.IsValidStatus(req.UpdateData.Status) {
		s.sendError(w, types.ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}

	if err := s.storage.BulkUpdateStatus(r.Context(), req.TaskIDs, req.UpdateData.Status); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{})
}

// handlePush upgrades the connection and expects an auth frame as the
// first message. Only a token actually issued to the claimed user id
// binds the connection; afterwards the socket stays open for pushes
// until the client leaves or disconnects.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Push upgrade failed: %v", err)
		return
	}

	var authFrame struct {
		Event string            `json:"event"`
		Data  types.AuthPayload `json:"data"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	if err := conn.ReadJSON(&authFrame); err != nil || authFrame.Event != types.EventAuth {
		_ = conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	user, err := s.storage.UserByToken(r.Context(), authFrame.Data.Token)
	if err != nil || user.ID != authFrame.Data.UserID {
		log.Printf("Push auth rejected: claimed=%s err=%v", authFrame.Data.UserID, err)
		_ = conn.Close()
		return
	}

	pc := s.hub.Register(user.ID, conn)
	defer s.hub.Unregister(pc)

	for {
		var f struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&f); err != nil {
			_ = conn.Close()
			return
		}
		if f.Event == types.EventLeaveRoom {
			var leave types.LeaveRoom
			if err := json.Unmarshal(f.Data, &leave); err == nil && leave.UserID == user.ID {
				s.hub.Leave(pc)
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"push_connections": s.hub.Count(),
	})
}

type authedHandler func(http.ResponseWriter, *http.Request, *types.User)

// requireAuth resolves the bearer token to an active user before
// invoking the handler.
func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			s.sendError(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		user, err := s.storage.UserByToken(r.Context(), token)
		if err != nil {
			s.sendError(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		next(w, r, user)
	}
}

// requireRole layers a role check on top of requireAuth.
func (s *Server) requireRole(role types.Role, next authedHandler) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request, user *types.User) {
		if user.Role != role {
			s.sendError(w, "insufficient permissions", http.StatusForbidden)
			return
		}
		next(w, r, user)
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, status int) {
	s.sendJSON(w, status, map[string]string{"error": message})
}
