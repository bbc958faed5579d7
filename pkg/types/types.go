package types

// Role identifies the access level of a user account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Status values for tasks. The wire format uses the lowercase forms
// produced by the server, including the hyphenated in-progress value.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// User is the account record returned by the auth and users APIs.
// Active is reported by the server; a deactivated user receives a
// force-logout push and subsequent requests are rejected.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}

// Task is the client's cache copy of a server-owned task record.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	AssignedTo  string `json:"assignedTo"`
}

// Credentials pairs a bearer token with the user it was issued to.
// The pair is all-or-nothing: a token without a user record (or the
// reverse) is never a valid session.
type Credentials struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Valid reports whether the pair can bootstrap a session.
func (c Credentials) Valid() bool {
	return c.Token != "" && c.User != nil && c.User.ID != ""
}

// Push channel event names. The client consumes force-logout and
// emits auth and leave-room.
const (
	EventAuth        = "auth"
	EventForceLogout = "force-logout"
	EventLeaveRoom   = "leave-room"
)

// Event is one frame on the push channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// AuthPayload is the connection-time credential frame, sent by the
// client as the first frame after dialing.
type AuthPayload struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// ForceLogout instructs one specific client identity to terminate its
// session immediately.
type ForceLogout struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// LeaveRoom is emitted by the client just before it disconnects so the
// server can release per-user routing state.
type LeaveRoom struct {
	UserID string `json:"userId"`
}

// Registration is the payload for the register endpoint.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
