package interfaces

import "taskboard/pkg/types"

// PushChannel is one live connection per authenticated identity.
// Opening never blocks the caller on connection success; events simply
// start arriving once the transport is up.
type PushChannel interface {
	// Bind opens a connection carrying the identity's credentials.
	// If a handle bound to a previous identity is open it is closed,
	// leave-room notification included, before the new one dials.
	Bind(userID, token string) error

	// Close emits the leave-room notification for the bound user and
	// then terminates the connection. Safe to call when not open.
	Close()

	// BoundUserID returns the identity of the current handle, or ""
	// when closed.
	BoundUserID() string

	// IsOpen reports whether the underlying transport is connected.
	IsOpen() bool

	// OnEvent registers a diagnostic observer invoked for every
	// inbound frame.
	OnEvent(fn func(types.Event))

	// OnForceLogout registers the consumer of typed force-logout
	// events. Events read off a superseded handle are not delivered.
	OnForceLogout(fn func(types.ForceLogout))
}
