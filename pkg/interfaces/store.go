package interfaces

import "taskboard/pkg/types"

// CredentialStore is durable storage for the {token, user} pair.
// Implementations persist both values together or not at all; a
// partial pair read back from storage must be reported as absent.
type CredentialStore interface {
	// Ready reports whether the store can be read. Session bootstrap
	// must not run before this returns true.
	Ready() bool

	// Load returns the persisted credentials. ok is false when no
	// complete pair is stored; storage errors degrade to ok=false
	// rather than propagating.
	Load() (creds types.Credentials, ok bool)

	// Save persists token and user atomically.
	Save(creds types.Credentials) error

	// Clear removes both values atomically. Clearing an empty store
	// is a no-op.
	Clear() error
}
