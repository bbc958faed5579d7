package session

import (
	"context"
	"log"
	"sync"

	"taskboard/pkg/interfaces"
	"taskboard/pkg/types"
)

// State is the session lifecycle position.
type State string

const (
	// StateBootstrapping is the pre-initialize state. Route guards
	// wait rather than redirect while the session is here, so a
	// reload never flashes a login page before storage is read.
	StateBootstrapping  State = "bootstrapping"
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// Snapshot is an immutable view of the session handed to observers
// and guards. Capabilities are derived on demand, never stored, so
// they cannot diverge from the state they project.
type Snapshot struct {
	State  State
	User   *types.User
	Reason string
	Epoch  uint64
}

// IsAuthenticated reports whether a user is logged in.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}

// IsAdmin reports whether the logged-in user holds the admin role.
func (s Snapshot) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin()
}

// Result is the outcome of a login or register attempt. Transport and
// server failures are folded into Err so callers can render them
// inline; they never propagate past this boundary.
type Result struct {
	OK  bool
	Err string
}

// Controller owns the session. It is the single writer of the
// credential store and the single consumer of force-logout pushes.
type Controller struct {
	store   interfaces.CredentialStore
	auth    interfaces.AuthAPI
	channel interfaces.PushChannel

	mu          sync.Mutex
	state       State
	user        *types.User
	token       string
	reason      string
	epoch       uint64
	initialized bool
	observers   []func(Snapshot)
}

// NewController wires the controller to its collaborators and routes
// the channel's force-logout events back into it.
func NewController(store interfaces.CredentialStore, auth interfaces.AuthAPI, channel interfaces.PushChannel) *Controller {
	c := &Controller{
		store:   store,
		auth:    auth,
		channel: channel,
		state:   StateBootstrapping,
	}
	channel.OnForceLogout(c.HandleForceLogout)
	return c
}

// Initialize derives the starting state from the credential store.
// A stored pair is trusted without a server round-trip; the session
// stays valid until the first authenticated request is rejected.
// Runs exactly once per process and only after the store is ready.
func (c *Controller) Initialize() error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	if !c.store.Ready() {
		c.mu.Unlock()
		return ErrStoreNotReady
	}
	c.initialized = true

	creds, ok := c.store.Load()
	if !ok {
		c.state = StateAnonymous
		c.mu.Unlock()
		c.notify()
		return nil
	}

	c.state = StateAuthenticated
	c.user = creds.User
	c.token = creds.Token
	c.epoch++
	userID, token := creds.User.ID, creds.Token
	c.mu.Unlock()

	if err := c.channel.Bind(userID, token); err != nil {
		// Push channel failures are non-fatal: force-logout simply
		// cannot arrive until the channel reconnects.
		log.Printf("Push channel bind failed: user=%s err=%v", userID, err)
	}
	c.notify()
	return nil
}

// Login exchanges credentials with the auth API. On success the pair
// is persisted, the state becomes authenticated and the push channel
// is rebound to the new identity. On failure the state reverts to
// anonymous and the error is returned for inline display.
func (c *Controller) Login(ctx context.Context, email, password string) Result {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return Result{Err: ErrNotInitialized.Error()}
	}
	prev := c.state
	c.state = StateAuthenticating
	c.mu.Unlock()
	c.notify()

	creds, err := c.auth.Login(ctx, email, password)
	if err != nil {
		c.mu.Lock()
		c.state = StateAnonymous
		if prev == StateAuthenticated {
			// A failed re-login does not keep the old session alive:
			// the caller explicitly chose to replace it.
			c.clearLocked()
		}
		c.mu.Unlock()
		c.notify()
		return Result{Err: err.Error()}
	}

	if creds.User == nil || creds.User.Validate() != nil || creds.Token == "" {
		c.mu.Lock()
		c.state = StateAnonymous
		if prev == StateAuthenticated {
			c.clearLocked()
		}
		c.mu.Unlock()
		c.notify()
		return Result{Err: types.ErrUnauthorized.Error()}
	}

	if err := c.store.Save(creds); err != nil {
		log.Printf("Failed to persist credentials: %v", err)
		// The session still works for this process; it just will not
		// survive a restart.
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.user = creds.User
	c.token = creds.Token
	c.reason = ""
	c.epoch++
	userID, token := creds.User.ID, creds.Token
	c.mu.Unlock()

	if err := c.channel.Bind(userID, token); err != nil {
		log.Printf("Push channel bind failed: user=%s err=%v", userID, err)
	}
	c.notify()
	return Result{OK: true}
}

// Register creates an account. Registration is decoupled from login:
// no session is established and the caller logs in separately.
func (c *Controller) Register(ctx context.Context, reg types.Registration) Result {
	if err := reg.Validate(); err != nil {
		return Result{Err: err.Error()}
	}
	if err := c.auth.Register(ctx, reg); err != nil {
		return Result{Err: err.Error()}
	}
	return Result{OK: true}
}

// Logout tears the session down: channel closed (leave-room first),
// store cleared, state anonymous. Idempotent; a second call finds
// nothing to do. The optional reason is exposed on the snapshot for
// display.
func (c *Controller) Logout(reason string) {
	c.mu.Lock()
	if c.state != StateAuthenticated && c.state != StateAuthenticating {
		c.mu.Unlock()
		return
	}
	c.clearLocked()
	c.reason = reason
	c.mu.Unlock()

	c.channel.Close()
	c.notify()
}

// HandleForceLogout consumes a server-pushed invalidation. An event
// targeting a user other than the currently bound one is stale (a new
// login raced the push) and is dropped without side effects.
func (c *Controller) HandleForceLogout(ev types.ForceLogout) {
	c.mu.Lock()
	current := ""
	if c.user != nil {
		current = c.user.ID
	}
	c.mu.Unlock()

	if current == "" || current != ev.UserID {
		log.Printf("Dropping stale force-logout: target=%s current=%s", ev.UserID, current)
		return
	}
	c.Logout(ev.Message)
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, User: c.user, Reason: c.reason, Epoch: c.epoch}
}

// Epoch returns the identity generation counter. Consumers capture it
// before a network call and drop the result if it moved while they
// were suspended.
func (c *Controller) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Token returns the bearer token of the current session, or "".
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Subscribe registers an observer invoked with a snapshot after every
// state transition.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// clearLocked resets identity state. Caller holds c.mu.
func (c *Controller) clearLocked() {
	c.state = StateAnonymous
	c.user = nil
	c.token = ""
	c.reason = ""
	c.epoch++
	if err := c.store.Clear(); err != nil {
		log.Printf("Failed to clear credential store: %v", err)
	}
}

func (c *Controller) notify() {
	snap := c.Snapshot()
	c.mu.Lock()
	observers := make([]func(Snapshot), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}
