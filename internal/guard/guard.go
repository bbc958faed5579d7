package guard

import (
	"taskboard/internal/session"
	"taskboard/pkg/types"
)

// DecisionKind is the outcome category of a guard evaluation.
type DecisionKind int

const (
	// Wait means the session has not finished bootstrapping; the
	// caller renders nothing and re-evaluates on the next snapshot.
	// Redirecting here would flash a login page on every reload
	// before persisted credentials are read.
	Wait DecisionKind = iota
	// Render means the protected screen may be shown.
	Render
	// Redirect means the caller must navigate to Decision.Path.
	Redirect
)

// Decision is the result of evaluating access to a protected screen.
// The guard only decides; navigation is the caller's effect.
type Decision struct {
	Kind DecisionKind
	Path string
}

// Route paths for the two role areas.
const (
	AdminLogin     = "/admin/login"
	UserLogin      = "/user/login"
	AdminDashboard = "/admin/dashboard"
	UserDashboard  = "/user/dashboard"
)

// LoginFor returns the role-specific login route.
func LoginFor(required types.Role) string {
	if required == types.RoleAdmin {
		return AdminLogin
	}
	return UserLogin
}

// HomeFor returns the post-login destination for a role.
func HomeFor(role types.Role) string {
	if role == types.RoleAdmin {
		return AdminDashboard
	}
	return UserDashboard
}

// Decide evaluates whether the session may view a screen requiring
// the given role. Policy: anonymous visitors go to the role-specific
// login; a user on an admin screen goes home; an admin may view
// user-level screens.
func Decide(snap session.Snapshot, required types.Role) Decision {
	switch snap.State {
	case session.StateBootstrapping, session.StateAuthenticating:
		return Decision{Kind: Wait}
	case session.StateAuthenticated:
	default:
		return Decision{Kind: Redirect, Path: LoginFor(required)}
	}

	if required == types.RoleAdmin && !snap.IsAdmin() {
		return Decision{Kind: Redirect, Path: HomeFor(types.RoleUser)}
	}
	return Decision{Kind: Render}
}
