package guard

import (
	"testing"

	"taskboard/internal/session"
	"taskboard/pkg/types"
)

func snap(state session.State, role types.Role) session.Snapshot {
	s := session.Snapshot{State: state}
	if state == session.StateAuthenticated {
		s.User = &types.User{ID: "u1", Role: role}
	}
	return s
}

func TestDecide_PolicyTable(t *testing.T) {
	tests := []struct {
		name     string
		snapshot session.Snapshot
		required types.Role
		wantKind DecisionKind
		wantPath string
	}{
		{
			name:     "bootstrapping waits instead of redirecting",
			snapshot: snap(session.StateBootstrapping, ""),
			required: types.RoleUser,
			wantKind: Wait,
		},
		{
			name:     "authenticating waits",
			snapshot: snap(session.StateAuthenticating, ""),
			required: types.RoleAdmin,
			wantKind: Wait,
		},
		{
			name:     "anonymous on user screen goes to user login",
			snapshot: snap(session.StateAnonymous, ""),
			required: types.RoleUser,
			wantKind: Redirect,
			wantPath: UserLogin,
		},
		{
			name:     "anonymous on admin screen goes to admin login",
			snapshot: snap(session.StateAnonymous, ""),
			required: types.RoleAdmin,
			wantKind: Redirect,
			wantPath: AdminLogin,
		},
		{
			name:     "user on admin screen goes home",
			snapshot: snap(session.StateAuthenticated, types.RoleUser),
			required: types.RoleAdmin,
			wantKind: Redirect,
			wantPath: UserDashboard,
		},
		{
			name:     "user on user screen renders",
			snapshot: snap(session.StateAuthenticated, types.RoleUser),
			required: types.RoleUser,
			wantKind: Render,
		},
		{
			name:     "admin on admin screen renders",
			snapshot: snap(session.StateAuthenticated, types.RoleAdmin),
			required: types.RoleAdmin,
			wantKind: Render,
		},
		{
			// Explicit policy: admins may view user-level screens.
			name:     "admin on user screen renders",
			snapshot: snap(session.StateAuthenticated, types.RoleAdmin),
			required: types.RoleUser,
			wantKind: Render,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.snapshot, tt.required)
			if d.Kind != tt.wantKind {
				t.Errorf("Expected kind %v, got %v", tt.wantKind, d.Kind)
			}
			if d.Path != tt.wantPath {
				t.Errorf("Expected path %q, got %q", tt.wantPath, d.Path)
			}
		})
	}
}

func TestHomeFor(t *testing.T) {
	if got := HomeFor(types.RoleAdmin); got != AdminDashboard {
		t.Errorf("Expected %s, got %s", AdminDashboard, got)
	}
	if got := HomeFor(types.RoleUser); got != UserDashboard {
		t.Errorf("Expected %s, got %s", UserDashboard, got)
	}
}
