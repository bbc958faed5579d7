package interfaces

import (
	"context"

	"taskboard/pkg/types"
)

// AuthAPI is the credential-exchange surface of the backend.
type AuthAPI interface {
	// Login exchanges email and password for a token and user record.
	Login(ctx context.Context, email, password string) (types.Credentials, error)

	// Register creates an account. It does not establish a session;
	// callers log in separately afterwards.
	Register(ctx context.Context, reg types.Registration) error
}

// TaskAPI is the task CRUD surface of the backend.
type TaskAPI interface {
	// ListTasks returns tasks in server order. assignedTo filters to
	// one assignee when non-empty.
	ListTasks(ctx context.Context, assignedTo string) ([]types.Task, error)

	// UpdateTask replaces mutable fields of a single task.
	UpdateTask(ctx context.Context, id string, task types.Task) error

	// BulkUpdateStatus applies one status to every listed task as a
	// single batch. Partial application is reported as failure of the
	// whole batch.
	BulkUpdateStatus(ctx context.Context, taskIDs []string, status types.Status) error
}

// UserAPI is the admin-facing account surface of the backend.
type UserAPI interface {
	ListUsers(ctx context.Context) ([]types.User, error)

	// SetUserStatus activates or deactivates an account. Deactivation
	// triggers a force-logout push to that user's live connection.
	SetUserStatus(ctx context.Context, id string, active bool) error
}
