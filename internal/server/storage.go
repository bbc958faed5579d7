package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"taskboard/pkg/types"
)

// Storage is the dev server's sqlite persistence for users, tasks and
// issued tokens.
type Storage struct {
	db *sql.DB
}

// OpenStorage opens the database and creates the schema.
func OpenStorage(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		assigned_to TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS tokens (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id)
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *Storage) CreateUser(ctx context.Context, name, email, password string, role types.Role) (*types.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &types.User{
		ID:     uuid.New().String(),
		Name:   name,
		Email:  email,
		Role:   role,
		Active: true,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, active) VALUES (?, ?, ?, ?, ?, 1)`,
		user.ID, user.Name, user.Email, string(hash), string(user.Role))
	if err != nil {
		return nil, ErrEmailTaken
	}
	return user, nil
}

// Authenticate verifies credentials and issues a bearer token.
func (s *Storage) Authenticate(ctx context.Context, email, password string) (types.Credentials, error) {
	var (
		user types.User
		hash string
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, active FROM users WHERE email = ?`, email)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &hash, &user.Role, &user.Active); err != nil {
		return types.Credentials{}, ErrBadCredentials
	}
	if !user.Active {
		return types.Credentials{}, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return types.Credentials{}, ErrBadCredentials
	}

	token := uuid.New().String()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id) VALUES (?, ?)`, token, user.ID); err != nil {
		return types.Credentials{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return types.Credentials{Token: token, User: &user}, nil
}

// UserByToken resolves a bearer token to an active user.
func (s *Storage) UserByToken(ctx context.Context, token string) (*types.User, error) {
	var user types.User
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.email, u.role, u.active
		FROM tokens t JOIN users u ON u.id = t.user_id
		WHERE t.token = ?`, token)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.Active); err != nil {
		return nil, ErrBadCredentials
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	return &user, nil
}

// ListUsers returns every account.
func (s *Storage) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, role, active FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Active); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetUserActive flips an account's active flag. Deactivation also
// revokes the user's tokens so new requests fail immediately.
func (s *Storage) SetUserActive(ctx context.Context, id string, active bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin status update: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE users SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return ErrUserNotFound
	}
	if !active {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to revoke tokens: %w", err)
		}
	}
	return tx.Commit()
}

// ListTasks returns tasks in insertion order, optionally filtered to
// one assignee.
func (s *Storage) ListTasks(ctx context.Context, assignedTo string) ([]types.Task, error) {
	query := `SELECT id, title, description, status, assigned_to FROM tasks`
	args := []any{}
	if assignedTo != "" {
		query += ` WHERE assigned_to = ?`
		args = append(args, assignedTo)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []types.Task
	for rows.Next() {
		var t types.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.AssignedTo); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a task.
func (s *Storage) CreateTask(ctx context.Context, task types.Task) (types.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = types.StatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, status, assigned_to) VALUES (?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, string(task.Status), task.AssignedTo)
	if err != nil {
		return types.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// UpdateTask replaces mutable fields of one task.
func (s *Storage) UpdateTask(ctx context.Context, id string, task types.Task) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, assigned_to = ? WHERE id = ?`,
		task.Title, task.Description, string(task.Status), task.AssignedTo, id)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// BulkUpdateStatus applies one status to every listed task inside a
// single transaction. Any unknown id fails the whole batch; partial
// application never becomes visible.
func (s *Storage) BulkUpdateStatus(ctx context.Context, taskIDs []string, status types.Status) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bulk update: %w", err)
	}

	for _, id := range taskIDs {
		res, err := tx.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update task %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			_ = tx.Rollback()
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
	}
	return tx.Commit()
}

// Seed loads development fixtures when the database is empty: one
// admin, two users (password "password") and a dozen tasks.
func (s *Storage) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to inspect users table: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin, err := s.CreateUser(ctx, "Admin", "admin@taskboard.local", "password", types.RoleAdmin)
	if err != nil {
		return err
	}
	alice, err := s.CreateUser(ctx, "Alice", "alice@taskboard.local", "password", types.RoleUser)
	if err != nil {
		return err
	}
	bob, err := s.CreateUser(ctx, "Bob", "bob@taskboard.local", "password", types.RoleUser)
	if err != nil {
		return err
	}

	assignees := []string{alice.ID, bob.ID}
	for i := 1; i <= 12; i++ {
		_, err := s.CreateTask(ctx, types.Task{
			Title:       fmt.Sprintf("Task %d", i),
			Description: fmt.Sprintf("Seeded development task %d", i),
			Status:      types.StatusPending,
			AssignedTo:  assignees[i%2],
		})
		if err != nil {
			return err
		}
	}

	log.Printf("Seeded development data: admin=%s users=2 tasks=12", admin.Email)
	return nil
}
