package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"taskboard/pkg/types"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// Store is the sqlite-backed credential store. It survives process
// restarts, which is what lets a session resume without a server
// round-trip. The session controller is the only writer.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	open bool
}

// Open opens (creating if necessary) the credential database at path.
// Returning without error is the storage-ready signal: session
// bootstrap must not run before Open succeeds.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create credentials table: %w", err)
	}

	return &Store{db: db, open: true}, nil
}

// Ready reports whether the store has been opened and not yet closed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// Load reads the persisted credential pair. A missing or partial pair,
// or a row that no longer parses, is reported as absent rather than as
// an error so the session can fall back to anonymous.
func (s *Store) Load() (types.Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return types.Credentials{}, false
	}

	token, err := s.get(keyToken)
	if err != nil {
		return types.Credentials{}, false
	}
	rawUser, err := s.get(keyUser)
	if err != nil {
		return types.Credentials{}, false
	}

	var user types.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		log.Printf("Credential store holds unparseable user record, treating as absent: %v", err)
		return types.Credentials{}, false
	}

	creds := types.Credentials{Token: token, User: &user}
	if !creds.Valid() {
		return types.Credentials{}, false
	}
	return creds, true
}

// Save writes token and user in one transaction. The pair invariant
// (both present or both absent) holds even across a crash mid-save.
func (s *Store) Save(creds types.Credentials) error {
	if !creds.Valid() {
		return ErrIncompleteCredentials
	}

	rawUser, err := json.Marshal(creds.User)
	if err != nil {
		return fmt.Errorf("failed to serialize user record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin credential save: %w", err)
	}

	upsert := `INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.Exec(upsert, keyToken, creds.Token); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to save token: %w", err)
	}
	if _, err := tx.Exec(upsert, keyUser, string(rawUser)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to save user record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credential save: %w", err)
	}
	return nil
}

// Clear removes both keys in one transaction. Clearing an already
// empty store succeeds.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin credential clear: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM credentials WHERE key IN (?, ?)`, keyToken, keyUser); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credential clear: %w", err)
	}
	return nil
}

// Close releases the database handle. Load on a closed store reports
// absent credentials.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.open = false
	return s.db.Close()
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}
