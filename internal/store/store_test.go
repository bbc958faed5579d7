package store

import (
	"path/filepath"
	"testing"

	"taskboard/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "credentials.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testCreds() types.Credentials {
	return types.Credentials{
		Token: "tok-1",
		User:  &types.User{ID: "u1", Name: "Alice", Email: "a@e.com", Role: types.RoleUser, Active: true},
	}
}

func TestOpen_IsReadySignal(t *testing.T) {
	s := openTestStore(t)
	if !s.Ready() {
		t.Error("Expected store ready after Open")
	}
}

func TestSaveAndLoad_Roundtrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(testCreds()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok := s.Load()
	if !ok {
		t.Fatal("Expected stored credentials")
	}
	if got.Token != "tok-1" {
		t.Errorf("Expected token tok-1, got %q", got.Token)
	}
	if got.User == nil || got.User.ID != "u1" || got.User.Role != types.RoleUser {
		t.Errorf("User record did not survive the roundtrip: %+v", got.User)
	}
}

func TestLoad_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Save(testCreds()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if _, ok := reopened.Load(); !ok {
		t.Error("Credentials must survive a process restart")
	}
}

func TestSave_RejectsPartialPair(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(types.Credentials{Token: "only-token"}); err != ErrIncompleteCredentials {
		t.Errorf("Expected ErrIncompleteCredentials, got %v", err)
	}
	if err := s.Save(types.Credentials{User: &types.User{ID: "u"}}); err != ErrIncompleteCredentials {
		t.Errorf("Expected ErrIncompleteCredentials, got %v", err)
	}
	if _, ok := s.Load(); ok {
		t.Error("Partial save must leave the store empty")
	}
}

func TestLoad_PartialRowTreatedAsAbsent(t *testing.T) {
	s := openTestStore(t)

	// Simulate a foreign writer leaving only one half of the pair.
	if _, err := s.db.Exec(`INSERT INTO credentials (key, value) VALUES ('token', 'orphan')`); err != nil {
		t.Fatalf("Failed to plant orphan token: %v", err)
	}
	if _, ok := s.Load(); ok {
		t.Error("A token without a user record must read as absent")
	}
}

func TestLoad_CorruptUserTreatedAsAbsent(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.db.Exec(`INSERT INTO credentials (key, value) VALUES ('token', 't'), ('user', '{not json')`); err != nil {
		t.Fatalf("Failed to plant corrupt row: %v", err)
	}
	if _, ok := s.Load(); ok {
		t.Error("A corrupt user record must read as absent, not crash")
	}
}

func TestClear_RemovesBothKeys(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(testCreds()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := s.Load(); ok {
		t.Error("Expected empty store after Clear")
	}

	// Clearing an empty store is a no-op, not an error.
	if err := s.Clear(); err != nil {
		t.Errorf("Second Clear failed: %v", err)
	}
}

func TestClosedStore_DegradesGracefully(t *testing.T) {
	s := openTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if s.Ready() {
		t.Error("Closed store must not report ready")
	}
	if _, ok := s.Load(); ok {
		t.Error("Closed store must report absent credentials")
	}
	if err := s.Save(testCreds()); err != ErrStoreClosed {
		t.Errorf("Expected ErrStoreClosed from Save, got %v", err)
	}
	if err := s.Clear(); err != ErrStoreClosed {
		t.Errorf("Expected ErrStoreClosed from Clear, got %v", err)
	}
}
