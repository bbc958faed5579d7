package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskboard/pkg/types"
)

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@b.com" {
			t.Errorf("Unexpected email: %q", body["email"])
		}
		_ = json.NewEncoder(w).Encode(types.Credentials{
			Token: "tok",
			User:  &types.User{ID: "1", Role: types.RoleUser},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	creds, err := c.Login(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if creds.Token != "tok" || creds.User.ID != "1" {
		t.Errorf("Unexpected credentials: %+v", creds)
	}
}

func TestLogin_UnauthorizedMapsToTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid email or password"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Login(context.Background(), "a@b.com", "bad")
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestBearerToken_SentWhenPresent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"tasks": []types.Task{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, func() string { return "tok-123" })
	if _, err := c.ListTasks(context.Background(), ""); err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if got != "Bearer tok-123" {
		t.Errorf("Expected bearer header, got %q", got)
	}
}

func TestListTasks_AssigneeFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("assignedTo"); got != "u7" {
			t.Errorf("Expected assignedTo=u7, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tasks": []types.Task{{ID: "1"}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	tasks, err := c.ListTasks(context.Background(), "u7")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("Expected 1 task, got %d", len(tasks))
	}
}

func TestBulkUpdateStatus_PayloadShape(t *testing.T) {
	var body struct {
		TaskIDs    []string `json:"taskIds"`
		UpdateData struct {
			Status string `json:"status"`
		} `json:"updateData"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks/bulk-update" || r.Method != http.MethodPut {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if err := c.BulkUpdateStatus(context.Background(), []string{"1", "2", "3"}, types.StatusCompleted); err != nil {
		t.Fatalf("BulkUpdateStatus failed: %v", err)
	}
	if len(body.TaskIDs) != 3 || body.UpdateData.Status != "completed" {
		t.Errorf("Unexpected batch payload: %+v", body)
	}
}

func TestServerErrorEnvelope_Surfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "task not found: 9"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	err := c.BulkUpdateStatus(context.Background(), []string{"9"}, types.StatusCompleted)
	if err == nil {
		t.Fatal("Expected error")
	}
	if got := err.Error(); got != "server error (400): task not found: 9" {
		t.Errorf("Unexpected error text: %q", got)
	}
}
