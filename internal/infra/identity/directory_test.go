package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDirectoryResolvesDisplayName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/user-1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"user-1","name":"Alice"}`))
	}))
	defer server.Close()

	dir := NewDirectory(server.URL, time.Second)
	name, err := dir.DisplayName(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("display name: %v", err)
	}
	if name != "Alice" {
		t.Fatalf("expected Alice, got %q", name)
	}
}

func TestDirectoryErrorsOnUnknownUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	dir := NewDirectory(server.URL, time.Second)
	if _, err := dir.DisplayName(context.Background(), "nobody"); err == nil {
		t.Fatal("expected an error for an unknown user")
	}
}

func TestDirectoryErrorsOnEmptyName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"user-1","name":""}`))
	}))
	defer server.Close()

	dir := NewDirectory(server.URL, time.Second)
	if _, err := dir.DisplayName(context.Background(), "user-1"); err == nil {
		t.Fatal("expected an error for an empty name")
	}
}
