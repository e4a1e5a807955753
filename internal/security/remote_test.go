package security_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rrens/collab-gateway/internal/security"
)

func TestRemoteVerifier_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("apikey") != "anon-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"user-42","email":"a@example.com"}`))
		case "Bearer empty":
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	verifier := security.NewRemoteVerifier(srv.URL+"/", "anon-key", time.Second)
	ctx := context.Background()

	userID, err := verifier.Verify(ctx, "good")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("user ID mismatch: got %v, want %v", userID, "user-42")
	}

	if _, err := verifier.Verify(ctx, "bad"); err == nil {
		t.Error("expected error for rejected token, got nil")
	}

	if _, err := verifier.Verify(ctx, "empty"); err == nil {
		t.Error("expected error for response without user, got nil")
	}
}

func TestRemoteVerifier_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	verifier := security.NewRemoteVerifier(url, "", 200*time.Millisecond)
	if _, err := verifier.Verify(context.Background(), "token"); err == nil {
		t.Error("expected error for unreachable provider, got nil")
	}
}
