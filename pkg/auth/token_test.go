package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestToken_Success(t *testing.T) {
	var gotForm map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q, want form encoding", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		gotForm = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"client_id":     r.PostForm.Get("client_id"),
			"client_secret": r.PostForm.Get("client_secret"),
			"scope":         r.PostForm.Get("scope"),
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "abc123", "token_type": "bearer", "expires_in": 7200}`))
	}))
	defer server.Close()

	source := NewTokenSource(server.URL, Credentials{
		ClientID:     "my-uid",
		ClientSecret: "my-secret",
		Scope:        "public",
	})

	token, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "abc123" {
		t.Errorf("Token() = %q, want %q", token, "abc123")
	}

	if gotForm["grant_type"] != "client_credentials" {
		t.Errorf("grant_type = %q, want client_credentials", gotForm["grant_type"])
	}
	if gotForm["client_id"] != "my-uid" || gotForm["client_secret"] != "my-secret" {
		t.Errorf("Credentials not forwarded: %+v", gotForm)
	}
	if gotForm["scope"] != "public" {
		t.Errorf("scope = %q, want public", gotForm["scope"])
	}
}

func TestToken_OmitsEmptyScope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if _, present := r.PostForm["scope"]; present {
			t.Error("Empty scope must not be sent")
		}
		w.Write([]byte(`{"access_token": "tok"}`))
	}))
	defer server.Close()

	source := NewTokenSource(server.URL, Credentials{ClientID: "uid", ClientSecret: "secret"})
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
}

func TestToken_RejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid_client"}`))
	}))
	defer server.Close()

	source := NewTokenSource(server.URL, Credentials{ClientID: "uid", ClientSecret: "wrong"})

	_, err := source.Token(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Token() error = %v, want ErrAuth", err)
	}
}

func TestToken_MissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type": "bearer"}`))
	}))
	defer server.Close()

	source := NewTokenSource(server.URL, Credentials{ClientID: "uid", ClientSecret: "secret"})

	_, err := source.Token(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Token() error = %v, want ErrAuth", err)
	}
}

func TestToken_ServerUnreachable(t *testing.T) {
	source := NewTokenSource("http://127.0.0.1:1/oauth/token", Credentials{ClientID: "uid", ClientSecret: "secret"})

	_, err := source.Token(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Token() error = %v, want ErrAuth", err)
	}
}
