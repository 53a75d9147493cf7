package client

import (
	"errors"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorClass
	}{
		{name: "rate limited", status: 429, want: ErrorClassRateLimit},
		{name: "unauthorized", status: 401, want: ErrorClassClient},
		{name: "not found", status: 404, want: ErrorClassClient},
		{name: "server error", status: 500, want: ErrorClassServer},
		{name: "bad gateway", status: 502, want: ErrorClassServer},
		{name: "unavailable", status: 503, want: ErrorClassServer},
		{name: "success is unclassified", status: 200, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.want {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name  string
		class ErrorClass
		want  bool
	}{
		{name: "client errors are fatal", class: ErrorClassClient, want: false},
		{name: "server errors retry", class: ErrorClassServer, want: true},
		{name: "rate limits retry", class: ErrorClassRateLimit, want: true},
		{name: "network errors retry", class: ErrorClassNetwork, want: true},
		{name: "unknown class does not retry", class: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.class); got != tt.want {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		StatusCode: 503,
		Class:      ErrorClassServer,
		Resource:   "cursus_users",
		Page:       4,
		Message:    "503 Service Unavailable",
	}

	want := "intra server error (status 503) on cursus_users page 4: 503 Service Unavailable"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &APIError{
		Class:   ErrorClassNetwork,
		Message: "request failed",
		Err:     inner,
	}

	if !errors.Is(err, inner) {
		t.Error("Expected errors.Is to find the wrapped error")
	}
}
