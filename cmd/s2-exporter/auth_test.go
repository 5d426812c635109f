package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerAuthenticate(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	tests := []struct {
		token, header, path string
		code                int
	}{
		{"", "", "/locations", 200},
		{"secret", "", "/locations", 403},
		{"secret", "secret", "/locations", 403},
		{"secret", "Bearer other", "/locations", 403},
		{"secret", "Bearer secret", "/locations", 200},
		{"secret", "Bearer secre", "/locations", 403},
		{"secret", "Bearer secret2", "/locations", 403},
		{"secret", "Bearer ", "/locations", 403},
		{"secret", "", "/metrics", 200},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", tt.path, nil)
		if tt.header != "" {
			req.Header.Set(AuthorizationHeader, tt.header)
		}
		BearerAuthenticate(tt.token, ok).ServeHTTP(rec, req)
		if rec.Code != tt.code {
			t.Errorf("token=%q header=%q path=%s: expected %d, got %d", tt.token, tt.header, tt.path, tt.code, rec.Code)
		}
	}
}
