package main

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	// AuthorizationHeader is the header key to get the authorization token
	AuthorizationHeader = "authorization"
	tokenPrefix         = "Bearer "
)

// BearerAuthenticate rejects the requests that do not carry the token (if any).
// /metrics is not authenticated.
func BearerAuthenticate(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			if err := authenticate(token, r.Header.Get(AuthorizationHeader)); err != nil {
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(err.Error())
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate returns nil if no token is required or if the header carries the token
func authenticate(expected, header string) error {
	if expected == "" {
		return nil
	}
	if header == "" {
		return fmt.Errorf("token not found")
	}
	if !strings.HasPrefix(header, tokenPrefix) {
		return fmt.Errorf(`missing "` + tokenPrefix + `" prefix`)
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(header, tokenPrefix)), []byte(expected)) != 1 {
		return fmt.Errorf("invalid token")
	}
	return nil
}
