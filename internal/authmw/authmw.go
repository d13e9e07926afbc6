// Package authmw provides HTTP middleware for bearer token authentication of
// Warden's write endpoints.
package authmw

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const scheme = "bearer "

// BearerToken returns middleware that requires an Authorization header of the
// form "Bearer <token>". The scheme is matched case-insensitively; the token
// is compared in constant time.
func BearerToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if len(auth) < len(scheme) || !strings.EqualFold(auth[:len(scheme)], scheme) {
				unauthorized(w, "missing or malformed authorization header")
				return
			}

			if subtle.ConstantTimeCompare([]byte(auth[len(scheme):]), expected) != 1 {
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="warden"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
