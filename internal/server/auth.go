package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"underwriting-lab/internal/domain"
)

type actorKey struct{}

// anonymous is the caller when the server runs without API keys. It may
// promote unblocked candidates but never override the guardrails.
var anonymous = domain.Actor{ID: "anonymous", Role: "member"}

// hashKeys indexes actors by the SHA256 of their API key.
func hashKeys(keys map[string]domain.Actor) map[string]domain.Actor {
	out := make(map[string]domain.Actor, len(keys))
	for k, actor := range keys {
		out[hashKey(k)] = actor
	}
	return out
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// requestKey reads the API key from X-API-Key or an Authorization bearer token.
func requestKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}

// authenticate puts the caller's identity in the request context. Once any
// key is configured every request needs a known key; a key sent to a server
// without keys is rejected too.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := anonymous
		key := requestKey(r)
		if key != "" || len(s.keys) > 0 {
			known, ok := s.keys[hashKey(key)]
			if key == "" || !ok {
				s.writeError(w, http.StatusUnauthorized, "missing or unknown API key")
				return
			}
			actor = known
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

// actorFrom returns the authenticated caller.
func actorFrom(ctx context.Context) domain.Actor {
	if a, ok := ctx.Value(actorKey{}).(domain.Actor); ok {
		return a
	}
	return anonymous
}
