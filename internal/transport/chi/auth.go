package chi

import (
	"net/http"
	"strings"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// ingestRoutes change the catalogue and need a full key.
var ingestRoutes = map[string]struct{}{
	http.MethodPost + " /content": {},
	http.MethodPost + " /topics":  {},
}

type keyScope int

const (
	scopeNone keyScope = iota
	scopeRead
	scopeFull
)

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// apiKeys may call every route; readOnlyKeys may search and explain but
// are refused on ingest routes. If both are empty, authentication is
// disabled (pass-through).
func BearerAuthMiddleware(apiKeys, readOnlyKeys []string) func(http.Handler) http.Handler {
	scopes := make(map[string]keyScope, len(apiKeys)+len(readOnlyKeys))
	for _, k := range readOnlyKeys {
		if k != "" {
			scopes[k] = scopeRead
		}
	}
	for _, k := range apiKeys {
		if k != "" {
			scopes[k] = scopeFull
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled, pass everything through
		if len(scopes) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			switch scopes[auth[len(bearerPrefix):]] {
			case scopeNone:
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			case scopeRead:
				if _, ingest := ingestRoutes[r.Method+" "+r.URL.Path]; ingest {
					writeError(w, http.StatusForbidden, CodeForbidden, "read-only key cannot index content")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
