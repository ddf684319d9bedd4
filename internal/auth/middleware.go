// Package auth enforces bearer-token authentication on API routes.
package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

// MiddlewareConfig controls auth enforcement behavior.
type MiddlewareConfig struct {
	// OnAuthenticated runs after a token verifies, before the handler.
	// Used to provision the caller's entitlement record.
	OnAuthenticated func(r *http.Request, claims *Claims) error
	DisableAuth     bool
}

// Middleware enforces bearer token auth and injects claims into the
// request context.
func Middleware(verifier *Verifier, cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.DisableAuth || AuthDisabled() {
				claims := &Claims{
					Subject: "local-dev",
					Issuer:  "local",
					Raw:     map[string]any{"sub": "local-dev"},
				}
				if cfg.OnAuthenticated != nil {
					if err := cfg.OnAuthenticated(r, claims); err != nil {
						log.Printf("auth hook failed: %v", err)
					}
				}
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
				return
			}

			if verifier == nil {
				respondUnauthorized(w, "auth verifier not configured")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("auth failure: missing Authorization header path=%s", r.URL.Path)
				respondUnauthorized(w, "missing authorization header")
				return
			}

			token, ok := extractBearerToken(authHeader)
			if !ok {
				log.Printf("auth failure: malformed Authorization header path=%s", r.URL.Path)
				respondUnauthorized(w, "invalid authorization header")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				log.Printf("auth failure: token invalid path=%s err=%v", r.URL.Path, err)
				respondUnauthorized(w, "invalid token")
				return
			}

			if cfg.OnAuthenticated != nil {
				if err := cfg.OnAuthenticated(r, claims); err != nil {
					log.Printf("auth hook failed for sub=%s: %v", claims.Subject, err)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// AuthDisabled reports whether auth should be skipped for local development.
func AuthDisabled() bool {
	return strings.EqualFold(os.Getenv("AUTH_DISABLED"), "true")
}
