// Package auth verifies hosted-auth JWTs. The auth service signs access
// tokens either with a shared HMAC secret or with rotating RSA keys
// published at a JWKS endpoint; both paths are supported.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// Config selects the verification mode. HMACSecret wins when both are set.
type Config struct {
	Issuer     string
	Audience   string
	HMACSecret string
	JWKSURL    string
}

// Verifier validates JWT access tokens.
type Verifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewVerifier builds a verifier for the configured signing scheme.
func NewVerifier(cfg Config) (*Verifier, error) {
	var (
		kf      jwt.Keyfunc
		methods []string
	)

	switch {
	case cfg.HMACSecret != "":
		secret := []byte(cfg.HMACSecret)
		kf = func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		}
		methods = []string{jwt.SigningMethodHS256.Name}
	case cfg.JWKSURL != "" || cfg.Issuer != "":
		jwksURL := cfg.JWKSURL
		if jwksURL == "" {
			jwksURL = normalizeIssuer(cfg.Issuer) + ".well-known/jwks.json"
		}
		provider, err := keyfunc.NewDefault([]string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
		}
		kf = provider.Keyfunc
		methods = []string{
			jwt.SigningMethodRS256.Name,
			jwt.SigningMethodRS384.Name,
			jwt.SigningMethodRS512.Name,
			jwt.SigningMethodES256.Name,
		}
	default:
		return nil, errors.New("auth: either an HMAC secret or a JWKS source must be configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(defaultLeeway),
		jwt.WithValidMethods(methods),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(normalizeIssuer(cfg.Issuer)))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Verifier{
		keyfunc: kf,
		parser:  jwt.NewParser(opts...),
	}, nil
}

// Verify parses and validates a JWT, returning extracted claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := v.parser.Parse(tokenString, v.keyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	claims := &Claims{
		Subject:   readString(mapClaims, "sub"),
		Email:     readString(mapClaims, "email"),
		Issuer:    readString(mapClaims, "iss"),
		Audience:  readAudience(mapClaims["aud"]),
		ExpiresAt: readExpiry(mapClaims["exp"]),
		Raw:       mapClaims,
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing sub")
	}
	return claims, nil
}

func normalizeIssuer(issuer string) string {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return ""
	}
	if !strings.HasSuffix(issuer, "/") {
		issuer += "/"
	}
	return issuer
}

func readString(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}

func readAudience(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}

func readExpiry(raw any) time.Time {
	switch v := raw.(type) {
	case float64:
		return time.Unix(int64(v), 0)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return time.Unix(i, 0)
		}
	case int64:
		return time.Unix(v, 0)
	}
	return time.Time{}
}
