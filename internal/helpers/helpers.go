package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
		Roles     []string `json:"roles,omitempty"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenValidator checks a Supabase access token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenStr string) (*CustomClaims, error)
}

// JWKSValidator verifies asymmetric Supabase tokens against the project's
// published key set. Keys are refreshed in the background.
type JWKSValidator struct {
	jwks *keyfunc.JWKS
}

func NewJWKSValidator(ctx context.Context, supabaseURL string, logger *slog.Logger) (*JWKSValidator, error) {
	if supabaseURL == "" {
		return nil, errors.New("SUPABASE_URL not set")
	}
	jwksURL := strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("JWKS refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return &JWKSValidator{jwks: jwks}, nil
}

func (v *JWKSValidator) ValidateToken(tokenStr string) (*CustomClaims, error) {
	return parseClaims(tokenStr, v.jwks.Keyfunc)
}

func (v *JWKSValidator) Close() {
	v.jwks.EndBackground()
}

// SecretValidator verifies HS256 tokens signed with the project's JWT secret.
type SecretValidator struct {
	secret []byte
}

func NewSecretValidator(secret string) *SecretValidator {
	return &SecretValidator{secret: []byte(secret)}
}

func (v *SecretValidator) ValidateToken(tokenStr string) (*CustomClaims, error) {
	return parseClaims(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
}

func parseClaims(tokenStr string, keyFunc jwt.Keyfunc, opts ...jwt.ParserOption) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired token, which is the only
// case where a cookie refresh is worth attempting.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
