package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/services"
)

const (
	userContextKey  = "user"
	tokenContextKey = "access_token"

	refreshCookieMaxAge = 3600 * 24 * 30
)

type Authenticator struct {
	validator    helpers.TokenValidator
	users        *services.UserService
	logger       *slog.Logger
	isProduction bool
}

func NewAuthenticator(validator helpers.TokenValidator, users *services.UserService, logger *slog.Logger, isProduction bool) *Authenticator {
	return &Authenticator{
		validator:    validator,
		users:        users,
		logger:       logger,
		isProduction: isProduction,
	}
}

// RequireAuth rejects requests without a valid Supabase session with 401. A
// valid session whose profile cannot be loaded gets 500.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := a.authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid session is present and lets
// anonymous requests through. If the profile store is down the request is
// served anonymously.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _ = a.authenticate(c)
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if token := helpers.BearerToken(c.GetHeader("Authorization")); token != "" {
		return token
	}
	token, _ := c.Cookie("access_token")
	return token
}

// authenticate reports whether the request carries a usable session. The
// error is set only when the session is valid but the caller's profile could
// not be read.
func (a *Authenticator) authenticate(c *gin.Context) (bool, error) {
	token := accessToken(c)
	if token == "" {
		return false, nil
	}

	claims, err := a.validator.ValidateToken(token)
	if err != nil {
		if !helpers.IsExpired(err) {
			return false, nil
		}
		token, claims = a.refresh(c)
		if claims == nil {
			return false, nil
		}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		a.logger.Warn("Invalid user ID in token", "user_id", claims.Subject, "error", err)
		return false, nil
	}

	profile, role, err := a.users.ResolveRole(c.Request.Context(), userID, claims.Email)
	if err != nil {
		a.logger.Error("Failed to load profile", "user_id", userID, "error", err)
		return false, err
	}

	enhanced := &helpers.EnhancedClaims{
		CustomClaims: claims,
		Role:         role,
		UserID:       userID.String(),
		Email:        claims.Email,
	}
	if profile != nil {
		enhanced.Fullname = profile.FullName
		enhanced.PhoneNumber = profile.Phone
		enhanced.AvatarURL = profile.AvatarURL
		enhanced.CreatedAt = profile.CreatedAt.Format(time.RFC3339)
	}

	c.Set(userContextKey, enhanced)
	c.Set(tokenContextKey, token)
	return true, nil
}

// refresh swaps an expired access token for a new session using the
// refresh_token cookie and reissues both cookies.
func (a *Authenticator) refresh(c *gin.Context) (string, *helpers.CustomClaims) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil || refreshToken == "" {
		return "", nil
	}

	session, err := a.users.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil || session == nil || session.AccessToken == "" {
		a.logger.Warn("Token refresh failed", "error", err)
		return "", nil
	}

	claims, err := a.validator.ValidateToken(session.AccessToken)
	if err != nil {
		a.logger.Warn("Refreshed token validation failed", "error", err)
		return "", nil
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", session.AccessToken, session.ExpiresIn, "/", "", a.isProduction, true)
	c.SetCookie("refresh_token", session.RefreshToken, refreshCookieMaxAge, "/", "", a.isProduction, true)
	a.logger.Info("Token refreshed", "user_id", claims.Subject, "expires_in", session.ExpiresIn)

	return session.AccessToken, claims
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !user.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*helpers.EnhancedClaims, bool) {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*helpers.EnhancedClaims)
	return user, ok && user != nil
}

// AccessToken returns the token the caller authenticated with, for
// row-level-security scoped Supabase calls.
func AccessToken(c *gin.Context) string {
	return c.GetString(tokenContextKey)
}
