package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/services"
)

const refreshCookieMaxAge = 3600 * 24 * 30

// RefreshSession exchanges the refresh_token cookie for a new Supabase session
// and reissues both auth cookies.
func RefreshSession(u *services.UserService, isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, err := c.Cookie("refresh_token")
		if err != nil || refreshToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		session, err := u.RefreshToken(c.Request.Context(), refreshToken)
		if err != nil || session == nil || session.AccessToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie("access_token", session.AccessToken, session.ExpiresIn, "/", "", isProduction, true)
		c.SetCookie("refresh_token", session.RefreshToken, refreshCookieMaxAge, "/", "", isProduction, true)

		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"expires_in": session.ExpiresIn}, "Session refreshed"))
	}
}

// Logout handler
func Logout(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("access_token", "", -1, "/", "", isProduction, true)
		c.SetCookie("refresh_token", "", -1, "/", "", isProduction, true)

		c.JSON(http.StatusOK, gin.H{
			"message": "Logged out successfully",
		})
	}
}

func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
