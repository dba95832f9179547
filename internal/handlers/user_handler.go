package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/services"
)

// GetProfile returns the stored profile together with the effective role.
// A caller without a profile row still gets their identity from the token.
func GetProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, userID, ok := requireUser(c)
		if !ok {
			return
		}

		profile, err := u.GetProfile(c.Request.Context(), userID)
		if err != nil && !errors.Is(err, models.ErrProfileNotFound) {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"id":      user.UserID,
			"email":   user.Email,
			"role":    user.GetSafeRole(),
			"profile": profile,
		}, ""))
	}
}

func RequestRole(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req struct {
			Role   models.Role `json:"role" binding:"required"`
			Reason string      `json:"reason" binding:"max=500"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		request, err := u.RequestRole(c.Request.Context(), userID, user.GetSafeRole(), req.Role, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(request, "Role request submitted for review"))
	}
}

func ListRoleRequests(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.RoleRequestStatus(c.DefaultQuery("status", string(models.RoleRequestPending)))
		if c.Query("status") == "all" {
			status = ""
		}

		requests, err := u.ListRoleRequests(c.Request.Context(), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(requests, ""))
	}
}

func ReviewRoleRequest(u *services.UserService, approve bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, userID, ok := requireUser(c)
		if !ok {
			return
		}
		requestID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		reviewed, err := u.ReviewRoleRequest(c.Request.Context(), userID, user.GetSafeRole(), requestID, approve)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(reviewed, "Role request "+string(reviewed.Status)))
	}
}

func SetUserRole(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, userID, ok := requireUser(c)
		if !ok {
			return
		}
		targetID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		var req struct {
			Role models.Role `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		profile, err := u.SetUserRole(c.Request.Context(), userID, user.GetSafeRole(), targetID, req.Role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(profile, "Role updated"))
	}
}
