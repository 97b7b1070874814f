package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quillfeed/quillfeed/pkg/middleware"
	"github.com/quillfeed/quillfeed/pkg/response"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates a local account, kicks off feed population for it, and
// returns a bearer token.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.userService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	token, err := middleware.IssueToken(h.jwtSecret, user.ID, 24*time.Hour)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"id": user.ID, "username": user.Username, "token": token})
}
