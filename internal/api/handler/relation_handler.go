package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quillfeed/quillfeed/pkg/middleware"
	"github.com/quillfeed/quillfeed/pkg/response"
)

type relationRequest struct {
	ToUserID string `json:"to_user_id" binding:"required"`
}

// Follow subscribes the authenticated user to another user. The followed
// user's history lands in the home feed asynchronously.
func (h *Handler) Follow(c *gin.Context) {
	var req relationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.Follow(c.Request.Context(), middleware.Viewer(c), req.ToUserID); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, nil)
}

// Unfollow removes the subscription and retracts the ex-followee's
// statuses from the home feed.
func (h *Handler) Unfollow(c *gin.Context) {
	var req relationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.Unfollow(c.Request.Context(), middleware.Viewer(c), req.ToUserID); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, nil)
}

// Block severs visibility in both directions across every feed.
func (h *Handler) Block(c *gin.Context) {
	var req relationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.Block(c.Request.Context(), middleware.Viewer(c), req.ToUserID); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, nil)
}

// Unblock restores visibility on the local and federated feeds.
func (h *Handler) Unblock(c *gin.Context) {
	var req relationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.Unblock(c.Request.Context(), middleware.Viewer(c), req.ToUserID); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, nil)
}

// ListFollowing pages through who the authenticated user follows.
func (h *Handler) ListFollowing(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowing(c.Request.Context(), middleware.Viewer(c), page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
