package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/quillfeed/quillfeed/internal/service"
	"github.com/quillfeed/quillfeed/pkg/middleware"
	"github.com/quillfeed/quillfeed/pkg/response"
)

type publishRequest struct {
	Payload  string   `json:"payload"`
	Privacy  string   `json:"privacy"`
	Mentions []string `json:"mentions"`
}

// PublishStatus creates a status authored by the authenticated user and
// fans it out asynchronously.
func (h *Handler) PublishStatus(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	status, err := h.statusService.Publish(c.Request.Context(), service.PublishInput{
		AuthorID:       middleware.Viewer(c),
		Payload:        req.Payload,
		Privacy:        req.Privacy,
		MentionUserIDs: req.Mentions,
	})
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, gin.H{"id": status.ID, "published_at": status.PublishedAt})
}

type boostRequest struct {
	Privacy string `json:"privacy"`
}

// BoostStatus reshares a status. Earlier boosts of the same original and
// the original itself are retracted so feeds carry one entry per status.
func (h *Handler) BoostStatus(c *gin.Context) {
	var req boostRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	status, err := h.statusService.Publish(c.Request.Context(), service.PublishInput{
		AuthorID:  middleware.Viewer(c),
		Privacy:   req.Privacy,
		BoostOfID: c.Param("id"),
	})
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, gin.H{"id": status.ID, "boost_of_id": status.BoostOfID})
}

// DeleteStatus soft-deletes a status and retracts it from every feed.
func (h *Handler) DeleteStatus(c *gin.Context) {
	if err := h.statusService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
