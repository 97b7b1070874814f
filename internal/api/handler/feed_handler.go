package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quillfeed/quillfeed/pkg/middleware"
	"github.com/quillfeed/quillfeed/pkg/response"
)

// GetFeed reads a feed category newest-first. Reading resets the unread
// counter: fetching the feed is what marks it seen.
func (h *Handler) GetFeed(c *gin.Context) {
	st, ok := h.streams.Get(c.Param("key"))
	if !ok {
		response.NotFound(c, "unknown feed")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	ids, err := st.Feed(c.Request.Context(), middleware.Viewer(c), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"feed": st.Key(), "statuses": ids})
}

// GetUnread reports how many statuses arrived since the feed was last read.
func (h *Handler) GetUnread(c *gin.Context) {
	st, ok := h.streams.Get(c.Param("key"))
	if !ok {
		response.NotFound(c, "unknown feed")
		return
	}
	count, err := st.UnreadCount(c.Request.Context(), middleware.Viewer(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"feed": st.Key(), "unread": count})
}
