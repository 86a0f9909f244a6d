package handlers

import (
	"net/http"

	"blog/websocket"

	"github.com/gin-gonic/gin"
)

func (h *PostHandler) LikePost(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	id := c.Param("id")
	if err := h.repo.Like(ctx, id); err != nil {
		h.fail(c, "LikePost", err, notFoundDetail)
		return
	}

	h.publish(websocket.EventPostLiked, gin.H{"_id": id})
	c.JSON(http.StatusOK, gin.H{"message": "Post liked successfully"})
}

func (h *PostHandler) DislikePost(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	id := c.Param("id")
	if err := h.repo.Dislike(ctx, id); err != nil {
		// lower-case detail is what existing clients of this route receive
		h.fail(c, "DislikePost", err, "post not found")
		return
	}

	h.publish(websocket.EventPostDisliked, gin.H{"_id": id})
	c.JSON(http.StatusOK, gin.H{"message": "Post disliked successfully"})
}
