package handlers

import (
	"net/http"

	"blog/models"
	"blog/websocket"

	"github.com/gin-gonic/gin"
)

// CreateComment appends a comment to an existing post. The returned _id is
// the id of the update operation; the comment itself is not addressable.
func (h *PostHandler) CreateComment(c *gin.Context) {
	var req models.CommentInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	postID := c.Param("id")
	comment := req.Comment()
	opID, err := h.repo.AddComment(ctx, postID, comment)
	if err != nil {
		h.fail(c, "CreateComment", err, notFoundDetail)
		return
	}

	resp := models.CommentResponse{ID: opID, Text: comment.Text, Author: comment.Author}
	h.publish(websocket.EventCommentAdded, gin.H{"postId": postID, "comment": resp})
	c.JSON(http.StatusOK, resp)
}
