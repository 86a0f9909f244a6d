package handlers

import (
	"net/http"

	"blog/models"
	"blog/websocket"

	"github.com/gin-gonic/gin"
)

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.PostInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	post := req.Post()
	if err := h.repo.Create(ctx, &post); err != nil {
		h.fail(c, "CreatePost", err, notFoundDetail)
		return
	}

	created := models.CreatedPost{
		ID:      post.ID.Hex(),
		Title:   post.Title,
		Content: post.Content,
		Author:  post.Author,
	}
	h.publish(websocket.EventPostCreated, created)
	c.JSON(http.StatusOK, created)
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	posts, err := h.repo.List(ctx)
	if err != nil {
		h.fail(c, "ListPosts", err, notFoundDetail)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	post, err := h.repo.Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, "GetPost", err, notFoundDetail)
		return
	}
	c.JSON(http.StatusOK, post)
}

// UpdatePost overwrites title, content and author. It is a full replace of
// those three fields, never a merge.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req models.PostInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	updated, err := h.repo.Replace(ctx, c.Param("id"), req.Post())
	if err != nil {
		h.fail(c, "UpdatePost", err, notFoundDetail)
		return
	}

	h.publish(websocket.EventPostUpdated, updated)
	c.JSON(http.StatusOK, updated)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	id := c.Param("id")
	if err := h.repo.Delete(ctx, id); err != nil {
		h.fail(c, "DeletePost", err, notFoundDetail)
		return
	}

	h.publish(websocket.EventPostDeleted, gin.H{"_id": id})
	c.Status(http.StatusNoContent)
}
