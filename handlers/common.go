package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"blog/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	notFoundDetail      = "Post not found"
	internalErrorDetail = "Internal Server Error"
	defaultTimeout      = 10 * time.Second
)

// EventPublisher receives a notification after every successful write.
type EventPublisher interface {
	Publish(eventType string, payload any)
}

// PostHandler serves the /posts routes on top of a PostRepository.
type PostHandler struct {
	repo    repository.PostRepository
	events  EventPublisher
	log     *zap.Logger
	timeout time.Duration
}

// NewPostHandler wires the handler. events may be nil.
func NewPostHandler(repo repository.PostRepository, events EventPublisher, log *zap.Logger, timeout time.Duration) *PostHandler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PostHandler{repo: repo, events: events, log: log, timeout: timeout}
}

func (h *PostHandler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *PostHandler) publish(eventType string, payload any) {
	if h.events != nil {
		h.events.Publish(eventType, payload)
	}
}

// bindJSON decodes the body into req, answering 422 when a required field is
// missing or has the wrong JSON type.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return false
	}
	return true
}

// fail maps a repository error onto the response. Anything other than
// ErrNotFound is logged and reported as a 500.
func (h *PostHandler) fail(c *gin.Context, op string, err error, detail string) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": detail})
		return
	}

	h.log.Error(op+" failed", zap.Error(err), zap.String("id", c.Param("id")))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": internalErrorDetail})
}
