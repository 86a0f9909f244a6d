package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"blog/models"
	"blog/repository"
	"blog/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordedEvent struct {
	Type    string
	Payload any
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType, payload})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func setupApp(repo repository.PostRepository, events EventPublisher) *gin.Engine {
	h := NewPostHandler(repo, events, zap.NewNop(), time.Second)
	app := gin.New()
	posts := app.Group("/posts")
	posts.POST("/", h.CreatePost)
	posts.GET("/", h.ListPosts)
	posts.GET("/:id", h.GetPost)
	posts.PUT("/:id", h.UpdatePost)
	posts.DELETE("/:id", h.DeletePost)
	posts.POST("/:id/comments/", h.CreateComment)
	posts.POST("/:id/like/", h.LikePost)
	posts.POST("/:id/dislike/", h.DislikePost)
	return app
}

func doJSON(t *testing.T, app http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createPost(t *testing.T, app http.Handler, title, content, author string) string {
	t.Helper()
	w := doJSON(t, app, http.MethodPost, "/posts/", map[string]string{
		"title": title, "content": content, "author": author,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["_id"].(string)
}

func TestCreateThenGetPost(t *testing.T) {
	app := setupApp(repository.NewMemoryPostRepository(), nil)

	w := doJSON(t, app, http.MethodPost, "/posts/", `{"title":"A","content":"B","author":"C"}`)
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[map[string]any](t, w)
	id, _ := created["_id"].(string)
	assert.True(t, primitive.IsValidObjectID(id))
	assert.Equal(t, "A", created["title"])
	assert.Equal(t, "B", created["content"])
	assert.Equal(t, "C", created["author"])

	w = doJSON(t, app, http.MethodGet, "/posts/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, id, got["_id"])
	assert.Equal(t, "A", got["title"])
	assert.Equal(t, "B", got["content"])
	assert.Equal(t, "C", got["author"])
	assert.NotContains(t, got, "likes")
	assert.NotContains(t, got, "dislike")
	assert.NotContains(t, got, "comments")
}

func TestCreatePost_Validation(t *testing.T) {
	app := setupApp(repository.NewMemoryPostRepository(), nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty strings are accepted", `{"title":"","content":"","author":""}`, http.StatusOK},
		{"missing author", `{"title":"A","content":"B"}`, http.StatusUnprocessableEntity},
		{"wrong type", `{"title":1,"content":"B","author":"C"}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"title":`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, app, http.MethodPost, "/posts/", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want != http.StatusOK {
				assert.NotEmpty(t, decode[map[string]any](t, w)["detail"])
			}
		})
	}
}

func TestListPosts(t *testing.T) {
	app := setupApp(repository.NewMemoryPostRepository(), nil)

	w := doJSON(t, app, http.MethodGet, "/posts/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	ids := map[string]bool{}
	for _, title := range []string{"one", "two", "three"} {
		ids[createPost(t, app, title, "body", "me")] = true
	}

	w = doJSON(t, app, http.MethodGet, "/posts/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts := decode[[]models.Post](t, w)
	require.GreaterOrEqual(t, len(posts), 3)
	for _, p := range posts {
		delete(ids, p.ID.Hex())
	}
	assert.Empty(t, ids, "every created post is listed")
}

func TestMissingPostIs404(t *testing.T) {
	app := setupApp(repository.NewMemoryPostRepository(), nil)
	body := map[string]string{"title": "A", "content": "B", "author": "C"}

	for _, id := range []string{primitive.NewObjectID().Hex(), "not-a-valid-id"} {
		path := "/posts/" + id
		for _, tc := range []struct {
			method, path string
			body         any
			detail       string
		}{
			{http.MethodGet, path, nil, "Post not found"},
			{http.MethodPut, path, body, "Post not found"},
			{http.MethodDelete, path, nil, "Post not found"},
			{http.MethodPost, path + "/comments/", map[string]string{"text": "t", "author": "a"}, "Post not found"},
			{http.MethodPost, path + "/like/", nil, "Post not found"},
			{http.MethodPost, path + "/dislike/", nil, "post not found"},
		} {
			w := doJSON(t, app, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
			assert.JSONEq(t, `{"detail":"`+tc.detail+`"}`, w.Body.String())
		}
	}
}

func TestUpdatePost_FullReplace(t *testing.T) {
	app := setupApp(repository.NewMemoryPostRepository(), nil)
	id := createPost(t, app, "old title", "old content", "old author")

	w := doJSON(t, app, http.MethodPut, "/posts/"+id, map[string]string{
		"title": "new title", "content": "", "author": "new author",
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[map[string]any](t, w)
	assert.Equal(t, id, updated["_id"])
	assert.Equal(t, "new title", updated["title"])
	assert.Equal(t, "", updated["content"])
	assert.Equal(t, "new author", updated["author"])

	w = doJSON(t, app, http.MethodPut, "/posts/"+id, map[string]string{"title": "partial"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "partial updates are rejected")
}

func TestDeletePostTwice(t *testing.T) {
	app := setupApp(repository.NewMemoryPostRepository(), nil)
	id := createPost(t, app, "A", "B", "C")

	w := doJSON(t, app, http.MethodDelete, "/posts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doJSON(t, app, http.MethodDelete, "/posts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, app, http.MethodGet, "/posts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateComment(t *testing.T) {
	app := setupApp(repository.NewMemoryPostRepository(), nil)
	id := createPost(t, app, "A", "B", "C")

	w := doJSON(t, app, http.MethodPost, "/posts/"+id+"/comments/", map[string]string{"text": "first!", "author": "dan"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.CommentResponse](t, w)
	assert.NotEmpty(t, resp.ID)
	assert.NotEqual(t, id, resp.ID)
	assert.Equal(t, "first!", resp.Text)
	assert.Equal(t, "dan", resp.Author)

	doJSON(t, app, http.MethodPost, "/posts/"+id+"/comments/", map[string]string{"text": "second", "author": "eve"})

	post := decode[models.Post](t, doJSON(t, app, http.MethodGet, "/posts/"+id, nil))
	require.Len(t, post.Comments, 2)
	assert.Equal(t, models.Comment{Text: "second", Author: "eve"}, post.Comments[1])

	w = doJSON(t, app, http.MethodPost, "/posts/"+id+"/comments/", map[string]string{"text": "no author"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLikeAndDislikeCounters(t *testing.T) {
	app := setupApp(repository.NewMemoryPostRepository(), nil)
	id := createPost(t, app, "A", "B", "C")

	for i := 0; i < 3; i++ {
		w := doJSON(t, app, http.MethodPost, "/posts/"+id+"/like/", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Post liked successfully"}`, w.Body.String())
	}
	w := doJSON(t, app, http.MethodPost, "/posts/"+id+"/dislike/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Post disliked successfully"}`, w.Body.String())

	got := decode[map[string]any](t, doJSON(t, app, http.MethodGet, "/posts/"+id, nil))
	assert.EqualValues(t, 3, got["likes"])
	assert.EqualValues(t, 1, got["dislike"])
	assert.NotContains(t, got, "dislikes")
}

func TestWritesPublishEvents(t *testing.T) {
	events := &recorder{}
	app := setupApp(repository.NewMemoryPostRepository(), events)

	id := createPost(t, app, "A", "B", "C")
	doJSON(t, app, http.MethodPut, "/posts/"+id, map[string]string{"title": "A2", "content": "B", "author": "C"})
	doJSON(t, app, http.MethodPost, "/posts/"+id+"/comments/", map[string]string{"text": "t", "author": "a"})
	doJSON(t, app, http.MethodPost, "/posts/"+id+"/like/", nil)
	doJSON(t, app, http.MethodPost, "/posts/"+id+"/dislike/", nil)
	doJSON(t, app, http.MethodGet, "/posts/"+id, nil)
	doJSON(t, app, http.MethodDelete, "/posts/"+id, nil)
	doJSON(t, app, http.MethodDelete, "/posts/"+id, nil)

	assert.Equal(t, []string{
		websocket.EventPostCreated,
		websocket.EventPostUpdated,
		websocket.EventCommentAdded,
		websocket.EventPostLiked,
		websocket.EventPostDisliked,
		websocket.EventPostDeleted,
	}, events.types())
}

// brokenRepo fails every call the way an unreachable store would.
type brokenRepo struct{ repository.PostRepository }

var errUnreachable = errors.New("server selection timeout")

func (brokenRepo) Create(context.Context, *models.Post) error        { return errUnreachable }
func (brokenRepo) List(context.Context) ([]models.Post, error)        { return nil, errUnreachable }
func (brokenRepo) Get(context.Context, string) (*models.Post, error) { return nil, errUnreachable }
func (brokenRepo) Like(context.Context, string) error                { return errUnreachable }

func TestStoreFailuresAre500(t *testing.T) {
	app := setupApp(brokenRepo{}, nil)
	id := primitive.NewObjectID().Hex()

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/posts/", map[string]string{"title": "A", "content": "B", "author": "C"}},
		{http.MethodGet, "/posts/", nil},
		{http.MethodGet, "/posts/" + id, nil},
		{http.MethodPost, "/posts/" + id + "/like/", nil},
	} {
		w := doJSON(t, app, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, "%s %s", tc.method, tc.path)
		assert.JSONEq(t, `{"detail":"Internal Server Error"}`, w.Body.String())
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthEndpoints(t *testing.T) {
	app := gin.New()
	app.GET("/", Banner)
	app.GET("/health", Health)
	app.GET("/ready-ok", Ready(fakePinger{}, zap.NewNop()))
	app.GET("/ready-nil", Ready(nil, zap.NewNop()))
	app.GET("/ready-down", Ready(fakePinger{err: errUnreachable}, zap.NewNop()))

	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/", nil).Code)
	assert.Equal(t, "OK", doJSON(t, app, http.MethodGet, "/health", nil).Body.String())
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/ready-ok", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/ready-nil", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, app, http.MethodGet, "/ready-down", nil).Code)
}

func TestReadyHidesStoreError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	app := gin.New()
	app.GET("/ready", Ready(fakePinger{err: errUnreachable}, zap.New(core)))

	w := doJSON(t, app, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","detail":"store unreachable"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), errUnreachable.Error())

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, errUnreachable.Error(), logs.All()[0].ContextMap()["error"])
}
