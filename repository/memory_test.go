package repository

import (
	"context"
	"sync"
	"testing"

	"blog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPost(title string) *models.Post {
	return &models.Post{Title: title, Content: "content of " + title, Author: "ann"}
}

func TestMemoryPostRepository_CreateThenGet(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	post := newPost("A")
	require.NoError(t, repo.Create(ctx, post))
	require.False(t, post.ID.IsZero())

	got, err := repo.Get(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "content of A", got.Content)
	assert.Equal(t, "ann", got.Author)
	assert.Nil(t, got.Comments)
	assert.Nil(t, got.Likes)
	assert.Nil(t, got.Dislike)
}

func TestMemoryPostRepository_ListKeepsInsertionOrder(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, newPost(title)))
	}

	posts, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "one", posts[0].Title)
	assert.Equal(t, "three", posts[2].Title)
}

func TestMemoryPostRepository_CreateRejectsExistingID(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	first := newPost("first")
	require.NoError(t, repo.Create(ctx, first))

	again := newPost("again")
	again.ID = first.ID
	assert.ErrorIs(t, repo.Create(ctx, again), ErrDuplicateID)

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "first", posts[0].Title)
}

func TestMemoryPostRepository_ReplaceKeepsCommentsAndCounters(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	post := newPost("old")
	require.NoError(t, repo.Create(ctx, post))
	id := post.ID.Hex()
	_, err := repo.AddComment(ctx, id, models.Comment{Text: "hi", Author: "bob"})
	require.NoError(t, err)
	require.NoError(t, repo.Like(ctx, id))

	updated, err := repo.Replace(ctx, id, models.Post{Title: "new", Content: "", Author: "carl"})
	require.NoError(t, err)
	assert.Equal(t, post.ID, updated.ID)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "", updated.Content)
	assert.Equal(t, "carl", updated.Author)
	assert.Len(t, updated.Comments, 1)
	require.NotNil(t, updated.Likes)
	assert.EqualValues(t, 1, *updated.Likes)
}

func TestMemoryPostRepository_NotFound(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	missing := primitive.NewObjectID().Hex()

	for _, id := range []string{missing, "not-an-object-id", ""} {
		_, err := repo.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)

		_, err = repo.Replace(ctx, id, *newPost("x"))
		assert.ErrorIs(t, err, ErrNotFound, id)

		assert.ErrorIs(t, repo.Delete(ctx, id), ErrNotFound, id)

		_, err = repo.AddComment(ctx, id, models.Comment{Text: "t", Author: "a"})
		assert.ErrorIs(t, err, ErrNotFound, id)

		assert.ErrorIs(t, repo.Like(ctx, id), ErrNotFound, id)
		assert.ErrorIs(t, repo.Dislike(ctx, id), ErrNotFound, id)
	}
}

func TestMemoryPostRepository_DeleteTwice(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	post := newPost("gone")
	require.NoError(t, repo.Create(ctx, post))

	require.NoError(t, repo.Delete(ctx, post.ID.Hex()))
	assert.ErrorIs(t, repo.Delete(ctx, post.ID.Hex()), ErrNotFound)

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestMemoryPostRepository_CountersAreSeparate(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	post := newPost("liked")
	require.NoError(t, repo.Create(ctx, post))
	id := post.ID.Hex()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Like(ctx, id))
	}
	require.NoError(t, repo.Dislike(ctx, id))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Likes)
	require.NotNil(t, got.Dislike)
	assert.EqualValues(t, 5, *got.Likes)
	assert.EqualValues(t, 1, *got.Dislike)
}

func TestMemoryPostRepository_AddCommentAppends(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	post := newPost("thread")
	require.NoError(t, repo.Create(ctx, post))
	id := post.ID.Hex()

	first, err := repo.AddComment(ctx, id, models.Comment{Text: "first", Author: "a"})
	require.NoError(t, err)
	second, err := repo.AddComment(ctx, id, models.Comment{Text: "second", Author: "b"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, id, first)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, models.Comment{Text: "second", Author: "b"}, got.Comments[1])
}

func TestMemoryPostRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	post := newPost("copy")
	require.NoError(t, repo.Create(ctx, post))
	post.Title = "mutated by caller"

	got, err := repo.Get(ctx, post.ID.Hex())
	require.NoError(t, err)
	got.Title = "mutated again"

	again, err := repo.Get(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "copy", again.Title)
}

func TestMemoryPostRepository_ConcurrentLikes(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	post := newPost("busy")
	require.NoError(t, repo.Create(ctx, post))
	id := post.ID.Hex()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Like(ctx, id)
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Likes)
	assert.EqualValues(t, 50, *got.Likes)
}
