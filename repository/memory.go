package repository

import (
	"context"
	"fmt"
	"sync"

	"blog/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryPostRepository keeps posts in process memory, in insertion order.
// It mirrors the Mongo semantics closely enough to run the API without a
// database.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[primitive.ObjectID]*models.Post
	order []primitive.ObjectID
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[primitive.ObjectID]*models.Post),
	}
}

func (r *MemoryPostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if _, ok := r.posts[post.ID]; ok {
		return fmt.Errorf("create post %s: %w", post.ID.Hex(), ErrDuplicateID)
	}
	stored := clonePost(post)
	r.posts[post.ID] = stored
	r.order = append(r.order, post.ID)
	return nil
}

func (r *MemoryPostRepository) List(_ context.Context) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]models.Post, 0, len(r.order))
	for _, id := range r.order {
		posts = append(posts, *clonePost(r.posts[id]))
	}
	return posts, nil
}

func (r *MemoryPostRepository) Get(_ context.Context, id string) (*models.Post, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[oid]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePost(post), nil
}

func (r *MemoryPostRepository) Replace(_ context.Context, id string, post models.Post) (*models.Post, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[oid]
	if !ok {
		return nil, ErrNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.Author = post.Author
	return clonePost(stored), nil
}

func (r *MemoryPostRepository) Delete(_ context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[oid]; !ok {
		return ErrNotFound
	}
	delete(r.posts, oid)
	for i, existing := range r.order {
		if existing == oid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryPostRepository) AddComment(_ context.Context, id string, comment models.Comment) (string, error) {
	oid, err := ParseID(id)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[oid]
	if !ok {
		return "", ErrNotFound
	}
	stored.Comments = append(stored.Comments, comment)
	return primitive.NewObjectID().Hex(), nil
}

func (r *MemoryPostRepository) Like(_ context.Context, id string) error {
	return r.increment(id, func(p *models.Post) **int64 { return &p.Likes })
}

func (r *MemoryPostRepository) Dislike(_ context.Context, id string) error {
	return r.increment(id, func(p *models.Post) **int64 { return &p.Dislike })
}

func (r *MemoryPostRepository) increment(id string, counter func(*models.Post) **int64) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[oid]
	if !ok {
		return ErrNotFound
	}
	field := counter(stored)
	next := int64(1)
	if *field != nil {
		next = **field + 1
	}
	*field = &next
	return nil
}

func clonePost(p *models.Post) *models.Post {
	out := *p
	if p.Comments != nil {
		out.Comments = append([]models.Comment(nil), p.Comments...)
	}
	if p.Likes != nil {
		v := *p.Likes
		out.Likes = &v
	}
	if p.Dislike != nil {
		v := *p.Dislike
		out.Dislike = &v
	}
	return &out
}
