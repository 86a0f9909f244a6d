// Package cache puts a Redis read-through layer in front of a post repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"blog/models"
	"blog/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	listKey    = "posts:list"
	itemPrefix = "posts:item:"
	genPrefix  = "posts:gen:"

	defaultTTL = time.Hour
)

// PostRepository caches Get and List results and drops the affected keys on
// every write. Redis failures are logged and never fail a request.
type PostRepository struct {
	next repository.PostRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  *zap.Logger
}

var _ repository.PostRepository = (*PostRepository)(nil)

func NewPostRepository(next repository.PostRepository, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *PostRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &PostRepository{next: next, rdb: rdb, ttl: ttl, log: log}
}

func itemKey(id string) string { return itemPrefix + id }

func genKey(key string) string { return genPrefix + key }

// fillScript stores ARGV[2] under KEYS[1] only while the generation in
// KEYS[2] still equals ARGV[1], so a read that raced a write never puts the
// pre-write snapshot back.
var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.next.Create(ctx, post); err != nil {
		return err
	}
	r.invalidate(ctx, listKey)
	return nil
}

func (r *PostRepository) List(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if r.getJSON(ctx, listKey, &posts) {
		return posts, nil
	}

	gen, ok := r.generation(ctx, listKey)
	posts, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		r.fill(ctx, listKey, gen, posts)
	}
	return posts, nil
}

func (r *PostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if r.getJSON(ctx, itemKey(id), &post) {
		return &post, nil
	}

	gen, ok := r.generation(ctx, itemKey(id))
	found, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		r.fill(ctx, itemKey(id), gen, found)
	}
	return found, nil
}

func (r *PostRepository) Replace(ctx context.Context, id string, post models.Post) (*models.Post, error) {
	updated, err := r.next.Replace(ctx, id, post)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, listKey, itemKey(id))
	return updated, nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, listKey, itemKey(id))
	return nil
}

func (r *PostRepository) AddComment(ctx context.Context, id string, comment models.Comment) (string, error) {
	opID, err := r.next.AddComment(ctx, id, comment)
	if err != nil {
		return "", err
	}
	r.invalidate(ctx, listKey, itemKey(id))
	return opID, nil
}

func (r *PostRepository) Like(ctx context.Context, id string) error {
	if err := r.next.Like(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, listKey, itemKey(id))
	return nil
}

func (r *PostRepository) Dislike(ctx context.Context, id string) error {
	if err := r.next.Dislike(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, listKey, itemKey(id))
	return nil
}

func (r *PostRepository) getJSON(ctx context.Context, key string, dest any) bool {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		r.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		r.log.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// generation reads the write counter for key. ok is false when Redis could
// not be read, in which case the result must not be cached.
func (r *PostRepository) generation(ctx context.Context, key string) (string, bool) {
	gen, err := r.rdb.Get(ctx, genKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		r.log.Warn("cache generation read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return gen, true
}

func (r *PostRepository) fill(ctx context.Context, key, gen string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	err = fillScript.Run(ctx, r.rdb, []string{key, genKey(key)}, gen, b, r.ttl.Milliseconds()).Err()
	if err != nil {
		r.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate bumps the generation of every key before dropping it. The
// generation outlives the entry so that in-flight fills can still see it.
func (r *PostRepository) invalidate(ctx context.Context, keys ...string) {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, genKey(key))
			pipe.PExpire(ctx, genKey(key), r.ttl+time.Minute)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		r.log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
