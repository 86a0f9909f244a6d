package repository

import (
	"context"
	"errors"
	"fmt"

	"blog/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	likesField   = "likes"
	dislikeField = "dislike"
)

// MongoPostRepository stores posts as documents in a single collection.
type MongoPostRepository struct {
	coll *mongo.Collection
}

func NewMongoPostRepository(coll *mongo.Collection) *MongoPostRepository {
	return &MongoPostRepository{coll: coll}
}

func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	res, err := r.coll.InsertOne(ctx, post)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert post: %w", ErrDuplicateID)
	}
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert post: unexpected id type %T", res.InsertedID)
	}
	post.ID = oid
	return nil
}

func (r *MongoPostRepository) List(ctx context.Context) ([]models.Post, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (r *MongoPostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post %s: %w", id, err)
	}
	return &post, nil
}

func (r *MongoPostRepository) Replace(ctx context.Context, id string, post models.Post) (*models.Post, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"title":   post.Title,
		"content": post.Content,
		"author":  post.Author,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Post
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post %s: %w", id, err)
	}
	return &updated, nil
}

func (r *MongoPostRepository) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) AddComment(ctx context.Context, id string, comment models.Comment) (string, error) {
	oid, err := ParseID(id)
	if err != nil {
		return "", err
	}

	// Existence check first, then a single $push.
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find post %s: %w", id, err)
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"comments": comment}})
	if err != nil {
		return "", fmt.Errorf("push comment to %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return "", ErrNotFound
	}
	return primitive.NewObjectID().Hex(), nil
}

func (r *MongoPostRepository) Like(ctx context.Context, id string) error {
	return r.increment(ctx, id, likesField)
}

func (r *MongoPostRepository) Dislike(ctx context.Context, id string) error {
	return r.increment(ctx, id, dislikeField)
}

func (r *MongoPostRepository) increment(ctx context.Context, id, field string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return fmt.Errorf("increment %s on %s: %w", field, id, err)
	}
	if result.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}
