// Package repository holds the storage side of the posts API: one interface
// and the implementations behind it.
package repository

import (
	"context"
	"errors"

	"blog/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when an operation matched or modified no document.
var ErrNotFound = errors.New("post not found")

// ErrDuplicateID is returned by Create when the post carries an id that is
// already stored.
var ErrDuplicateID = errors.New("post id already exists")

// PostRepository is the set of single-document operations the HTTP layer issues
// against the posts collection. Ids are the hex form of an ObjectID.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	// Replace overwrites title, content and author and returns the updated document.
	Replace(ctx context.Context, id string, post models.Post) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	// AddComment appends to the post's comments and returns the id of the
	// update operation.
	AddComment(ctx context.Context, id string, comment models.Comment) (string, error)
	Like(ctx context.Context, id string) error
	Dislike(ctx context.Context, id string) error
}

// ParseID decodes a path identifier. Anything that is not a valid ObjectID hex
// string cannot name a stored post, so it is reported as ErrNotFound.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}
