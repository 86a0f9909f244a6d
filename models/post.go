package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Post is a blog entry as stored in the posts collection. Comments and the
// reaction counters are only present once something has been written to them.
type Post struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title    string             `bson:"title" json:"title"`
	Content  string             `bson:"content" json:"content"`
	Author   string             `bson:"author" json:"author"`
	Comments []Comment          `bson:"comments,omitempty" json:"comments,omitempty"`
	Likes    *int64             `bson:"likes,omitempty" json:"likes,omitempty"`
	Dislike  *int64             `bson:"dislike,omitempty" json:"dislike,omitempty"` // singular on purpose, matches stored documents
}

// PostInput is the request body for creating or replacing a post. Fields are
// pointers so that an empty string passes the required check while a missing
// field does not.
type PostInput struct {
	Title   *string `json:"title" binding:"required"`
	Content *string `json:"content" binding:"required"`
	Author  *string `json:"author" binding:"required"`
}

// Post converts the validated input into a document without an id.
func (in PostInput) Post() Post {
	return Post{
		Title:   deref(in.Title),
		Content: deref(in.Content),
		Author:  deref(in.Author),
	}
}

// CreatedPost is returned by the create endpoint.
type CreatedPost struct {
	ID      string `json:"_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
