package models

// Comment is embedded in its parent post's comments array.
type Comment struct {
	Text   string `bson:"text" json:"text"`
	Author string `bson:"author" json:"author"`
}

type CommentInput struct {
	Text   *string `json:"text" binding:"required"`
	Author *string `json:"author" binding:"required"`
}

func (in CommentInput) Comment() Comment {
	return Comment{Text: deref(in.Text), Author: deref(in.Author)}
}

// CommentResponse echoes a stored comment. ID identifies the update operation
// that appended it, not the comment itself: comments have no identity of
// their own.
type CommentResponse struct {
	ID     string `json:"_id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}
