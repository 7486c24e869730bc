package chattercore

import (
	"context"
	"fmt"

	"github.com/mmmorks/chatter/internal/docstore"
	"github.com/mmmorks/chatter/internal/model"
)

// CommentInput holds the fields of a new comment. An empty ReplyTo makes a
// top-level comment.
type CommentInput struct {
	AuthorID string
	PostID   string
	Content  string
	ReplyTo  string
}

// GetComment returns the comment with id, or nil if there is none.
func (c *Core) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	return findOptional(ctx, c.comments, docstore.ByID(id))
}

// CreateComment stores a new comment. Its id is assigned by the store.
func (c *Core) CreateComment(ctx context.Context, in CommentInput) (*model.Comment, error) {
	cm := &model.Comment{
		AuthorID: in.AuthorID,
		PostID:   in.PostID,
		Content:  in.Content,
		ReplyTo:  in.ReplyTo,
	}
	if cm.ReplyTo == "" {
		cm.ReplyTo = model.NoParent
	}

	id, err := c.comments.Insert(ctx, cm)
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	cm.ID = id
	return cm, nil
}

// UpdateComment overwrites the content of the comment identified by id and
// authorID. Unlike users and posts there is no merge: an empty content is
// stored as given. It returns ErrNotFound when the pair matches nothing.
func (c *Core) UpdateComment(ctx context.Context, id, authorID, content string) (*model.Comment, error) {
	set := docstore.Fields{model.FieldContent: content}
	cm, err := mergeUpdate(ctx, c.comments, byAuthor(id, authorID), set)
	if err != nil {
		return nil, fmt.Errorf("comment %s by %s: %w", id, authorID, err)
	}
	return cm, nil
}

// DeleteComment removes the comment identified by id and authorID and
// returns it as it was, or nil if the pair matched nothing.
func (c *Core) DeleteComment(ctx context.Context, id, authorID string) (*model.Comment, error) {
	return deleteOptional(ctx, c.comments, byAuthor(id, authorID))
}
