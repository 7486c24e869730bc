package chattercore

import (
	"context"
	"fmt"

	"github.com/mmmorks/chatter/internal/docstore"
	"github.com/mmmorks/chatter/internal/model"
)

// PostInput holds the fields of a new post.
type PostInput struct {
	AuthorID string
	Title    string
	Content  string
}

// PostPatch holds optional replacements for a post's fields.
type PostPatch struct {
	Title   *string
	Content *string
}

func (p PostPatch) fields() docstore.Fields {
	set := docstore.Fields{}
	setIfGiven(set, model.FieldTitle, p.Title)
	setIfGiven(set, model.FieldContent, p.Content)
	return set
}

// byAuthor matches a document by id and author together. A wrong author
// matches nothing.
func byAuthor(id, authorID string) docstore.Filter {
	return docstore.ByID(id).And(model.FieldAuthorID, authorID)
}

// GetPost returns the post with id, or nil if there is none.
func (c *Core) GetPost(ctx context.Context, id string) (*model.Post, error) {
	return findOptional(ctx, c.posts, docstore.ByID(id))
}

// CreatePost stores a new post under a generated id. The author is not
// checked against existing users.
func (c *Core) CreatePost(ctx context.Context, in PostInput) (*model.Post, error) {
	id, err := c.generateID()
	if err != nil {
		return nil, err
	}

	p := &model.Post{
		ID:       id,
		AuthorID: in.AuthorID,
		Title:    in.Title,
		Content:  in.Content,
	}
	if _, err := c.posts.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return p, nil
}

// UpdatePost replaces the fields given in patch on the post identified by
// id and authorID together. It returns ErrNotFound when the pair matches
// no post.
func (c *Core) UpdatePost(ctx context.Context, id, authorID string, patch PostPatch) (*model.Post, error) {
	p, err := mergeUpdate(ctx, c.posts, byAuthor(id, authorID), patch.fields())
	if err != nil {
		return nil, fmt.Errorf("post %s by %s: %w", id, authorID, err)
	}
	return p, nil
}

// DeletePost removes the post identified by id and authorID and returns it
// as it was, or nil if the pair matched nothing.
func (c *Core) DeletePost(ctx context.Context, id, authorID string) (*model.Post, error) {
	return deleteOptional(ctx, c.posts, byAuthor(id, authorID))
}
