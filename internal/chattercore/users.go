package chattercore

import (
	"context"
	"fmt"

	"github.com/mmmorks/chatter/internal/docstore"
	"github.com/mmmorks/chatter/internal/model"
)

// UserInput holds the fields of a new user.
type UserInput struct {
	Name    string
	Surname string
	Email   string
	Avatar  string
}

// UserPatch holds optional replacements for a user's fields.
type UserPatch struct {
	Name    *string
	Surname *string
	Email   *string
	Avatar  *string
}

func (p UserPatch) fields() docstore.Fields {
	set := docstore.Fields{}
	setIfGiven(set, model.FieldName, p.Name)
	setIfGiven(set, model.FieldSurname, p.Surname)
	setIfGiven(set, model.FieldEmail, p.Email)
	setIfGiven(set, model.FieldAvatar, p.Avatar)
	return set
}

// GetUser returns the user with id, or nil if there is none.
func (c *Core) GetUser(ctx context.Context, id string) (*model.User, error) {
	return findOptional(ctx, c.users, docstore.ByID(id))
}

// CreateUser stores a new user under a generated id. The returned user is
// only produced once the store accepted it.
func (c *Core) CreateUser(ctx context.Context, in UserInput) (*model.User, error) {
	id, err := c.generateID()
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:      id,
		Name:    in.Name,
		Surname: in.Surname,
		Email:   in.Email,
		Avatar:  in.Avatar,
	}
	if _, err := c.users.Insert(ctx, u); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// UpdateUser replaces the fields given in p and keeps the rest. It returns
// ErrNotFound when no user has id.
func (c *Core) UpdateUser(ctx context.Context, id string, p UserPatch) (*model.User, error) {
	u, err := mergeUpdate(ctx, c.users, docstore.ByID(id), p.fields())
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return u, nil
}

// DeleteUser removes the user with id and returns it as it was, or nil if
// there was none.
func (c *Core) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	return deleteOptional(ctx, c.users, docstore.ByID(id))
}
