package graph

import (
	"context"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/mmmorks/chatter/internal/chattercore"
	"github.com/mmmorks/chatter/internal/model"
)

// Argument sets shared by several fields.
type (
	idArgs struct {
		ID *graphql.ID
	}
	ownedArgs struct {
		ID       *graphql.ID
		AuthorID *graphql.ID
	}
)

type userArgs struct {
	Name    *string
	Surname *string
	Email   *string
	Avatar  *string
}

type updateUserArgs struct {
	ID      *graphql.ID
	Name    *string
	Surname *string
	Email   *string
	Avatar  *string
}

type createPostArgs struct {
	AuthorID *graphql.ID
	Title    *string
	Content  *string
}

type updatePostArgs struct {
	ID       *graphql.ID
	AuthorID *graphql.ID
	Title    *string
	Content  *string
}

type createCommentArgs struct {
	AuthorID *graphql.ID
	PostID   *graphql.ID
	ReplyTo  *graphql.ID
	Content  *string
}

type updateCommentArgs struct {
	ID       *graphql.ID
	AuthorID *graphql.ID
	Content  *string
}

// RUser is the resolver for the rUser field.
func (r *Resolver) RUser(ctx context.Context, args idArgs) (*userResolver, error) {
	start := time.Now()
	u, err := r.Core.GetUser(ctx, id(args.ID))
	if err := r.finish(ctx, "rUser", start, u != nil, err); err != nil {
		return nil, err
	}
	return newUserResolver(u), nil
}

// RPost is the resolver for the rPost field.
func (r *Resolver) RPost(ctx context.Context, args idArgs) (*postResolver, error) {
	start := time.Now()
	p, err := r.Core.GetPost(ctx, id(args.ID))
	if err := r.finish(ctx, "rPost", start, p != nil, err); err != nil {
		return nil, err
	}
	return newPostResolver(p), nil
}

// RComment is the resolver for the rComment field.
func (r *Resolver) RComment(ctx context.Context, args idArgs) (*commentResolver, error) {
	start := time.Now()
	c, err := r.Core.GetComment(ctx, id(args.ID))
	if err := r.finish(ctx, "rComment", start, c != nil, err); err != nil {
		return nil, err
	}
	return newCommentResolver(c), nil
}

// CUser is the resolver for the cUser field.
func (r *Resolver) CUser(ctx context.Context, args userArgs) (*userResolver, error) {
	start := time.Now()
	u, err := r.Core.CreateUser(ctx, chattercore.UserInput{
		Name:    str(args.Name),
		Surname: str(args.Surname),
		Email:   str(args.Email),
		Avatar:  str(args.Avatar),
	})
	if err := r.finish(ctx, "cUser", start, true, err); err != nil {
		return nil, err
	}
	return newUserResolver(u), nil
}

// UUser is the resolver for the uUser field.
func (r *Resolver) UUser(ctx context.Context, args updateUserArgs) (*userResolver, error) {
	start := time.Now()
	u, err := r.Core.UpdateUser(ctx, id(args.ID), chattercore.UserPatch{
		Name:    args.Name,
		Surname: args.Surname,
		Email:   args.Email,
		Avatar:  args.Avatar,
	})
	if err := r.finish(ctx, "uUser", start, true, err); err != nil {
		return nil, err
	}
	return newUserResolver(u), nil
}

// DUser is the resolver for the dUser field.
func (r *Resolver) DUser(ctx context.Context, args idArgs) (*userResolver, error) {
	start := time.Now()
	u, err := r.Core.DeleteUser(ctx, id(args.ID))
	if err := r.finish(ctx, "dUser", start, u != nil, err); err != nil {
		return nil, err
	}
	return newUserResolver(u), nil
}

// CPost is the resolver for the cPost field.
func (r *Resolver) CPost(ctx context.Context, args createPostArgs) (*postResolver, error) {
	start := time.Now()
	p, err := r.Core.CreatePost(ctx, chattercore.PostInput{
		AuthorID: id(args.AuthorID),
		Title:    str(args.Title),
		Content:  str(args.Content),
	})
	if err := r.finish(ctx, "cPost", start, true, err); err != nil {
		return nil, err
	}
	return newPostResolver(p), nil
}

// UPost is the resolver for the uPost field.
func (r *Resolver) UPost(ctx context.Context, args updatePostArgs) (*postResolver, error) {
	start := time.Now()
	p, err := r.Core.UpdatePost(ctx, id(args.ID), id(args.AuthorID), chattercore.PostPatch{
		Title:   args.Title,
		Content: args.Content,
	})
	if err := r.finish(ctx, "uPost", start, true, err); err != nil {
		return nil, err
	}
	return newPostResolver(p), nil
}

// DPost is the resolver for the dPost field.
func (r *Resolver) DPost(ctx context.Context, args ownedArgs) (*postResolver, error) {
	start := time.Now()
	p, err := r.Core.DeletePost(ctx, id(args.ID), id(args.AuthorID))
	if err := r.finish(ctx, "dPost", start, p != nil, err); err != nil {
		return nil, err
	}
	return newPostResolver(p), nil
}

// CComment is the resolver for the cComment field.
func (r *Resolver) CComment(ctx context.Context, args createCommentArgs) (*commentResolver, error) {
	start := time.Now()
	c, err := r.Core.CreateComment(ctx, chattercore.CommentInput{
		AuthorID: id(args.AuthorID),
		PostID:   id(args.PostID),
		ReplyTo:  id(args.ReplyTo),
		Content:  str(args.Content),
	})
	if err := r.finish(ctx, "cComment", start, true, err); err != nil {
		return nil, err
	}
	return newCommentResolver(c), nil
}

// UComment is the resolver for the uComment field.
func (r *Resolver) UComment(ctx context.Context, args updateCommentArgs) (*commentResolver, error) {
	start := time.Now()
	c, err := r.Core.UpdateComment(ctx, id(args.ID), id(args.AuthorID), str(args.Content))
	if err := r.finish(ctx, "uComment", start, true, err); err != nil {
		return nil, err
	}
	return newCommentResolver(c), nil
}

// DComment is the resolver for the dComment field.
func (r *Resolver) DComment(ctx context.Context, args ownedArgs) (*commentResolver, error) {
	start := time.Now()
	c, err := r.Core.DeleteComment(ctx, id(args.ID), id(args.AuthorID))
	if err := r.finish(ctx, "dComment", start, c != nil, err); err != nil {
		return nil, err
	}
	return newCommentResolver(c), nil
}

type userResolver struct{ u *model.User }

func newUserResolver(u *model.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{u: u}
}

func (r *userResolver) ID() *graphql.ID  { return gqlID(r.u.ID) }
func (r *userResolver) Name() *string    { return &r.u.Name }
func (r *userResolver) Surname() *string { return &r.u.Surname }
func (r *userResolver) Email() *string   { return &r.u.Email }
func (r *userResolver) Avatar() *string  { return optional(r.u.Avatar) }

type postResolver struct{ p *model.Post }

func newPostResolver(p *model.Post) *postResolver {
	if p == nil {
		return nil
	}
	return &postResolver{p: p}
}

func (r *postResolver) ID() *graphql.ID       { return gqlID(r.p.ID) }
func (r *postResolver) AuthorID() *graphql.ID { return gqlID(r.p.AuthorID) }
func (r *postResolver) Title() *string        { return &r.p.Title }
func (r *postResolver) Content() *string      { return &r.p.Content }
func (r *postResolver) Published() *string    { return optional(r.p.Published) }

type commentResolver struct{ c *model.Comment }

func newCommentResolver(c *model.Comment) *commentResolver {
	if c == nil {
		return nil
	}
	return &commentResolver{c: c}
}

func (r *commentResolver) ID() *graphql.ID       { return gqlID(r.c.ID) }
func (r *commentResolver) AuthorID() *graphql.ID { return gqlID(r.c.AuthorID) }
func (r *commentResolver) PostID() *graphql.ID   { return gqlID(r.c.PostID) }
func (r *commentResolver) ReplyTo() *graphql.ID  { return gqlID(r.c.ReplyTo) }
func (r *commentResolver) Content() *string      { return &r.c.Content }
func (r *commentResolver) Published() *string    { return optional(r.c.Published) }

func id(v *graphql.ID) string {
	if v == nil {
		return ""
	}
	return string(*v)
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func gqlID(s string) *graphql.ID {
	v := graphql.ID(s)
	return &v
}

// optional maps an unset field to null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
