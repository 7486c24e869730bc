// Package chattercore implements user, post and comment operations on top
// of a document store.
//
// Operations are independent of each other: there are no cross-entity
// transactions and no referential checks. Each update or delete is a single
// atomic store call, so a concurrent update and delete of the same record
// either both apply in some order or the update reports ErrNotFound.
package chattercore

import (
	"context"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/mmmorks/chatter/internal/docstore"
	"github.com/mmmorks/chatter/internal/model"
)

// idAlphabet is used for generated user and post identifiers.
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultIDLength is the generated identifier length when none is configured.
const DefaultIDLength = 12

var (
	ErrNotFound = errors.New("not found")
)

// Core provides entity operations backed by a docstore.Store.
type Core struct {
	store docstore.Store
	newID func() (string, error)

	users    *docstore.Collection[model.User]
	posts    *docstore.Collection[model.Post]
	comments *docstore.Collection[model.Comment]
}

// New creates a Core on top of store. idLength sets the length of generated
// user and post identifiers; zero means DefaultIDLength.
func New(store docstore.Store, idLength int) *Core {
	if idLength <= 0 {
		idLength = DefaultIDLength
	}
	return &Core{
		store: store,
		newID: func() (string, error) {
			return gonanoid.Generate(idAlphabet, idLength)
		},
		users:    docstore.NewCollection[model.User](store, model.UsersCollection),
		posts:    docstore.NewCollection[model.Post](store, model.PostsCollection),
		comments: docstore.NewCollection[model.Comment](store, model.CommentsCollection),
	}
}

// Store returns the underlying document store.
func (c *Core) Store() docstore.Store {
	return c.store
}

// Ping reports whether the store is reachable.
func (c *Core) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close releases the store.
func (c *Core) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}

// generateID returns a fresh identifier for a user or post. Collisions are
// left to the store's primary key, which rejects the insert.
func (c *Core) generateID() (string, error) {
	id, err := c.newID()
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return id, nil
}

// findOptional maps ErrNotFound to a nil result.
func findOptional[T any](ctx context.Context, coll *docstore.Collection[T], filter docstore.Filter) (*T, error) {
	doc, err := coll.FindOne(ctx, filter)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", coll.Name(), err)
	}
	return doc, nil
}

// deleteOptional removes the matching document and returns its snapshot, or
// nil when nothing matched.
func deleteOptional[T any](ctx context.Context, coll *docstore.Collection[T], filter docstore.Filter) (*T, error) {
	doc, err := coll.Delete(ctx, filter)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deleting from %s: %w", coll.Name(), err)
	}
	return doc, nil
}

// mergeUpdate applies set to the matching document and returns the result.
// With an empty set the document is only read, so a missing target is still
// reported.
func mergeUpdate[T any](ctx context.Context, coll *docstore.Collection[T], filter docstore.Filter, set docstore.Fields) (*T, error) {
	var (
		doc *T
		err error
	)
	if len(set) == 0 {
		doc, err = coll.FindOne(ctx, filter)
	} else {
		doc, err = coll.Update(ctx, filter, set)
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", coll.Name(), err)
	}
	return doc, nil
}

// setIfGiven adds key to set when v carries a non-empty value. Null and
// empty arguments both mean "keep the stored value".
func setIfGiven(set docstore.Fields, key string, v *string) {
	if v != nil && *v != "" {
		set[key] = *v
	}
}
