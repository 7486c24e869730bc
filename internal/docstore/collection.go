package docstore

import "context"

// Collection is a typed view of one collection in a Store.
type Collection[T any] struct {
	store Store
	name  string
}

// NewCollection returns a typed view of the named collection.
func NewCollection[T any](store Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Insert stores doc and returns the id it was stored under.
func (c *Collection[T]) Insert(ctx context.Context, doc *T) (string, error) {
	return c.store.InsertOne(ctx, c.name, doc)
}

// FindOne returns the document matching filter, or ErrNotFound.
func (c *Collection[T]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	var out T
	if err := c.store.FindOne(ctx, c.name, filter, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sets fields on the document matching filter and returns the
// updated document, or ErrNotFound.
func (c *Collection[T]) Update(ctx context.Context, filter Filter, set Fields) (*T, error) {
	var out T
	if err := c.store.UpdateOne(ctx, c.name, filter, set, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the document matching filter and returns it as it was
// before removal, or ErrNotFound.
func (c *Collection[T]) Delete(ctx context.Context, filter Filter) (*T, error) {
	var out T
	if err := c.store.DeleteOne(ctx, c.name, filter, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
