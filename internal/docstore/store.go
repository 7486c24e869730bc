// Package docstore provides a small document store abstraction with
// MongoDB, bbolt and plain-file backends selected by connection URI.
//
// Every backend applies updates and deletes to a single document
// atomically, so concurrent writers never interleave a read-merge-write.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DefaultDatabase is used when neither the URI nor the options name one.
const DefaultDatabase = "chatter"

// IDField is the primary key of every document.
const IDField = "_id"

var (
	ErrNotFound       = errors.New("document not found")
	ErrDuplicateID    = errors.New("document id already exists")
	ErrNoURI          = errors.New("store URI is empty")
	ErrUnsupportedURI = errors.New("unsupported store URI")
	ErrImmutableID    = errors.New("document id cannot be updated")
)

// Filter selects documents by equality on top-level fields.
type Filter map[string]any

// ByID returns a filter matching the document with the given id.
func ByID(id string) Filter {
	return Filter{IDField: id}
}

// And returns a copy of f that additionally requires key == value.
func (f Filter) And(key string, value any) Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[key] = value
	return out
}

// Fields is a set of top-level field assignments applied by UpdateOne.
type Fields map[string]any

// Store is a document store. Implementations are safe for concurrent use.
type Store interface {
	// InsertOne stores doc in the collection. When doc has no _id the store
	// generates one. It returns the id the document was stored under.
	InsertOne(ctx context.Context, coll string, doc any) (string, error)

	// FindOne decodes the first document matching filter into out.
	FindOne(ctx context.Context, coll string, filter Filter, out any) error

	// UpdateOne sets fields on the document matching filter and decodes the
	// updated document into out.
	UpdateOne(ctx context.Context, coll string, filter Filter, set Fields, out any) error

	// DeleteOne removes the document matching filter and decodes the removed
	// document into out.
	DeleteOne(ctx context.Context, coll string, filter Filter, out any) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}

// Options tune how a store is opened.
type Options struct {
	// Database is the MongoDB database when the URI does not name one.
	Database string
	// ConnectTimeout bounds connecting and the initial ping. Zero leaves the
	// client default in place.
	ConnectTimeout time.Duration
}

// Open connects to the store named by uri and verifies it is reachable.
//
// Supported schemes:
//
//	mongodb://host/db, mongodb+srv://host/db
//	bolt://path/to/file.db
//	file://path/to/dir
func Open(ctx context.Context, uri string, opts Options) (Store, error) {
	if uri == "" {
		return nil, ErrNoURI
	}

	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}

	var (
		s   Store
		err error
	)
	switch scheme {
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, uri, opts)
	case "bolt":
		s, err = OpenBolt(rest, opts)
	case "file":
		s, err = OpenFile(rest)
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedURI, scheme)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Redact hides credentials in a store URI so it can be logged.
func Redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return uri
	}
	// Only the authority part can carry credentials.
	if slash := strings.Index(rest, "/"); slash >= 0 && slash < at {
		return uri
	}
	return scheme + "://***@" + rest[at+1:]
}

// toDocument converts a struct or map into a BSON document.
func toDocument(v any) (bson.M, error) {
	if m, ok := v.(bson.M); ok {
		return m, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return doc, nil
}

// decodeInto copies a document into out. A nil out skips decoding.
func decodeInto(doc bson.M, out any) error {
	if out == nil {
		return nil
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	return nil
}

// documentID returns the string _id of doc, or "" when it has none.
func documentID(doc bson.M) (string, error) {
	v, ok := doc[IDField]
	if !ok || v == nil {
		return "", nil
	}
	id, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("document id must be a string, got %T", v)
	}
	return id, nil
}

// matches reports whether doc satisfies every equality in filter.
func matches(doc bson.M, filter Filter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// applySet writes set into doc in place.
func applySet(doc bson.M, set Fields) error {
	if _, ok := set[IDField]; ok {
		return ErrImmutableID
	}
	for k, v := range set {
		doc[k] = v
	}
	return nil
}
