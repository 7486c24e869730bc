package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoStore keeps documents in a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*MongoStore)(nil)

// OpenMongo connects to MongoDB and pings the primary.
func OpenMongo(ctx context.Context, uri string, opts Options) (*MongoStore, error) {
	clientOpts := options.Client().ApplyURI(uri)
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	s := &MongoStore{
		client: client,
		db:     client.Database(mongoDatabase(uri, opts.Database)),
	}

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := s.Ping(pingCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

// mongoDatabase picks the database named in the URI path, then the
// configured fallback, then DefaultDatabase.
func mongoDatabase(uri, fallback string) string {
	if u, err := url.Parse(uri); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	if fallback != "" {
		return fallback
	}
	return DefaultDatabase
}

// Database returns the name of the database documents are stored in.
func (s *MongoStore) Database() string {
	return s.db.Name()
}

func (s *MongoStore) InsertOne(ctx context.Context, coll string, doc any) (string, error) {
	m, err := toDocument(doc)
	if err != nil {
		return "", err
	}
	id, err := documentID(m)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = bson.NewObjectID().Hex()
		m[IDField] = id
	}

	if _, err := s.db.Collection(coll).InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %s/%s", ErrDuplicateID, coll, id)
		}
		return "", fmt.Errorf("inserting into %s: %w", coll, err)
	}
	return id, nil
}

func (s *MongoStore) FindOne(ctx context.Context, coll string, filter Filter, out any) error {
	res := s.db.Collection(coll).FindOne(ctx, bson.M(filter))
	return decodeResult(res, coll, out)
}

func (s *MongoStore) UpdateOne(ctx context.Context, coll string, filter Filter, set Fields, out any) error {
	if _, ok := set[IDField]; ok {
		return ErrImmutableID
	}
	update := bson.M{"$set": bson.M(set)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := s.db.Collection(coll).FindOneAndUpdate(ctx, bson.M(filter), update, opts)
	return decodeResult(res, coll, out)
}

func (s *MongoStore) DeleteOne(ctx context.Context, coll string, filter Filter, out any) error {
	res := s.db.Collection(coll).FindOneAndDelete(ctx, bson.M(filter))
	return decodeResult(res, coll, out)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("pinging mongodb: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// decodeResult maps a single-document result onto out, translating
// "no documents" into ErrNotFound.
func decodeResult(res *mongo.SingleResult, coll string, out any) error {
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("querying %s: %w", coll, err)
	}
	if out == nil {
		return nil
	}
	if err := res.Decode(out); err != nil {
		return fmt.Errorf("decoding %s document: %w", coll, err)
	}
	return nil
}
