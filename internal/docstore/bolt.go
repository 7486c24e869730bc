package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps documents in a single bbolt file, one bucket per
// collection, each value a BSON-encoded document keyed by its id.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBolt opens (creating if needed) the bbolt file at path.
func OpenBolt(path string, opts Options) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: bolt store needs a file path", ErrUnsupportedURI)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	timeout := opts.ConnectTimeout
	if timeout == 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt store %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

// Path returns the file backing the store.
func (s *BoltStore) Path() string {
	return s.db.Path()
}

func (s *BoltStore) InsertOne(_ context.Context, coll string, doc any) (string, error) {
	m, err := toDocument(doc)
	if err != nil {
		return "", err
	}
	id, err := documentID(m)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(coll))
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", coll, err)
		}

		if id == "" {
			// Sequences start at 1, so a generated id is never NoParent.
			for {
				seq, err := b.NextSequence()
				if err != nil {
					return err
				}
				id = strconv.FormatUint(seq, 10)
				if b.Get([]byte(id)) == nil {
					break
				}
			}
			m[IDField] = id
		} else if b.Get([]byte(id)) != nil {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateID, coll, id)
		}

		raw, err := bson.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding document: %w", err)
		}
		return b.Put([]byte(id), raw)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *BoltStore) FindOne(_ context.Context, coll string, filter Filter, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		if b == nil {
			return ErrNotFound
		}
		_, doc, err := locate(b, filter)
		if err != nil {
			return err
		}
		return decodeInto(doc, out)
	})
}

func (s *BoltStore) UpdateOne(_ context.Context, coll string, filter Filter, set Fields, out any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		if b == nil {
			return ErrNotFound
		}
		key, doc, err := locate(b, filter)
		if err != nil {
			return err
		}
		if err := applySet(doc, set); err != nil {
			return err
		}
		raw, err := bson.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding document: %w", err)
		}
		if err := b.Put(key, raw); err != nil {
			return err
		}
		return decodeInto(doc, out)
	})
}

func (s *BoltStore) DeleteOne(_ context.Context, coll string, filter Filter, out any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(coll))
		if b == nil {
			return ErrNotFound
		}
		key, doc, err := locate(b, filter)
		if err != nil {
			return err
		}
		if err := decodeInto(doc, out); err != nil {
			return err
		}
		return b.Delete(key)
	})
}

func (s *BoltStore) Ping(_ context.Context) error {
	return s.db.View(func(*bolt.Tx) error { return nil })
}

func (s *BoltStore) Close(_ context.Context) error {
	return s.db.Close()
}

// locate finds the first document in b matching filter. An _id in the
// filter is used as a direct key lookup.
func locate(b *bolt.Bucket, filter Filter) ([]byte, bson.M, error) {
	if v, ok := filter[IDField]; ok {
		id, ok := v.(string)
		if !ok {
			return nil, nil, ErrNotFound
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return nil, nil, ErrNotFound
		}
		doc, err := decodeRaw(raw)
		if err != nil {
			return nil, nil, err
		}
		if !matches(doc, filter) {
			return nil, nil, ErrNotFound
		}
		return []byte(id), doc, nil
	}

	c := b.Cursor()
	for k, raw := c.First(); k != nil; k, raw = c.Next() {
		doc, err := decodeRaw(raw)
		if err != nil {
			return nil, nil, err
		}
		if matches(doc, filter) {
			return append([]byte(nil), k...), doc, nil
		}
	}
	return nil, nil, ErrNotFound
}

func decodeRaw(raw []byte) (bson.M, error) {
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}
