package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/adrg/frontmatter"
	"go.mongodb.org/mongo-driver/v2/bson"
	"gopkg.in/yaml.v3"
)

// BodyField is rendered as the markdown body of a document file instead of
// as front matter.
const BodyField = "content"

const (
	docExt       = ".md"
	sequenceFile = ".sequence"
)

// FileStore keeps each document as a markdown file with YAML front matter,
// one directory per collection:
//
//	<root>/<collection>/<id>.md
//
// A store-wide lock serializes writers, which makes every update and
// delete atomic with respect to other callers of the same FileStore.
type FileStore struct {
	root string

	mu sync.RWMutex
}

var _ Store = (*FileStore)(nil)

// OpenFile opens the document directory at root, creating it if needed.
func OpenFile(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: file store needs a directory", ErrUnsupportedURI)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	return &FileStore{root: abs}, nil
}

// Root returns the absolute path of the document directory.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) InsertOne(_ context.Context, coll string, doc any) (string, error) {
	m, err := toDocument(doc)
	if err != nil {
		return "", err
	}
	id, err := documentID(m)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		if id, err = s.nextID(coll); err != nil {
			return "", err
		}
		m[IDField] = id
	} else {
		if !validFileID(id) {
			return "", fmt.Errorf("invalid document id %q", id)
		}
		if _, err := os.Stat(s.docPath(coll, id)); err == nil {
			return "", fmt.Errorf("%w: %s/%s", ErrDuplicateID, coll, id)
		}
	}

	if err := s.saveToDisk(coll, id, m); err != nil {
		return "", err
	}
	return id, nil
}

func (s *FileStore) FindOne(_ context.Context, coll string, filter Filter, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, doc, err := s.locate(coll, filter)
	if err != nil {
		return err
	}
	return decodeInto(doc, out)
}

func (s *FileStore) UpdateOne(_ context.Context, coll string, filter Filter, set Fields, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, doc, err := s.locate(coll, filter)
	if err != nil {
		return err
	}
	if err := applySet(doc, set); err != nil {
		return err
	}
	if err := s.saveToDisk(coll, id, doc); err != nil {
		return err
	}
	return decodeInto(doc, out)
}

func (s *FileStore) DeleteOne(_ context.Context, coll string, filter Filter, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, doc, err := s.locate(coll, filter)
	if err != nil {
		return err
	}
	if err := decodeInto(doc, out); err != nil {
		return err
	}
	return os.Remove(s.docPath(coll, id))
}

func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("file store unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("file store root %s is not a directory", s.root)
	}
	return nil
}

func (s *FileStore) Close(_ context.Context) error {
	return nil
}

func (s *FileStore) collDir(coll string) string {
	return filepath.Join(s.root, coll)
}

func (s *FileStore) docPath(coll, id string) string {
	return filepath.Join(s.collDir(coll), id+docExt)
}

// locate finds the first document in coll matching filter (must be called
// with the lock held). An _id in the filter reads exactly one file.
func (s *FileStore) locate(coll string, filter Filter) (string, bson.M, error) {
	if v, ok := filter[IDField]; ok {
		id, ok := v.(string)
		if !ok || !validFileID(id) {
			return "", nil, ErrNotFound
		}
		doc, err := s.loadDocument(coll, id)
		if err != nil {
			return "", nil, err
		}
		if !matches(doc, filter) {
			return "", nil, ErrNotFound
		}
		return id, doc, nil
	}

	entries, err := os.ReadDir(s.collDir(coll))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), docExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), docExt)
		doc, err := s.loadDocument(coll, id)
		if err != nil {
			return "", nil, err
		}
		if matches(doc, filter) {
			return id, doc, nil
		}
	}
	return "", nil, ErrNotFound
}

// loadDocument reads and parses a single document file. The id comes from
// the filename, not the front matter.
func (s *FileStore) loadDocument(coll, id string) (bson.M, error) {
	f, err := os.Open(s.docPath(coll, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	doc, err := parseDocument(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s/%s: %w", coll, id, err)
	}
	doc[IDField] = id
	return doc, nil
}

// saveToDisk writes a document file (must be called with the lock held).
func (s *FileStore) saveToDisk(coll, id string, doc bson.M) error {
	if err := os.MkdirAll(s.collDir(coll), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	content, err := renderDocument(doc)
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.docPath(coll, id), content, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// nextID advances the collection's counter until it names a free file
// (must be called with the lock held).
func (s *FileStore) nextID(coll string) (string, error) {
	if err := os.MkdirAll(s.collDir(coll), 0755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	path := filepath.Join(s.collDir(coll), sequenceFile)
	var seq uint64
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		seq, err = strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
		if err != nil {
			return "", fmt.Errorf("reading sequence for %s: %w", coll, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", err
	}

	var id string
	for {
		seq++
		id = strconv.FormatUint(seq, 10)
		if _, err := os.Stat(s.docPath(coll, id)); os.IsNotExist(err) {
			break
		}
	}

	if err := os.WriteFile(path, []byte(strconv.FormatUint(seq, 10)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("writing sequence for %s: %w", coll, err)
	}
	return id, nil
}

// validFileID rejects ids that cannot be used as a plain file name.
func validFileID(id string) bool {
	if id == "" || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return false
	}
	return !strings.ContainsAny(id, "/\\\x00")
}

// renderDocument serializes a document to markdown with YAML front matter.
// The _id is omitted (it is the filename) and BodyField becomes the body.
func renderDocument(doc bson.M) ([]byte, error) {
	fm, err := frontMatterNode(doc)
	if err != nil {
		return nil, err
	}
	body, _ := doc[BodyField].(string)

	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshaling front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fmBytes)
	buf.WriteString("---\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
	}
	return buf.Bytes(), nil
}

// frontMatterNode builds the front matter mapping with keys in sorted order.
// Strings are double quoted so each value stays on its own line: a block
// scalar could carry a "---" line that ends the front matter early, and its
// chomping would not keep leading or trailing newlines.
func frontMatterNode(doc bson.M) (*yaml.Node, error) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		if k == IDField || k == BodyField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		var val yaml.Node
		if err := val.Encode(doc[k]); err != nil {
			return nil, fmt.Errorf("encoding field %s: %w", k, err)
		}
		if val.Kind == yaml.ScalarNode && val.Tag == "!!str" {
			val.Style = yaml.DoubleQuotedStyle
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}

// parseDocument reads a document rendered by renderDocument.
func parseDocument(r io.Reader) (bson.M, error) {
	var fm map[string]any
	body, err := frontmatter.Parse(r, &fm)
	if err != nil {
		return nil, fmt.Errorf("parsing front matter: %w", err)
	}

	doc := make(bson.M, len(fm)+1)
	for k, v := range fm {
		doc[k] = v
	}
	// The separator line written by renderDocument is part of the parsed body.
	if b := strings.TrimPrefix(string(body), "\n"); b != "" {
		doc[BodyField] = b
	}
	return doc, nil
}
