// Package graph binds the chatter GraphQL schema to chattercore.
package graph

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"go.uber.org/zap"

	"github.com/mmmorks/chatter/internal/chattercore"
	"github.com/mmmorks/chatter/internal/metrics"
)

//go:embed schema.graphqls
var schemaSDL string

// DefaultMaxParallelism bounds concurrent field resolution per request.
const DefaultMaxParallelism = 10

// Resolver is the root resolver for the GraphQL schema.
// It holds a reference to chattercore.Core for data access.
type Resolver struct {
	Core    *chattercore.Core
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// SchemaOptions tune schema execution.
type SchemaOptions struct {
	MaxParallelism int
}

// NewSchema parses the embedded SDL and binds it to r.
func NewSchema(r *Resolver, opts SchemaOptions) (*graphql.Schema, error) {
	if r.Logger == nil {
		r.Logger = zap.NewNop()
	}
	if opts.MaxParallelism <= 0 {
		opts.MaxParallelism = DefaultMaxParallelism
	}

	schema, err := graphql.ParseSchema(schemaSDL, r,
		graphql.MaxParallelism(opts.MaxParallelism),
		graphql.Logger(panicLogger{log: r.Logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return schema, nil
}

// LoadSchema validates the SDL with gqlparser and returns its AST.
func LoadSchema() (*ast.Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSDL})
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return schema, nil
}

// FormatSchema returns the schema in gqlparser's canonical layout.
func FormatSchema() (string, error) {
	schema, err := LoadSchema()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	f := formatter.NewFormatter(&buf, formatter.WithIndent("  "))
	f.FormatSchema(schema)

	return buf.String(), nil
}

// panicLogger reports resolver panics through zap instead of the standard
// logger graph-gophers uses by default.
type panicLogger struct {
	log *zap.Logger
}

func (l panicLogger) LogPanic(_ context.Context, value interface{}) {
	l.log.Error("graphql: panic occurred", zap.Any("panic", value), zap.Stack("stack"))
}
