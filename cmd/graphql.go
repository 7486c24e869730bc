package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	qerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/mmmorks/chatter/internal/graph"
)

var (
	queryJSON       bool
	queryVariables  string
	queryOperation  string
	querySchemaOnly bool
)

var graphqlCmd = &cobra.Command{
	Use:     "graphql <query>",
	Aliases: []string{"query"},
	Short:   "Execute a GraphQL query or mutation",
	Long: `Execute a GraphQL query or mutation directly against the configured store.

The argument should be a valid GraphQL query or mutation string.

Examples:
  # Create a user
  chatter graphql 'mutation { cUser(name: "Ada", surname: "Lovelace", email: "ada@x.io") { id } }'

  # Read it back
  chatter graphql '{ rUser(id: "abc") { name surname email } }'

  # Use variables
  chatter graphql -v '{"id": "abc"}' 'query GetUser($id: ID) { rUser(id: $id) { name } }'

  # Read from stdin (useful for complex queries or escaping issues)
  cat query.graphql | chatter graphql

  # Print the schema
  chatter graphql --schema

Query arguments are typed ID: rUser, rPost and rComment take id: ID, not the
Int of earlier deployments, so clients declaring $id: Int must switch to ID.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if querySchemaOnly {
			return nil
		}
		// Allow 0 args if stdin has data, or exactly 1 arg
		if len(args) > 1 {
			return fmt.Errorf("accepts at most 1 argument (the GraphQL query)")
		}
		return nil
	},
	PreRun: func(cmd *cobra.Command, args []string) {
		// Keep stdout clean for the result unless asked otherwise.
		if !cmd.Flags().Changed("log-level") {
			logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Schema-only mode
		if querySchemaOnly {
			return printSchema(cmd.OutOrStdout())
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		} else {
			stdinQuery, err := readFromStdin()
			if err != nil {
				return err
			}
			if stdinQuery == "" {
				return fmt.Errorf("no query provided (pass as argument or pipe to stdin)")
			}
			query = stdinQuery
		}

		var variables map[string]any
		if queryVariables != "" {
			if err := json.Unmarshal([]byte(queryVariables), &variables); err != nil {
				return fmt.Errorf("invalid variables JSON: %w", err)
			}
		}

		if err := openCore(cmd.Context()); err != nil {
			return err
		}

		result, err := executeQuery(cmd.Context(), query, variables, queryOperation)
		if err != nil {
			return err
		}

		if queryJSON {
			fmt.Fprintln(cmd.OutOrStdout(), string(result))
		} else {
			prettyPrint(cmd.OutOrStdout(), result)
		}
		return nil
	},
}

// readFromStdin reads the query from stdin if data is available.
func readFromStdin() (string, error) {
	// A terminal means nothing was piped in.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// executeQuery runs a GraphQL query against the open core.
// On success, it returns just the data portion of the response.
// On error, it returns an error so the CLI can handle it appropriately.
func executeQuery(ctx context.Context, query string, variables map[string]any, operationName string) ([]byte, error) {
	schema, err := graph.NewSchema(&graph.Resolver{Core: core, Logger: logger}, graph.SchemaOptions{
		MaxParallelism: cfg.Server.MaxParallelism,
	})
	if err != nil {
		return nil, err
	}

	resp := schema.Exec(ctx, query, operationName, variables)
	if len(resp.Errors) > 0 {
		return nil, formatGraphQLErrors(toGQLErrors(resp.Errors))
	}

	return resp.Data, nil
}

// toGQLErrors converts executor errors, keeping their codes.
func toGQLErrors(errs []*qerrors.QueryError) gqlerror.List {
	list := make(gqlerror.List, 0, len(errs))
	for _, e := range errs {
		list = append(list, &gqlerror.Error{Message: e.Message, Extensions: e.Extensions})
	}
	return list
}

// formatGraphQLErrors formats GraphQL errors into a single error.
func formatGraphQLErrors(errs gqlerror.List) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return fmt.Errorf("graphql: %s", describe(errs[0]))
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, describe(e))
	}
	return fmt.Errorf("graphql errors:\n  %s", strings.Join(msgs, "\n  "))
}

func describe(e *gqlerror.Error) string {
	if code, ok := e.Extensions["code"].(string); ok {
		return fmt.Sprintf("%s (%s)", e.Message, code)
	}
	return e.Message
}

// prettyPrint outputs indented JSON, colored when w is a terminal.
func prettyPrint(w io.Writer, data []byte) {
	out := pretty.Pretty(data)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out = pretty.Color(out, nil)
	}
	fmt.Fprintln(w, string(out))
}

// printSchema outputs the GraphQL schema.
func printSchema(w io.Writer) error {
	sdl, err := graph.FormatSchema()
	if err != nil {
		return err
	}
	fmt.Fprint(w, sdl)
	return nil
}

func init() {
	graphqlCmd.Flags().BoolVar(&queryJSON, "json", false, "Output raw JSON (no formatting)")
	graphqlCmd.Flags().StringVarP(&queryVariables, "variables", "v", "", "Query variables as JSON string")
	graphqlCmd.Flags().StringVarP(&queryOperation, "operation", "o", "", "Operation name (for multi-operation documents)")
	graphqlCmd.Flags().BoolVar(&querySchemaOnly, "schema", false, "Print the GraphQL schema and exit")
	rootCmd.AddCommand(graphqlCmd)
}
