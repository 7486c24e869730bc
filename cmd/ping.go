package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmmorks/chatter/internal/docstore"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured store is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openCore(cmd.Context()); err != nil {
			return err
		}
		if err := core.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("pinging store: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%s)\n", docstore.Redact(cfg.StoreURI()), storeLocation(core.Store()))
		return nil
	},
}

// storeLocation names where a store keeps its documents.
func storeLocation(s docstore.Store) string {
	switch s := s.(type) {
	case *docstore.MongoStore:
		return "database " + s.Database()
	case *docstore.BoltStore:
		return "file " + s.Path()
	case *docstore.FileStore:
		return "directory " + s.Root()
	default:
		return "unknown store"
	}
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
