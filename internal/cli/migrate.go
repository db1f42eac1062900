package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zakhap/bookmarks-with-friends/internal/store/sqlite"
	"github.com/zakhap/bookmarks-with-friends/internal/utils"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the bookmark table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			// Open applies pending migrations.
			store, err := sqlite.Open(cmd.Context(), cfg.DatabasePath, log)
			if err != nil {
				return err
			}
			defer utils.MustClose(store, "bookmark table", log)

			n, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is up to date (%d bookmarks)\n", cfg.DatabasePath, n)
			return nil
		},
	}
}
