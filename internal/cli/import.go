package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zakhap/bookmarks-with-friends/internal/sources/seed"
	"github.com/zakhap/bookmarks-with-friends/internal/store/sqlite"
	"github.com/zakhap/bookmarks-with-friends/internal/utils"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Insert bookmarks from a YAML seed file into the bookmark table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := seed.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}
			bookmarks, skipped, err := seed.Map(file)
			for _, s := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  skipped %v\n", s)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, b := range bookmarks {
					fmt.Fprintf(out, "%s\t%s\t%s\n", b.SavedBy, b.URL, b.Title)
				}
				fmt.Fprintf(out, "%d bookmarks would be imported\n", len(bookmarks))
				return nil
			}

			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := sqlite.Open(cmd.Context(), cfg.DatabasePath, log)
			if err != nil {
				return err
			}
			defer utils.MustClose(store, "bookmark table", log)

			for i, b := range bookmarks {
				if _, err := store.Create(cmd.Context(), b); err != nil {
					return fmt.Errorf("import stopped after %d of %d bookmarks: %w", i, len(bookmarks), err)
				}
			}
			fmt.Fprintf(out, "✅ imported %d bookmarks (%d skipped)\n", len(bookmarks), len(skipped))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be imported without writing")
	return cmd
}
