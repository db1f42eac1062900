package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zakhap/bookmarks-with-friends/internal/app"
	"github.com/zakhap/bookmarks-with-friends/internal/config"
	"github.com/zakhap/bookmarks-with-friends/internal/feed"
	"github.com/zakhap/bookmarks-with-friends/internal/store/sqlite"
	"github.com/zakhap/bookmarks-with-friends/internal/utils"
)

func newFetchCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the configured source once and print it",
		Long: `fetch reads one page from the configured source, bypassing the cache,
and prints it as JSON or as the RSS document the server would publish.
Unlike the page, a failing upstream is reported as an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "rss" {
				return fmt.Errorf("unknown format %q (want json or rss)", format)
			}

			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()

			var table app.Lister
			if cfg.Source == config.SourceSQL {
				store, err := sqlite.Open(ctx, cfg.DatabasePath, log)
				if err != nil {
					return err
				}
				defer utils.MustClose(store, "bookmark table", log)
				table = store
			}

			src, err := app.NewSource(cfg, table, log)
			if err != nil {
				return err
			}

			bookmarks, err := src.Fetch(ctx, src.Key)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", src.Key, err)
			}

			out := cmd.OutOrStdout()
			if format == "rss" {
				doc, err := feed.BuildRSS(bookmarks, feed.Channel{
					Title:   cfg.SiteTitle,
					Link:    cfg.PublicBaseURL,
					SelfURL: cfg.PublicBaseURL + "/api/feed.xml",
				}, time.Now())
				if err != nil {
					return err
				}
				_, err = out.Write(doc)
				return err
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"bookmarks": bookmarks})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or rss")
	return cmd
}
