package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zakhap/bookmarks-with-friends/internal/app"
	"github.com/zakhap/bookmarks-with-friends/internal/redis"
	redisstore "github.com/zakhap/bookmarks-with-friends/internal/store/redis"
	"github.com/zakhap/bookmarks-with-friends/internal/utils"
)

var errRedisDisabled = errors.New("BWF_REDIS_ADDR is not set, snapshot persistence is disabled")

func newSnapshotsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect or clear the cache snapshots persisted in Redis",
	}

	// withStore connects once per invocation; the server's retry window is
	// shortened so a dead Redis fails fast on the command line.
	withStore := func(cmd *cobra.Command, fn func(*redisstore.Store) error) error {
		cfg, log, err := opts.setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if !cfg.RedisEnabled() {
			return errRedisDisabled
		}

		ro := app.RedisOptions(cfg)
		ro.ConnectTimeout = 5 * time.Second
		client, err := redis.New(cmd.Context(), ro, log)
		if err != nil {
			return err
		}
		defer utils.MustClose(client, "redis", log)

		return fn(redisstore.NewStore(client))
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List persisted snapshots with their age and size",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, func(s *redisstore.Store) error {
					keys, err := s.Keys(cmd.Context())
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					for _, k := range keys {
						snap, err := s.Load(cmd.Context(), k)
						if errors.Is(err, redisstore.ErrSnapshotNotFound) {
							fmt.Fprintf(out, "%s\texpired\n", k)
							continue
						}
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "%s\t%d bookmarks\tfetched %s (%s ago)\n",
							k, len(snap.Bookmarks), snap.FetchedAt.Format(time.RFC3339),
							time.Since(snap.FetchedAt).Round(time.Second))
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "flush",
			Short: "Delete every persisted snapshot; the next start is cold",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, func(s *redisstore.Store) error {
					removed, err := s.Flush(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "✅ flushed %d snapshots %v\n", len(removed), removed)
					return nil
				})
			},
		},
	)
	return cmd
}
