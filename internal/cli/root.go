// Package cli holds the bookmarks command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zakhap/bookmarks-with-friends/internal/config"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

type rootOptions struct {
	logLevel string
	pretty   bool
}

// NewRootCommand builds the bookmarks command and its subcommands.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Shared bookmark page and RSS feed for a group of friends",
		Long: `bookmarks serves a public page of links, images and notes saved by a small
group of friends, with an RSS mirror and an authenticated write API.

The read path pulls from an are.na channel or from the local bookmark table
(BWF_SOURCE=arena|sql). All settings come from BWF_* environment variables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override BWF_LOG_LEVEL (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human readable logs instead of JSON")

	cmd.AddCommand(
		newServeCommand(opts),
		newFetchCommand(opts),
		newMigrateCommand(opts),
		newImportCommand(opts),
		newSnapshotsCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// setup loads the environment configuration and builds the logger.
// Invalid settings come back as an error instead of a panic.
func (o *rootOptions) setup() (cfg *config.Config, log logger.Logger, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid configuration: %v", r)
		}
	}()

	cfg = config.Load()
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.pretty {
		cfg.PrettyLog = true
	}
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog), nil
}
