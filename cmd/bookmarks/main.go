package main

import (
	"os"

	"github.com/zakhap/bookmarks-with-friends/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
