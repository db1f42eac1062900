// Package version carries build metadata, set at link time:
//
//	go build -ldflags "-X github.com/zakhap/bookmarks-with-friends/internal/version.Version=v0.3.0 \
//	  -X github.com/zakhap/bookmarks-with-friends/internal/version.Commit=$(git rev-parse --short HEAD)" ./cmd/bookmarks
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.3.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-03-02T18:42:00Z
	GoVersion = runtime.Version()
)
