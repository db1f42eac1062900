package utils

import (
	"io"

	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

// Close closes c and ignores any error. For response bodies and cleanup on
// an error path that already returns a better error.
func Close(c io.Closer) {
	_ = c.Close()
}

// MustClose closes c and logs a failure against what, ex: "bookmark table".
func MustClose(c io.Closer, what string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+what, logger.Error(err))
	}
}
