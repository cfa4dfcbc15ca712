package utils

import (
	"io"

	"github.com/MrSnakeDoc/castplay/internal/logger"
)

// CloseLogged closes c during shutdown and reports a failure instead of
// returning it.
func CloseLogged(c io.Closer, what string, log logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("close failed",
			logger.String("component", what),
			logger.Error(err))
		return
	}
	log.Debug("closed", logger.String("component", what))
}
