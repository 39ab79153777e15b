package handlers

import (
	"github.com/gin-gonic/gin"

	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/websocket"
)

// StatusFeed streams backup and sync events to an admin client.
func StatusFeed(manager *websocket.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := manager.Serve(c.Writer, c.Request); err != nil {
			logging.With("websocket").Warn().Err(err).Msg("websocket upgrade failed")
		}
	}
}
