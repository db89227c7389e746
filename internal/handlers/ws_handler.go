package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
)

// ServeWS upgrades to a websocket that receives badge and notification
// frames for the current user.
func (h *Handler) ServeWS(c *gin.Context) {
	if err := h.hub.ServeWS(c.Writer, c.Request, currentUser(c).ID); err != nil {
		// The upgrader has already written the HTTP error.
		log.Printf("[Realtime] upgrade failed: %v", err)
	}
}
