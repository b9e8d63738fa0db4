package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/anishLS3/Placify-sub001/internal/api/middleware"
	"github.com/anishLS3/Placify-sub001/internal/realtime"
)

// RealtimeHandler upgrades authenticated administrators to a websocket that
// streams moderation events.
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

func (h *RealtimeHandler) Serve(c *gin.Context) {
	actorID := c.GetString(middleware.ActorIDKey)
	if err := h.hub.ServeWS(c.Writer, c.Request, actorID); err != nil {
		// The upgrader has already written the HTTP error.
		middleware.GetRequestLogger(c).WithError(err).Debug("websocket upgrade failed")
	}
}
