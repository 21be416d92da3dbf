package routes

import (
	"github.com/gin-gonic/gin"
)

// WebSocketRoutes authenticates through the token query parameter since
// browsers cannot set headers on the upgrade request.
func WebSocketRoutes(r *gin.Engine, d Deps) {
	ws := r.Group("/ws")
	{
		ws.GET("/live", d.WebSocket.Live)
	}
}
