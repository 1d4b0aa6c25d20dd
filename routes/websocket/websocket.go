package websocket

import (
	"InmoCRM/controllers"

	"github.com/gin-gonic/gin"
)

// Register mounts the inbox websocket; it authenticates via ?token=.
func Register(r *gin.Engine, hub *controllers.InboxHub) {
	r.GET("/ws/inbox", controllers.InboxWS(hub))
}
