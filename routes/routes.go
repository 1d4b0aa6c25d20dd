package routes

import (
	"net/http"

	"InmoCRM/controllers"
	"InmoCRM/middleware"
	"InmoCRM/pkg/services"
	"InmoCRM/pkg/waha"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authRoutes "InmoCRM/routes/auth"
	convRoutes "InmoCRM/routes/conversations"
	leadRoutes "InmoCRM/routes/leads"
	tagRoutes "InmoCRM/routes/tags"
	websocketRoutes "InmoCRM/routes/websocket"
	whatsappRoutes "InmoCRM/routes/whatsapp"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, gw *waha.Client, hub *controllers.InboxHub, sync *services.SyncService) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "InmoCRM backend running", "ws_clients": hub.ClientCount()})
	})

	// gateway-facing webhook and the websocket do their own auth
	whatsappRoutes.RegisterPublic(r, db, hub)
	websocketRoutes.Register(r, hub)
	authRoutes.RegisterPublic(r, db)

	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware())
	authRoutes.RegisterProtected(protected)
	whatsappRoutes.RegisterProtected(protected, db, gw, sync)
	convRoutes.Register(protected, db)
	tagRoutes.Register(protected, db)
	leadRoutes.Register(protected, db)
}
