package whatsapp

import (
	"InmoCRM/controllers"
	"InmoCRM/middleware"
	"InmoCRM/pkg/services"
	"InmoCRM/pkg/waha"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterPublic mounts the gateway-facing webhook. It must stay outside
// auth: the gateway only knows the URL, not our tokens.
func RegisterPublic(r *gin.Engine, db *gorm.DB, hub *controllers.InboxHub) {
	r.POST("/api/whatsapp/webhook", controllers.Webhook(db, hub))
}

// RegisterProtected mounts the operator-facing WhatsApp endpoints.
func RegisterProtected(g *gin.RouterGroup, db *gorm.DB, gw *waha.Client, sync *services.SyncService) {
	g.GET("/api/whatsapp/status", controllers.SessionStatus(gw))
	g.POST("/api/whatsapp/session", controllers.StartSession(gw))
	g.POST("/api/whatsapp/session/stop", controllers.StopSession(gw))
	g.DELETE("/api/whatsapp/session", controllers.LogoutSession(gw))
	// send and sync hit the gateway/database hard, so they are rate limited
	g.POST("/api/whatsapp/send", middleware.RateLimit(), controllers.SendMessage(db, gw))
	g.POST("/api/whatsapp/sync", middleware.RateLimit(), controllers.TriggerSync(sync))
}
