package conversations

import (
	"InmoCRM/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers conversation routes (protected)
func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.GET("/api/conversations", controllers.ListConversations(db))
	g.GET("/api/conversations/:conversation_id", controllers.GetConversation(db))
	g.POST("/api/conversations/:conversation_id/read", controllers.MarkConversationRead(db))
	g.POST("/api/conversations/:conversation_id/tags", controllers.AssignTag(db))
	g.DELETE("/api/conversations/:conversation_id/tags/:tag_id", controllers.RemoveTag(db))
	g.POST("/api/conversations/:conversation_id/lead", controllers.LinkLead(db))
}
