package leads

import (
	"InmoCRM/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.GET("/api/leads", controllers.ListLeads(db))
	g.GET("/api/leads/:lead_id", controllers.GetLead(db))
	g.POST("/api/leads", controllers.CreateLead(db))
}
