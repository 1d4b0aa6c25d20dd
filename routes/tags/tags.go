package tags

import (
	"InmoCRM/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.GET("/api/tags", controllers.ListTags(db))
	g.POST("/api/tags", controllers.CreateTag(db))
	g.DELETE("/api/tags/:tag_id", controllers.DeleteTag(db))
}
