package auth

import (
	"InmoCRM/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterPublic(r *gin.Engine, db *gorm.DB) {
	r.POST("/api/auth/register", controllers.Register(db))
	r.POST("/api/auth/login", controllers.Login(db))
}

func RegisterProtected(g *gin.RouterGroup) {
	g.POST("/api/auth/logout", controllers.Logout())
}
