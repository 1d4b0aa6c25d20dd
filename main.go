package main

import (
	"log"
	"time"

	"InmoCRM/controllers"
	"InmoCRM/middleware"
	"InmoCRM/models"
	"InmoCRM/pkg/cache"
	"InmoCRM/pkg/config"
	"InmoCRM/pkg/services"
	"InmoCRM/pkg/waha"
	"InmoCRM/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	// config init via package init()

	var dialector gorm.Dialector
	if config.MySQLDSN != "" {
		dialector = mysql.Open(config.MySQLDSN)
	} else {
		dialector = sqlite.Open(config.SQLitePath)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Lead{},
		&models.Conversation{},
		&models.Message{},
		&models.Tag{},
	); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	gw := waha.NewClient(waha.Config{
		BaseURL: config.WahaBaseURL,
		APIKey:  config.WahaAPIKey,
		Session: config.WahaSession,
	})
	hub := controllers.NewInboxHub()
	sync := services.NewSyncService(db, gw, services.SyncOptions{
		ChatConcurrency: config.SyncChatConcurrency,
		MessagesKnown:   config.SyncMessagesKnown,
		MessagesNew:     config.SyncMessagesNew,
		WebhookURL:      config.WebhookPublicURL,
	})

	middleware.SetRateLimitConfig(
		time.Duration(config.RateLimitWindowSeconds)*time.Second,
		config.RateLimitCapacity,
	)
	cache.SetMaxItems(config.CacheMaxItems)

	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, gw, hub, sync)
	r.Run(":" + config.Port)
}
