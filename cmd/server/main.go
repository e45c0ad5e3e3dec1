package main

import (
	"log"
	"net/http"

	_ "cakery_api/internal/domain/notification"
	_ "cakery_api/internal/domain/order"
	_ "cakery_api/internal/domain/payment"
	"cakery_api/internal/pkg/config"
	"cakery_api/internal/pkg/middleware"
	"cakery_api/internal/pkg/registry"
	"cakery_api/internal/pkg/worker"
	"cakery_api/pkg/database"
	"cakery_api/pkg/logger"
	"cakery_api/pkg/mailer"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()

	logger.Init(config.GlobalConfig.App.Debug)
	defer logger.Sync()

	db := database.InitDatabase()
	rdb := database.InitRedis()

	emailPool := worker.NewEmailPool(mailer.NewMailer(), 4, 256)
	emailPool.Start()

	gin.SetMode(config.GlobalConfig.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(cors.New(corsConfig()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler())

	moduleCtx := &registry.ModuleContext{
		DB:     db,
		Redis:  rdb,
		Router: r,
		Mailer: emailPool,
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		log.Fatalf("Failed to initialize modules: %v", err)
	}

	addr := ":" + config.GlobalConfig.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsConfig allows the storefront origins from config; gateway callbacks
// are server-to-server and unaffected.
func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = config.GlobalConfig.Server.AllowOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cfg
}
