package api

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/face2phrase/backend/internal/orchestrator"
	"github.com/face2phrase/backend/internal/stores/users"
	"github.com/face2phrase/backend/pkg/keypool"
	"github.com/face2phrase/backend/pkg/utils"

	auth_module "github.com/face2phrase/backend/internal/api/modules/auth"
	health_module "github.com/face2phrase/backend/internal/api/modules/health"
	interview_module "github.com/face2phrase/backend/internal/api/modules/interview"
	reports_module "github.com/face2phrase/backend/internal/api/modules/reports"
	stats_module "github.com/face2phrase/backend/internal/api/modules/stats"
)

// Services carries the shared backend components the API modules run off of
type Services struct {
	Orchestrator *orchestrator.Orchestrator
	Pool         *keypool.Pool
	Users        *users.Store
	Tokens       *users.TokenIssuer

	// Component availability, reported by the health module
	TranscriberLoaded bool
	MediaToolsLoaded  bool
}

func Start(cfg *utils.Config, svc Services) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8000")

	// Add app level settings/routes
	engine := gin.Default()

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.Init(health_module.Availability{
		TranscriberLoaded: svc.TranscriberLoaded,
		MediaToolsLoaded:  svc.MediaToolsLoaded,
		KeyCount:          svc.Pool.Len(),
	})
	health_module.RegisterRoutes(baseGroup)
	engine.GET("/", health_module.GetStatus)

	stats_module.Init(svc.Pool)
	stats_module.RegisterRoutes(baseGroup)

	auth_module.Init(svc.Users, svc.Tokens)
	auth_module.RegisterRoutes(baseGroup)

	interview_module.Init(svc.Orchestrator)
	interview_module.RegisterRoutes(baseGroup)

	reports_module.Init(svc.Orchestrator)
	reports_module.RegisterRoutes(baseGroup)

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}
