package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the routes for the auth module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/auth")

	group.POST("/register", Register) // Create a new user account
	group.POST("/login", Login)       // Exchange credentials for an access token
	group.GET("/me", Me)              // Return the authenticated account
}
