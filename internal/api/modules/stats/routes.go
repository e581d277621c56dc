package stats

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the routes for the stats module
func RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/stats", GetStats)
}
