package reports

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the routes for the reports module
func RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/download-feedback/:session_id", DownloadFeedback)
	g.GET("/download-answers/:session_id", DownloadAnswers)
	g.GET("/view-feedback/:session_id", ViewFeedback)
	g.GET("/view-answers/:session_id", ViewAnswers)
}
