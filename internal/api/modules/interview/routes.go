package interview

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the routes for the interview module
func RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/generate-questions", GenerateQuestions) // Start a session from a candidate profile
	g.POST("/upload-video", UploadVideo)             // Upload one answer recording
	g.POST("/finalize/:session_id", Finalize)        // Produce feedback and expected answers
	g.GET("/session/:session_id", GetSession)        // Poll session status and availability flags

	g.GET("/speech-analysis/:session_id/:question_index", GetSpeechAnalysis)
	g.GET("/video-analysis/:session_id/:question_index", GetVideoAnalysis)
	g.GET("/combined-analysis/:session_id", GetCombinedAnalysis)
}
