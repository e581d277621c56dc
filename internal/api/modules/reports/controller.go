package reports

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/face2phrase/backend/internal/orchestrator"
	"github.com/face2phrase/backend/internal/report"
	"github.com/face2phrase/backend/internal/stores/session"
	"github.com/face2phrase/backend/pkg/sdk"
)

var svc *orchestrator.Orchestrator

// Attach the orchestrator whose sessions get reported on
func Init(o *orchestrator.Orchestrator) {
	svc = o
}

func getOrchestrator() *orchestrator.Orchestrator {
	if svc == nil {
		log.Fatal("[REPORTS]: Reports module is not initialized")
	}
	return svc
}

// DownloadFeedback serves the feedback PDF as an attachment
func DownloadFeedback(c *gin.Context) {
	servePDF(c, "interview_feedback.pdf", func(dir session.Dir) string {
		return dir.FeedbackPDFPath()
	})
}

// DownloadAnswers serves the expected-answers PDF as an attachment
func DownloadAnswers(c *gin.Context) {
	servePDF(c, "expected_answers.pdf", func(dir session.Dir) string {
		return dir.AnswersPDFPath()
	})
}

// ViewFeedback renders the feedback bundle as a browsable HTML page
func ViewFeedback(c *gin.Context) {
	s, ok := finalizedSession(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.RenderFeedbackHTML(c.Writer, s.Feedback); err != nil {
		log.Printf("[REPORTS]: Failed to render feedback view: %v", err)
	}
}

// ViewAnswers renders the expected-answers guide as a browsable HTML page
func ViewAnswers(c *gin.Context) {
	s, ok := finalizedSession(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.RenderAnswersHTML(c.Writer, s.AnswerKey); err != nil {
		log.Printf("[REPORTS]: Failed to render answers view: %v", err)
	}
}

// servePDF streams a stored report file, 404ing before finalize
func servePDF(c *gin.Context, name string, path func(session.Dir) string) {
	sessionID := c.Param("session_id")

	o := getOrchestrator()
	if _, err := o.GetSession(c.Request.Context(), sessionID); err != nil {
		respondSessionError(c, err)
		return
	}

	pdfPath := path(o.SessionDir(sessionID))
	if _, err := os.Stat(pdfPath); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Report not generated yet, finalize the interview first", err).AsGinResponse())
		return
	}

	c.FileAttachment(pdfPath, name)
}

// finalizedSession loads a session and confirms finalize has run
func finalizedSession(c *gin.Context) (*session.Session, bool) {
	sessionID := c.Param("session_id")

	s, err := getOrchestrator().GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondSessionError(c, err)
		return nil, false
	}

	if s.Feedback == nil || s.AnswerKey == nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Report not generated yet, finalize the interview first", nil).AsGinResponse())
		return nil, false
	}

	return s, true
}

func respondSessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err).AsGinResponse())
		return
	}
	c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Session operation failed", err).AsGinResponse())
}
