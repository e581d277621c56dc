package interview

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/face2phrase/backend/internal/orchestrator"
	"github.com/face2phrase/backend/internal/stores/session"
	"github.com/face2phrase/backend/pkg/keypool"
	"github.com/face2phrase/backend/pkg/sdk"
)

var svc *orchestrator.Orchestrator

// Attach the orchestrator the interview module runs off of
func Init(o *orchestrator.Orchestrator) {
	svc = o
}

func getOrchestrator() *orchestrator.Orchestrator {
	if svc == nil {
		log.Fatal("[INTERVIEW]: Interview module is not initialized")
	}
	return svc
}

// GenerateQuestions handles POST requests to start a new interview session
func GenerateQuestions(c *gin.Context) {
	// Parse request body
	var req sdk.CandidateInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	candidate := session.Candidate{
		Name:       req.Name,
		Email:      req.Email,
		Position:   req.Position,
		Experience: req.Experience,
		JD:         req.JD,
	}

	s, err := getOrchestrator().GenerateQuestions(c.Request.Context(), candidate)
	if err != nil {
		var exhausted *keypool.CredentialsExhaustedError
		if errors.As(err, &exhausted) {
			c.JSON(sdk.NewErrorResponse(http.StatusTooManyRequests, "All API credentials are rate limited, try again shortly", err).AsGinResponse())
			return
		}
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to generate questions", err).AsGinResponse())
		return
	}

	resp := sdk.QuestionResponse{Questions: s.Questions, SessionID: s.ID}
	c.JSON(sdk.NewSuccessResponse("Questions generated successfully", resp).AsGinResponse())
}

// UploadVideo handles multipart POST requests with one answer recording.
// The response returns as soon as the file is on disk; transcription and
// analysis continue in the background.
func UploadVideo(c *gin.Context) {
	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Missing session_id field", nil).AsGinResponse())
		return
	}

	questionIndex, err := strconv.Atoi(c.PostForm("question_index"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid question_index field", err).AsGinResponse())
		return
	}

	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Missing video file", err).AsGinResponse())
		return
	}

	o := getOrchestrator()

	// Confirm the session and index before the file write so bad
	// requests never leave files behind
	s, err := o.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	if questionIndex < 0 || questionIndex >= len(s.Questions) {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Question index out of range", orchestrator.ErrQuestionIndexOutOfRange).AsGinResponse())
		return
	}

	videoPath := o.SessionDir(sessionID).VideoPath(questionIndex)
	if err := c.SaveUploadedFile(file, videoPath); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to store video", err).AsGinResponse())
		return
	}

	if err := o.ProcessAnswer(c.Request.Context(), sessionID, questionIndex, videoPath); err != nil {
		if errors.Is(err, orchestrator.ErrQuestionIndexOutOfRange) {
			c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Question index out of range", err).AsGinResponse())
			return
		}
		respondSessionError(c, err)
		return
	}

	resp := sdk.UploadResponse{VideoSizeMB: float64(file.Size) / (1024 * 1024)}
	c.JSON(sdk.NewSuccessResponse("Video uploaded, processing started", resp).AsGinResponse())
}

// Finalize handles POST requests to produce the feedback and
// expected-answer bundles for a session
func Finalize(c *gin.Context) {
	sessionID := c.Param("session_id")

	feedback, _, err := getOrchestrator().Finalize(c.Request.Context(), sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Interview finalized successfully", feedback).AsGinResponse())
}

// GetSession handles GET requests polling for session status
func GetSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	s, err := getOrchestrator().GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session retrieved successfully", toSessionStatus(s)).AsGinResponse())
}

// GetSpeechAnalysis returns the stored speech analysis for one answer
func GetSpeechAnalysis(c *gin.Context) {
	analysisFile(c, func(dir session.Dir, idx int) string {
		return dir.SpeechAnalysisPath(idx)
	})
}

// GetVideoAnalysis returns the stored video analysis for one answer
func GetVideoAnalysis(c *gin.Context) {
	analysisFile(c, func(dir session.Dir, idx int) string {
		return dir.VideoAnalysisPath(idx)
	})
}

// GetCombinedAnalysis returns every stored analysis for a session keyed
// by question index
func GetCombinedAnalysis(c *gin.Context) {
	sessionID := c.Param("session_id")

	o := getOrchestrator()
	s, err := o.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	dir := o.SessionDir(sessionID)
	combined := map[string]map[string]json.RawMessage{}

	for idx, record := range s.Answers {
		entry := map[string]json.RawMessage{}
		if record.SpeechAnalysis {
			if raw, err := os.ReadFile(dir.SpeechAnalysisPath(idx)); err == nil {
				entry["speech"] = json.RawMessage(raw)
			}
		}
		if record.VideoAnalysis {
			if raw, err := os.ReadFile(dir.VideoAnalysisPath(idx)); err == nil {
				entry["video"] = json.RawMessage(raw)
			}
		}
		if len(entry) > 0 {
			combined[strconv.Itoa(idx)] = entry
		}
	}

	c.JSON(sdk.NewSuccessResponse("Combined analysis retrieved successfully", combined).AsGinResponse())
}

// analysisFile serves one stored analysis JSON file
func analysisFile(c *gin.Context, path func(session.Dir, int) string) {
	sessionID := c.Param("session_id")

	questionIndex, err := strconv.Atoi(c.Param("question_index"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid question index", err).AsGinResponse())
		return
	}

	o := getOrchestrator()
	if _, err := o.GetSession(c.Request.Context(), sessionID); err != nil {
		respondSessionError(c, err)
		return
	}

	raw, err := os.ReadFile(path(o.SessionDir(sessionID), questionIndex))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Analysis not available", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Analysis retrieved successfully", json.RawMessage(raw)).AsGinResponse())
}

// respondSessionError maps store errors onto HTTP codes
func respondSessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err).AsGinResponse())
		return
	}
	c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Session operation failed", err).AsGinResponse())
}

// Helper method to convert an internal session to its polling view
func toSessionStatus(s *session.Session) sdk.SessionStatus {
	resp := sdk.SessionStatus{
		SessionID: s.ID,
		Status:    string(s.Status),
		Questions: s.Questions,
		Answers:   []sdk.AnswerStatus{},
	}

	indexes := make([]int, 0, len(s.Answers))
	for idx := range s.Answers {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	for _, idx := range indexes {
		record := s.Answers[idx]
		resp.Answers = append(resp.Answers, sdk.AnswerStatus{
			QuestionIndex:  idx,
			Transcribed:    record.Text != "",
			SpeechAnalysis: record.SpeechAnalysis,
			VideoAnalysis:  record.VideoAnalysis,
			Timestamp:      record.Timestamp,
		})
	}

	return resp
}
