package sdk

import "time"

/** Requests */

// CandidateInfo represents the candidate profile submitted to start an interview
type CandidateInfo struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Position   string `json:"position" binding:"required"`
	Experience string `json:"experience" binding:"required"`
	JD         string `json:"jd" binding:"required"`
}

// RegisterRequest represents the request body for creating a new user
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

// LoginRequest represents the request body for authenticating a user
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

/** Responses */

// QuestionResponse is returned after question generation for a new session
type QuestionResponse struct {
	Questions []string `json:"questions"`
	SessionID string   `json:"session_id"`
}

// UploadResponse confirms a video upload and its size
type UploadResponse struct {
	VideoSizeMB float64 `json:"video_size_mb"`
}

// AnswerStatus exposes per-question availability flags for polling
type AnswerStatus struct {
	QuestionIndex  int       `json:"question_index"`
	Transcribed    bool      `json:"transcribed"`
	SpeechAnalysis bool      `json:"speech_analysis"`
	VideoAnalysis  bool      `json:"video_analysis"`
	Timestamp      time.Time `json:"timestamp"`
}

// SessionStatus is the polling view of an interview session
type SessionStatus struct {
	SessionID string         `json:"session_id"`
	Status    string         `json:"status"`
	Questions []string       `json:"questions"`
	Answers   []AnswerStatus `json:"answers"`
}

// KeyStats is the per-credential snapshot exposed by the stats endpoint
type KeyStats struct {
	KeyNumber           int     `json:"key_number"`
	UsageCount          int     `json:"usage_count"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
	TotalFailures       int     `json:"total_failures"`
	Status              string  `json:"status"`
	CooldownSeconds     float64 `json:"cooldown_seconds"`
	TimeSinceSuccess    float64 `json:"time_since_success"`
}

// StatsResponse aggregates credential statistics
type StatsResponse struct {
	APIKeys       []KeyStats `json:"api_keys"`
	TotalRequests int        `json:"total_requests"`
	AvailableKeys int        `json:"available_keys"`
}

// TokenResponse carries a JWT access token after login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserResponse is the public view of a user account
type UserResponse struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	IsActive  bool   `json:"is_active"`
}
