package session

import "time"

// Status of an interview session
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Candidate is the profile submitted when the interview starts
type Candidate struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Position   string `json:"position"`
	Experience string `json:"experience"`
	JD         string `json:"jd"`
}

// AnswerRecord holds the per-question transcript and analysis flags.
// One record per question index; re-uploads overwrite (last write wins).
type AnswerRecord struct {
	Text           string    `json:"text"`
	VideoFile      string    `json:"video_file"`
	AudioFile      string    `json:"audio_file,omitempty"`
	SpeechAnalysis bool      `json:"speech_analysis"`
	VideoAnalysis  bool      `json:"video_analysis"`
	Timestamp      time.Time `json:"timestamp"`
}

// Ratings scores one answer on a 1-10 scale per aspect
type Ratings struct {
	Relevance  int `json:"relevance"`
	Clarity    int `json:"clarity"`
	Depth      int `json:"depth"`
	Confidence int `json:"confidence"`
	Overall    int `json:"overall"`
}

// QuestionFeedback is the critique of one answered question
type QuestionFeedback struct {
	Question   string  `json:"question"`
	UserAnswer string  `json:"user_answer"`
	Ratings    Ratings `json:"ratings"`
	Feedback   string  `json:"feedback"`
}

// FeedbackBundle is the full feedback payload produced on finalize
type FeedbackBundle struct {
	Candidate         Candidate          `json:"candidate"`
	QuestionFeedbacks []QuestionFeedback `json:"question_feedbacks"`
	OverallSummary    string             `json:"overall_summary"`
	Recommendations   []string           `json:"recommendations"`
}

// ExpectedAnswer is the model answer guide for one question
type ExpectedAnswer struct {
	Question       string   `json:"question"`
	ExpectedAnswer string   `json:"expected_answer"`
	KeyPoints      []string `json:"key_points"`
}

// AnswerKey is the expected-answers payload produced on finalize
type AnswerKey struct {
	Candidate       Candidate        `json:"candidate"`
	ExpectedAnswers []ExpectedAnswer `json:"expected_answers"`
}

// Session is one candidate's interview attempt. The question list is
// fixed at creation; answers and the finalize payloads mutate over time.
type Session struct {
	ID        string                `json:"session_id"`
	Candidate Candidate             `json:"candidate"`
	Questions []string              `json:"questions"`
	Status    Status                `json:"status"`
	Answers   map[int]*AnswerRecord `json:"transcripts,omitempty"`
	Feedback  *FeedbackBundle       `json:"feedback_data,omitempty"`
	AnswerKey *AnswerKey            `json:"answers_data,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// Clone returns a deep copy so callers can hand sessions across
// goroutines without sharing mutable state
func (s *Session) Clone() *Session {
	clone := *s
	clone.Questions = append([]string(nil), s.Questions...)

	if s.Answers != nil {
		clone.Answers = make(map[int]*AnswerRecord, len(s.Answers))
		for idx, record := range s.Answers {
			copied := *record
			clone.Answers[idx] = &copied
		}
	}

	if s.Feedback != nil {
		feedback := *s.Feedback
		feedback.QuestionFeedbacks = append([]QuestionFeedback(nil), s.Feedback.QuestionFeedbacks...)
		feedback.Recommendations = append([]string(nil), s.Feedback.Recommendations...)
		clone.Feedback = &feedback
	}

	if s.AnswerKey != nil {
		key := *s.AnswerKey
		key.ExpectedAnswers = make([]ExpectedAnswer, len(s.AnswerKey.ExpectedAnswers))
		for i, ans := range s.AnswerKey.ExpectedAnswers {
			ans.KeyPoints = append([]string(nil), ans.KeyPoints...)
			key.ExpectedAnswers[i] = ans
		}
		clone.AnswerKey = &key
	}

	return &clone
}
