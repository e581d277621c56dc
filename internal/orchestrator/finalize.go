package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/face2phrase/backend/internal/stores/session"
)

// noResponseText stands in for questions the candidate never answered
const noResponseText = "No response recorded"

// Neutral fallbacks used when an individual per-question call fails or
// returns unparseable output
var (
	fallbackFeedback = feedbackPayload{
		Ratings:  session.Ratings{Relevance: 7, Clarity: 7, Depth: 7, Confidence: 7, Overall: 7},
		Feedback: "Good attempt.",
	}

	fallbackAnswer = answerPayload{
		ExpectedAnswer: "Well-structured answer with examples.",
		KeyPoints:      []string{"Key point 1", "Key point 2", "Key point 3"},
	}
)

// Finalize fans out critique and ideal-answer calls for every question,
// assembles the feedback and expected-answer bundles, asks for one
// aggregate summary, and marks the session completed.
//
// Individual call failures never abort the finalize; they are replaced by
// neutral fallbacks. The summary has its own fallback chain, so the only
// error a caller sees is a missing session or a failed persist.
func (o *Orchestrator) Finalize(ctx context.Context, sessionID string) (*session.FeedbackBundle, *session.AnswerKey, error) {
	s, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	count := len(s.Questions)
	log.Printf("[ORCHESTRATOR]: Finalizing session %s (%d parallel calls)", sessionID, 2*count)

	feedbacks := make([]feedbackPayload, count)
	answers := make([]answerPayload, count)

	// Fan out 2xQ scheduler calls; results are re-associated by index,
	// not by arrival order
	var wg sync.WaitGroup
	for idx := 0; idx < count; idx++ {
		question := s.Questions[idx]
		userAnswer := answerText(s, idx)

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			feedbacks[idx] = o.feedbackCall(ctx, question, userAnswer)
		}(idx)

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			answers[idx] = o.answerCall(ctx, s.Candidate.Position, question)
		}(idx)
	}
	wg.Wait()

	feedback := &session.FeedbackBundle{Candidate: s.Candidate}
	key := &session.AnswerKey{Candidate: s.Candidate}

	for idx := 0; idx < count; idx++ {
		feedback.QuestionFeedbacks = append(feedback.QuestionFeedbacks, session.QuestionFeedback{
			Question:   s.Questions[idx],
			UserAnswer: answerText(s, idx),
			Ratings:    feedbacks[idx].Ratings,
			Feedback:   feedbacks[idx].Feedback,
		})

		key.ExpectedAnswers = append(key.ExpectedAnswers, session.ExpectedAnswer{
			Question:       s.Questions[idx],
			ExpectedAnswer: answers[idx].ExpectedAnswer,
			KeyPoints:      answers[idx].KeyPoints,
		})
	}

	feedback.OverallSummary, feedback.Recommendations = o.summaryCall(ctx, feedback.QuestionFeedbacks)

	if err := o.store.SetStatus(ctx, sessionID, session.StatusCompleted, feedback, key); err != nil {
		return nil, nil, fmt.Errorf("failed to persist finalized session: %w", err)
	}

	o.buildReports(sessionID, feedback, key)

	log.Printf("[ORCHESTRATOR]: Session %s finalized", sessionID)
	return feedback, key, nil
}

// answerText pulls the recorded transcript for a question, tolerating
// missing records
func answerText(s *session.Session, idx int) string {
	if record, ok := s.Answers[idx]; ok && record.Text != "" {
		return record.Text
	}
	return noResponseText
}

// feedbackCall runs one critique call, falling back to the neutral rating
func (o *Orchestrator) feedbackCall(ctx context.Context, question, userAnswer string) feedbackPayload {
	prompt, err := o.lib.Feedback(question, userAnswer)
	if err != nil {
		return fallbackFeedback
	}

	text, err := o.sched.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[ORCHESTRATOR]: Feedback call failed: %v", err)
		return fallbackFeedback
	}

	payload, err := parseFeedback(text)
	if err != nil {
		log.Printf("[ORCHESTRATOR]: Feedback parse failed: %v", err)
		return fallbackFeedback
	}
	return payload
}

// answerCall runs one ideal-answer call, falling back to the stock answer
func (o *Orchestrator) answerCall(ctx context.Context, position, question string) answerPayload {
	prompt, err := o.lib.ExpectedAnswer(position, question)
	if err != nil {
		return fallbackAnswer
	}

	text, err := o.sched.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[ORCHESTRATOR]: Expected-answer call failed: %v", err)
		return fallbackAnswer
	}

	payload, err := parseAnswer(text)
	if err != nil {
		log.Printf("[ORCHESTRATOR]: Expected-answer parse failed: %v", err)
		return fallbackAnswer
	}
	return payload
}

// summaryCall produces the overall summary and exactly five
// recommendations, degrading through structured parse, heuristic line
// split, and fixed defaults
func (o *Orchestrator) summaryCall(ctx context.Context, feedbacks []session.QuestionFeedback) (string, []string) {
	averages := averageRatings(feedbacks)

	prompt, err := o.lib.Summary(len(feedbacks), averages)
	if err != nil {
		return defaultSummary(len(feedbacks), feedbacks), padRecommendations(nil)
	}

	text, err := o.sched.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[ORCHESTRATOR]: Summary call failed: %v", err)
		return defaultSummary(len(feedbacks), feedbacks), padRecommendations(nil)
	}

	summary, recommendations := parseSummary(text)
	if summary == "" {
		summary = defaultSummary(len(feedbacks), feedbacks)
	}
	return summary, padRecommendations(recommendations)
}

// buildReports renders the PDF artifacts; failures only cost downloads
func (o *Orchestrator) buildReports(sessionID string, feedback *session.FeedbackBundle, key *session.AnswerKey) {
	if o.opts.Reporter == nil {
		return
	}

	dir := o.SessionDir(sessionID)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := o.opts.Reporter.BuildFeedbackPDF(dir, feedback); err != nil {
			log.Printf("[ORCHESTRATOR]: Feedback PDF failed for %s: %v", sessionID, err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := o.opts.Reporter.BuildAnswersPDF(dir, key); err != nil {
			log.Printf("[ORCHESTRATOR]: Answers PDF failed for %s: %v", sessionID, err)
		}
	}()
	wg.Wait()
}
