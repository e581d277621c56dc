package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/face2phrase/backend/internal/prompts"
	"github.com/face2phrase/backend/internal/stores/session"
)

// feedbackPayload is the structured shape expected from a critique call
type feedbackPayload struct {
	Ratings  session.Ratings `json:"ratings"`
	Feedback string          `json:"feedback"`
}

// answerPayload is the structured shape expected from an ideal-answer call
type answerPayload struct {
	ExpectedAnswer string   `json:"expected_answer"`
	KeyPoints      []string `json:"key_points"`
}

// summaryPayload is the structured shape expected from the summary call
type summaryPayload struct {
	OverallSummary  string   `json:"overall_summary"`
	Recommendations []string `json:"recommendations"`
}

// parseNumberedQuestions extracts "N. question" lines from model output
func parseNumberedQuestions(text string) []string {
	var questions []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 3 || line[0] < '1' || line[0] > '9' || line[1] != '.' {
			continue
		}

		question := strings.TrimSpace(line[2:])
		if question != "" {
			questions = append(questions, question)
		}
	}

	return questions
}

// stripCodeFences removes markdown code fencing around model JSON output
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
	}

	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	return strings.TrimSpace(text)
}

func parseFeedback(text string) (feedbackPayload, error) {
	var payload feedbackPayload
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &payload); err != nil {
		return feedbackPayload{}, fmt.Errorf("invalid feedback payload: %w", err)
	}
	if payload.Feedback == "" {
		return feedbackPayload{}, fmt.Errorf("feedback payload missing commentary")
	}
	return payload, nil
}

func parseAnswer(text string) (answerPayload, error) {
	var payload answerPayload
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &payload); err != nil {
		return answerPayload{}, fmt.Errorf("invalid answer payload: %w", err)
	}
	if payload.ExpectedAnswer == "" {
		return answerPayload{}, fmt.Errorf("answer payload missing expected answer")
	}
	return payload, nil
}

// parseSummary tries the structured payload first, then falls back to
// heuristic line classification. The heuristic is lossy by design: lines
// led by a digit or bullet become recommendations, long plain lines
// become summary sentences.
func parseSummary(text string) (string, []string) {
	var payload summaryPayload
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &payload); err == nil {
		summary := strings.TrimSpace(payload.OverallSummary)

		var recommendations []string
		for _, rec := range payload.Recommendations {
			if rec = strings.TrimSpace(rec); rec != "" {
				recommendations = append(recommendations, rec)
			}
		}

		if summary != "" || len(recommendations) > 0 {
			return summary, recommendations
		}
	}

	var summaryLines, recommendations []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isBulleted(line) {
			rec := strings.TrimLeft(line, "0123456789.-•* ")
			if len(rec) > 10 {
				recommendations = append(recommendations, rec)
			}
			continue
		}

		if len(summaryLines) < 3 && len(line) > 20 {
			summaryLines = append(summaryLines, line)
		}
	}

	return strings.Join(summaryLines, " "), recommendations
}

func isBulleted(line string) bool {
	if line == "" {
		return false
	}
	if line[0] >= '0' && line[0] <= '9' {
		return true
	}
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "*")
}

// averageRatings renders the per-aspect averages for the summary prompt
func averageRatings(feedbacks []session.QuestionFeedback) string {
	if len(feedbacks) == 0 {
		return ""
	}

	var relevance, clarity, depth, confidence, overall int
	for _, qf := range feedbacks {
		relevance += qf.Ratings.Relevance
		clarity += qf.Ratings.Clarity
		depth += qf.Ratings.Depth
		confidence += qf.Ratings.Confidence
		overall += qf.Ratings.Overall
	}

	n := float64(len(feedbacks))
	return fmt.Sprintf(
		"relevance: %.1f/10, clarity: %.1f/10, depth: %.1f/10, confidence: %.1f/10, overall: %.1f/10",
		float64(relevance)/n, float64(clarity)/n, float64(depth)/n, float64(confidence)/n, float64(overall)/n,
	)
}

// defaultSummary is the last-resort overall summary when both the model
// call and the parsing fallbacks yield nothing usable
func defaultSummary(questionCount int, feedbacks []session.QuestionFeedback) string {
	var overall float64 = 7
	if len(feedbacks) > 0 {
		sum := 0
		for _, qf := range feedbacks {
			sum += qf.Ratings.Overall
		}
		overall = float64(sum) / float64(len(feedbacks))
	}

	return fmt.Sprintf(
		"The candidate completed %d interview questions with an average overall rating of %.1f/10. "+
			"Performance showed both strengths and areas for development across technical and behavioral responses. "+
			"Further improvement in clarity and depth would enhance interview performance.",
		questionCount, overall,
	)
}

// padRecommendations trims and pads the recommendation list to exactly five
func padRecommendations(recommendations []string) []string {
	cleaned := make([]string, 0, 5)
	for _, rec := range recommendations {
		if rec = strings.TrimSpace(rec); rec != "" {
			cleaned = append(cleaned, rec)
		}
		if len(cleaned) == 5 {
			return cleaned
		}
	}

	for _, rec := range prompts.DefaultRecommendations {
		if len(cleaned) == 5 {
			break
		}
		cleaned = append(cleaned, rec)
	}

	return cleaned
}
