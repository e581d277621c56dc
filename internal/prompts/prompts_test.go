package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	lib, err := Load()
	require.NoError(t, err)
	require.NotNil(t, lib)
}

func TestQuestionGeneration(t *testing.T) {
	lib, err := Load()
	require.NoError(t, err)

	t.Run("renders candidate fields", func(t *testing.T) {
		prompt, err := lib.QuestionGeneration("Backend Engineer", "5 years", "Build Go services.")
		require.NoError(t, err)

		assert.Contains(t, prompt, "Position: Backend Engineer")
		assert.Contains(t, prompt, "Experience: 5 years")
		assert.Contains(t, prompt, "Build Go services.")
		assert.Contains(t, prompt, "Numbered 1-5")
	})

	t.Run("truncates long job descriptions", func(t *testing.T) {
		jd := strings.Repeat("x", 2000)
		prompt, err := lib.QuestionGeneration("Backend Engineer", "5 years", jd)
		require.NoError(t, err)

		assert.NotContains(t, prompt, strings.Repeat("x", 501))
		assert.Contains(t, prompt, strings.Repeat("x", 500))
	})
}

func TestFeedbackAndExpectedAnswer(t *testing.T) {
	lib, err := Load()
	require.NoError(t, err)

	prompt, err := lib.Feedback("What is a goroutine?", "A lightweight thread.")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Question: What is a goroutine?")
	assert.Contains(t, prompt, "Answer: A lightweight thread.")
	assert.Contains(t, prompt, `"ratings"`)

	prompt, err = lib.ExpectedAnswer("Backend Engineer", "What is a goroutine?")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Position: Backend Engineer")
	assert.Contains(t, prompt, `"key_points"`)
}

func TestSummary(t *testing.T) {
	lib, err := Load()
	require.NoError(t, err)

	prompt, err := lib.Summary(5, "relevance: 7.0/10, overall: 6.8/10")
	require.NoError(t, err)

	assert.Contains(t, prompt, "5 interview questions")
	assert.Contains(t, prompt, "relevance: 7.0/10")
	assert.Contains(t, prompt, "ONLY valid JSON")
}

func TestFixedFallbacks(t *testing.T) {
	assert.Len(t, FallbackQuestions, QuestionCount)
	assert.Len(t, DefaultRecommendations, 5)
}
