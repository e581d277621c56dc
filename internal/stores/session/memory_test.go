package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() *Session {
	return &Session{
		ID: "11111111-2222-3333-4444-555555555555",
		Candidate: Candidate{
			Name:       "Ada Lovelace",
			Email:      "ada@example.com",
			Position:   "Backend Engineer",
			Experience: "5 years",
			JD:         "Design and operate Go services.",
		},
		Questions: []string{
			"Tell me about yourself.",
			"Describe a challenging project.",
		},
		Status:    StatusActive,
		CreatedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	store := NewMemoryStore(baseDir)

	s := sampleSession()
	_, err := NewDir(baseDir, s.ID)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, s))

	s.Answers = map[int]*AnswerRecord{
		0: {
			Text:           "I have built distributed systems in Go.",
			VideoFile:      "question_1.webm",
			AudioFile:      "question_1.wav",
			SpeechAnalysis: true,
			VideoAnalysis:  false,
			Timestamp:      time.Date(2025, 6, 1, 9, 5, 0, 0, time.UTC),
		},
	}
	require.NoError(t, store.Put(ctx, s))

	t.Run("get returns an independent copy", func(t *testing.T) {
		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)

		got.Answers[0].Text = "mutated"
		again, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "I have built distributed systems in Go.", again.Answers[0].Text)
	})

	t.Run("disk mirror survives a fresh store", func(t *testing.T) {
		fresh := NewMemoryStore(baseDir)

		got, err := fresh.Get(ctx, s.ID)
		require.NoError(t, err)

		assert.Equal(t, s.Candidate, got.Candidate)
		assert.Equal(t, s.Questions, got.Questions)
		require.Contains(t, got.Answers, 0)
		assert.Equal(t, "I have built distributed systems in Go.", got.Answers[0].Text)
		assert.Equal(t, "question_1.webm", got.Answers[0].VideoFile)
		assert.Equal(t, "question_1.wav", got.Answers[0].AudioFile)
		assert.True(t, got.Answers[0].SpeechAnalysis)
		assert.False(t, got.Answers[0].VideoAnalysis)
	})

	t.Run("missing session yields sentinel", func(t *testing.T) {
		_, err := store.Get(ctx, "no-such-session")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("delete removes session and mirror", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, s.ID))

		_, err := store.Get(ctx, s.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)

		assert.ErrorIs(t, store.Delete(ctx, s.ID), ErrSessionNotFound)
	})
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(t.TempDir())

	first := sampleSession()
	second := sampleSession()
	second.ID = "99999999-8888-7777-6666-555555555555"

	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestDirLayout(t *testing.T) {
	baseDir := t.TempDir()

	d, err := NewDir(baseDir, "abc")
	require.NoError(t, err)

	assert.Contains(t, d.VideoPath(0), "question_1.webm")
	assert.Contains(t, d.AudioPath(1), "question_2.wav")
	assert.Contains(t, d.TranscriptPath(4), "question_5.txt")
	assert.Contains(t, d.SpeechAnalysisPath(0), "speech_analysis_1.json")
	assert.Contains(t, d.VideoAnalysisPath(2), "video_analysis_3.json")
}

func TestMemoryStoreSetAnswer(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	store := NewMemoryStore(baseDir)

	s := sampleSession()
	_, err := NewDir(baseDir, s.ID)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, s))

	t.Run("concurrent writes keep every index", func(t *testing.T) {
		const indexes = 8

		var wg sync.WaitGroup
		wg.Add(indexes)
		for i := 0; i < indexes; i++ {
			go func(idx int) {
				defer wg.Done()
				record := &AnswerRecord{
					Text:      "answer",
					VideoFile: "question.webm",
					Timestamp: time.Now().UTC(),
				}
				assert.NoError(t, store.SetAnswer(ctx, s.ID, idx, record))
			}(i)
		}
		wg.Wait()

		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, got.Answers, indexes)
		for i := 0; i < indexes; i++ {
			assert.Contains(t, got.Answers, i)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		err := store.SetAnswer(ctx, "missing", 0, &AnswerRecord{Text: "answer"})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestMemoryStoreSetStatus(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	store := NewMemoryStore(baseDir)

	s := sampleSession()
	_, err := NewDir(baseDir, s.ID)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, s))

	feedback := &FeedbackBundle{OverallSummary: "Solid performance."}
	key := &AnswerKey{ExpectedAnswers: []ExpectedAnswer{{Question: "Q"}}}

	require.NoError(t, store.SetStatus(ctx, s.ID, StatusCompleted, feedback, key))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, "Solid performance.", got.Feedback.OverallSummary)
	require.NotNil(t, got.AnswerKey)

	assert.ErrorIs(t, store.SetStatus(ctx, "missing", StatusCompleted, nil, nil), ErrSessionNotFound)
}
