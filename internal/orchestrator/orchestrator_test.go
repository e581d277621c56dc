package orchestrator

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/face2phrase/backend/internal/stores/session"
	"github.com/face2phrase/backend/pkg/keypool"
)

// fastScheduler builds a scheduler with effectively no retry delays
func fastScheduler(gen keypool.GeneratorFunc, maxAttempts int) *keypool.Scheduler {
	pool := keypool.NewPool([]string{"key-a", "key-b"}, time.Minute)
	return keypool.NewScheduler(pool, gen, &keypool.SchedulerOptions{
		MaxAttempts:    maxAttempts,
		CallTimeout:    time.Second,
		RetryDelay:     time.Nanosecond,
		RateLimitDelay: time.Nanosecond,
	})
}

func testCandidate() session.Candidate {
	return session.Candidate{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Position:   "Backend Engineer",
		Experience: "5 years",
		JD:         "Design and operate Go services.",
	}
}

func newTestOrchestrator(t *testing.T, gen keypool.GeneratorFunc, mutate func(*Options)) (*Orchestrator, *session.MemoryStore, string) {
	t.Helper()

	baseDir := t.TempDir()
	store := session.NewMemoryStore(baseDir)

	opts := Options{
		Store:     store,
		Scheduler: fastScheduler(gen, 4),
		BaseDir:   baseDir,
		Workers:   2,
	}
	if mutate != nil {
		mutate(&opts)
	}

	o, err := New(opts)
	require.NoError(t, err)
	return o, store, baseDir
}

func TestGenerateQuestions(t *testing.T) {
	t.Run("parses the numbered question list", func(t *testing.T) {
		gen := keypool.GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			return "Here are your questions:\n" +
				"1. What draws you to this role?\n" +
				"2. Describe a production incident you handled.\n" +
				"3. How do you approach testing?\n" +
				"4. Explain a system you designed.\n" +
				"5. Where do you want to grow next?\n", nil
		})

		o, store, _ := newTestOrchestrator(t, gen, nil)

		s, err := o.GenerateQuestions(context.Background(), testCandidate())
		require.NoError(t, err)

		assert.Len(t, s.Questions, 5)
		assert.Equal(t, "What draws you to this role?", s.Questions[0])
		assert.Equal(t, "Where do you want to grow next?", s.Questions[4])
		assert.Equal(t, session.StatusActive, s.Status)

		stored, err := store.Get(context.Background(), s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.Questions, stored.Questions)
	})

	t.Run("pads short output with fallback questions", func(t *testing.T) {
		gen := keypool.GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			return "1. Only one question came back.", nil
		})

		o, _, _ := newTestOrchestrator(t, gen, nil)

		s, err := o.GenerateQuestions(context.Background(), testCandidate())
		require.NoError(t, err)

		require.Len(t, s.Questions, 5)
		assert.Equal(t, "Only one question came back.", s.Questions[0])
		assert.Equal(t, "Tell me about yourself and why you're interested in this position.", s.Questions[1])
	})

	t.Run("creates the session directory tree", func(t *testing.T) {
		gen := keypool.GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			return "1. A question.", nil
		})

		o, _, baseDir := newTestOrchestrator(t, gen, nil)

		s, err := o.GenerateQuestions(context.Background(), testCandidate())
		require.NoError(t, err)

		for _, sub := range []string{"videos", "audio", "transcripts", "reports"} {
			info, err := os.Stat(session.OpenDir(baseDir, s.ID).Root + "/" + sub)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
	})

	t.Run("surfaces credential exhaustion", func(t *testing.T) {
		gen := keypool.GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
			return "", errors.New("backend unavailable")
		})

		o, _, _ := newTestOrchestrator(t, gen, nil)

		_, err := o.GenerateQuestions(context.Background(), testCandidate())
		require.Error(t, err)

		var exhausted *keypool.CredentialsExhaustedError
		assert.ErrorAs(t, err, &exhausted)
	})
}

func TestParseNumberedQuestions(t *testing.T) {
	t.Run("ignores prose and blank lines", func(t *testing.T) {
		questions := parseNumberedQuestions("Sure!\n\n1. First?\nSome commentary.\n2. Second?\n")
		assert.Equal(t, []string{"First?", "Second?"}, questions)
	})

	t.Run("drops empty numbered entries", func(t *testing.T) {
		questions := parseNumberedQuestions("1.   \n2. Real question?")
		assert.Equal(t, []string{"Real question?"}, questions)
	})
}

func TestCleanupStale(t *testing.T) {
	gen := keypool.GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
		return "1. A question.", nil
	})

	o, store, _ := newTestOrchestrator(t, gen, nil)
	ctx := context.Background()

	old := &session.Session{
		ID:        "old-active",
		Questions: []string{"q"},
		Status:    session.StatusActive,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	done := &session.Session{
		ID:        "old-completed",
		Questions: []string{"q"},
		Status:    session.StatusCompleted,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	fresh := &session.Session{
		ID:        "fresh-active",
		Questions: []string{"q"},
		Status:    session.StatusActive,
		CreatedAt: time.Now(),
	}

	require.NoError(t, store.Create(ctx, old))
	require.NoError(t, store.Create(ctx, done))
	require.NoError(t, store.Create(ctx, fresh))

	removed := o.CleanupStale(ctx, 24*time.Hour)
	assert.Equal(t, 1, removed)

	_, err := store.Get(ctx, "old-active")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = store.Get(ctx, "old-completed")
	assert.NoError(t, err)

	_, err = store.Get(ctx, "fresh-active")
	assert.NoError(t, err)
}
