// Package orchestrator coordinates the interview flow: question
// generation, the per-answer background pipeline, and the finalize
// fan-out that produces feedback and expected answers.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/face2phrase/backend/internal/analysis"
	"github.com/face2phrase/backend/internal/media"
	"github.com/face2phrase/backend/internal/prompts"
	"github.com/face2phrase/backend/internal/stores/session"
	"github.com/face2phrase/backend/internal/transcribe"
	"github.com/face2phrase/backend/pkg/keypool"
)

// DefaultWorkers bounds how many answer pipelines run concurrently
const DefaultWorkers = 4

// DefaultSessionTTL is how long an abandoned active session survives
// before the cleanup sweep removes it
const DefaultSessionTTL = 24 * time.Hour

// ErrQuestionIndexOutOfRange is returned when an upload or analysis
// request references a question index outside the session's question list
var ErrQuestionIndexOutOfRange = errors.New("question index out of range")

// Reporter renders the finalize payloads into downloadable reports.
// Report generation failures degrade, they never fail a finalize.
type Reporter interface {
	BuildFeedbackPDF(dir session.Dir, feedback *session.FeedbackBundle) error
	BuildAnswersPDF(dir session.Dir, key *session.AnswerKey) error
}

// Options contains the collaborators wired into an Orchestrator.
// Transcriber, SpeechAnalyzer, VideoAnalyzer and Reporter are optional;
// missing ones degrade the matching pipeline stage.
type Options struct {
	Store          session.Store
	Scheduler      *keypool.Scheduler
	Transcriber    transcribe.Transcriber
	SpeechAnalyzer analysis.SpeechAnalyzer
	VideoAnalyzer  analysis.VideoAnalyzer
	Reporter       Reporter
	BaseDir        string
	Workers        int
}

// Orchestrator runs the interview session state machine
type Orchestrator struct {
	store   session.Store
	sched   *keypool.Scheduler
	lib     *prompts.Library
	opts    Options
	workers chan struct{}
	wg      sync.WaitGroup

	// extractAudio is swappable for tests
	extractAudio func(ctx context.Context, videoPath, audioPath string) error
}

// New creates an orchestrator from the given collaborators
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, errors.New("a session store must be provided")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("a scheduler must be provided")
	}
	if opts.BaseDir == "" {
		return nil, errors.New("a base directory must be provided")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	lib, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		store:        opts.Store,
		sched:        opts.Scheduler,
		lib:          lib,
		opts:         opts,
		workers:      make(chan struct{}, opts.Workers),
		extractAudio: media.ExtractAudio,
	}, nil
}

// Store returns the underlying session store
func (o *Orchestrator) Store() session.Store {
	return o.store
}

// Wait blocks until all in-flight background pipelines have finished
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// GenerateQuestions asks the language model for a question set, creates
// the session and its directory tree, and persists the initial state.
// The parsed question list is padded with fixed fallbacks to exactly five.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, candidate session.Candidate) (*session.Session, error) {
	prompt, err := o.lib.QuestionGeneration(candidate.Position, candidate.Experience, candidate.JD)
	if err != nil {
		return nil, err
	}

	text, err := o.sched.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	questions := parseNumberedQuestions(text)
	for _, fallback := range prompts.FallbackQuestions {
		if len(questions) >= prompts.QuestionCount {
			break
		}
		questions = append(questions, fallback)
	}
	questions = questions[:prompts.QuestionCount]

	s := &session.Session{
		ID:        uuid.New().String(),
		Candidate: candidate,
		Questions: questions,
		Status:    session.StatusActive,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := session.NewDir(o.opts.BaseDir, s.ID); err != nil {
		return nil, err
	}
	if err := o.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	log.Printf("[ORCHESTRATOR]: Generated questions for session %s", s.ID)
	return s, nil
}

// GetSession fetches a session after validating it exists
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return o.store.Get(ctx, sessionID)
}

// SessionDir resolves the artifact directory for a session
func (o *Orchestrator) SessionDir(sessionID string) session.Dir {
	return session.OpenDir(o.opts.BaseDir, sessionID)
}

// CleanupStale deletes active sessions older than maxAge. Completed
// sessions are kept so reports stay downloadable.
func (o *Orchestrator) CleanupStale(ctx context.Context, maxAge time.Duration) int {
	sessions, err := o.store.List(ctx)
	if err != nil {
		log.Printf("[ORCHESTRATOR]: Cleanup list failed: %v", err)
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, s := range sessions {
		if s.Status == session.StatusActive && s.CreatedAt.Before(cutoff) {
			if err := o.store.Delete(ctx, s.ID); err != nil {
				log.Printf("[ORCHESTRATOR]: Cleanup of session %s failed: %v", s.ID, err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		log.Printf("[ORCHESTRATOR]: Cleaned up %d stale sessions", removed)
	}
	return removed
}
