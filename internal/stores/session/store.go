// Package session holds the interview session model and its storage.
// The Store interface keeps the backing store swappable (memory with a
// disk mirror by default, MySQL via GORM when configured) without
// touching orchestration logic.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSessionNotFound is returned when a session id resolves to nothing
var ErrSessionNotFound = errors.New("session not found")

// Store interface defines methods for session storage.
// SetAnswer and SetStatus mutate a session atomically; concurrent
// pipelines must use them instead of a Get/Put cycle so records for
// sibling question indexes cannot overwrite each other.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	SetAnswer(ctx context.Context, id string, idx int, record *AnswerRecord) error
	SetStatus(ctx context.Context, id string, status Status, feedback *FeedbackBundle, key *AnswerKey) error
	List(ctx context.Context) ([]*Session, error)
	Delete(ctx context.Context, id string) error
}

// Dir resolves the on-disk layout for one session's artifacts
type Dir struct {
	Root string
}

// NewDir creates the directory tree for a session
func NewDir(baseDir, sessionID string) (Dir, error) {
	d := Dir{Root: filepath.Join(baseDir, sessionID)}

	for _, sub := range []string{"videos", "audio", "transcripts", "reports"} {
		if err := os.MkdirAll(filepath.Join(d.Root, sub), 0o755); err != nil {
			return Dir{}, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	return d, nil
}

// OpenDir resolves an existing session directory without creating it
func OpenDir(baseDir, sessionID string) Dir {
	return Dir{Root: filepath.Join(baseDir, sessionID)}
}

// Question indices are 0-based internally; files are numbered from 1 to
// match what candidates see.

func (d Dir) VideoPath(idx int) string {
	return filepath.Join(d.Root, "videos", fmt.Sprintf("question_%d.webm", idx+1))
}

func (d Dir) AudioPath(idx int) string {
	return filepath.Join(d.Root, "audio", fmt.Sprintf("question_%d.wav", idx+1))
}

func (d Dir) TranscriptPath(idx int) string {
	return filepath.Join(d.Root, "transcripts", fmt.Sprintf("question_%d.txt", idx+1))
}

func (d Dir) SpeechAnalysisPath(idx int) string {
	return filepath.Join(d.Root, "reports", fmt.Sprintf("speech_analysis_%d.json", idx+1))
}

func (d Dir) VideoAnalysisPath(idx int) string {
	return filepath.Join(d.Root, "reports", fmt.Sprintf("video_analysis_%d.json", idx+1))
}

func (d Dir) MetadataPath() string {
	return filepath.Join(d.Root, "metadata.json")
}

func (d Dir) FeedbackPDFPath() string {
	return filepath.Join(d.Root, "reports", "feedback_report.pdf")
}

func (d Dir) AnswersPDFPath() string {
	return filepath.Join(d.Root, "reports", "expected_answers.pdf")
}
