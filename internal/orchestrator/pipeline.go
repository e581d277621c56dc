package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/face2phrase/backend/internal/stores/session"
	"github.com/face2phrase/backend/internal/transcribe"
)

// stageOutcome is the typed result of one pipeline stage. A degraded
// stage carries the reason but never aborts the pipeline: every answer
// reaches its finalized record.
type stageOutcome struct {
	ok     bool
	reason string
}

func succeeded() stageOutcome {
	return stageOutcome{ok: true}
}

func degraded(format string, args ...any) stageOutcome {
	return stageOutcome{reason: fmt.Sprintf(format, args...)}
}

// ProcessAnswer validates the upload target and schedules the background
// pipeline for one recorded answer. The upload response does not wait for
// processing; callers poll the session for availability flags.
//
// Two concurrent invocations for the same question index interleave their
// writes (last write wins); uploads for the same index are expected to be
// sequential.
func (o *Orchestrator) ProcessAnswer(ctx context.Context, sessionID string, questionIndex int, videoPath string) error {
	s, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if questionIndex < 0 || questionIndex >= len(s.Questions) {
		return fmt.Errorf("%w: %d", ErrQuestionIndexOutOfRange, questionIndex)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		o.workers <- struct{}{}
		defer func() { <-o.workers }()

		// Background work runs to completion regardless of the client
		// connection, so it gets its own context
		o.runPipeline(context.Background(), sessionID, questionIndex, videoPath)
	}()

	return nil
}

// runPipeline executes Extract -> Transcribe -> Analyze -> Persist for one
// answer. Each stage absorbs its own failure and degrades.
func (o *Orchestrator) runPipeline(ctx context.Context, sessionID string, questionIndex int, videoPath string) {
	dir := o.SessionDir(sessionID)
	audioPath := dir.AudioPath(questionIndex)

	// Stage: audio extraction (optional). Transcription falls back to the
	// original recording when this fails.
	extract := o.extractStage(ctx, videoPath, audioPath)
	if !extract.ok {
		log.Printf("[PIPELINE]: Audio extraction degraded for %s/%d: %s", sessionID, questionIndex, extract.reason)
	}

	// Stage: transcription
	transcriptionInput := audioPath
	if !extract.ok {
		transcriptionInput = videoPath
	}
	text, transcribed := o.transcribeStage(ctx, transcriptionInput)
	if !transcribed.ok {
		log.Printf("[PIPELINE]: Transcription degraded for %s/%d: %s", sessionID, questionIndex, transcribed.reason)
	}

	// Stage: speech analysis, only meaningful over the extracted track
	speech := degraded("audio track unavailable")
	if extract.ok {
		speech = o.speechStage(ctx, audioPath, dir.SpeechAnalysisPath(questionIndex))
	}
	if !speech.ok {
		log.Printf("[PIPELINE]: Speech analysis degraded for %s/%d: %s", sessionID, questionIndex, speech.reason)
	}

	// Stage: video analysis over the original recording
	video := o.videoStage(ctx, videoPath, dir.VideoAnalysisPath(questionIndex))
	if !video.ok {
		log.Printf("[PIPELINE]: Video analysis degraded for %s/%d: %s", sessionID, questionIndex, video.reason)
	}

	// Stage: persist transcript file and the finalized answer record
	if err := o.persistAnswer(ctx, sessionID, questionIndex, persistInput{
		text:       text,
		videoFile:  filepath.Base(videoPath),
		audioFile:  filepath.Base(audioPath),
		audioOK:    extract.ok,
		speechDone: speech.ok,
		videoDone:  video.ok,
		dir:        dir,
	}); err != nil {
		log.Printf("[PIPELINE]: Failed to persist answer for %s/%d: %v", sessionID, questionIndex, err)
		return
	}

	log.Printf("[PIPELINE]: Completed processing for %s/%d (%d chars)", sessionID, questionIndex, len(text))
}

func (o *Orchestrator) extractStage(ctx context.Context, videoPath, audioPath string) stageOutcome {
	if err := o.extractAudio(ctx, videoPath, audioPath); err != nil {
		return degraded("extraction failed: %v", err)
	}
	return succeeded()
}

// transcribeStage always returns non-empty text; a missing or failing
// engine yields a placeholder transcript
func (o *Orchestrator) transcribeStage(ctx context.Context, path string) (string, stageOutcome) {
	if o.opts.Transcriber == nil {
		return transcribe.PlaceholderUnavailable, degraded("no transcription engine configured")
	}

	result, err := o.opts.Transcriber.Transcribe(ctx, path)
	if err != nil {
		return transcribe.PlaceholderFailed, degraded("engine error: %v", err)
	}
	if result.Text == "" {
		return transcribe.PlaceholderFailed, degraded("engine returned empty transcript")
	}

	return result.Text, succeeded()
}

func (o *Orchestrator) speechStage(ctx context.Context, audioPath, outputPath string) stageOutcome {
	if o.opts.SpeechAnalyzer == nil {
		return degraded("no speech analyzer configured")
	}

	features, err := o.opts.SpeechAnalyzer.AnalyzeAudio(ctx, audioPath)
	if err != nil {
		return degraded("analysis failed: %v", err)
	}

	if err := writeJSON(outputPath, map[string]any{"analysis": features}); err != nil {
		return degraded("failed to persist features: %v", err)
	}
	return succeeded()
}

func (o *Orchestrator) videoStage(ctx context.Context, videoPath, outputPath string) stageOutcome {
	if o.opts.VideoAnalyzer == nil {
		return degraded("no video analyzer configured")
	}

	features, err := o.opts.VideoAnalyzer.AnalyzeVideo(ctx, videoPath)
	if err != nil {
		return degraded("analysis failed: %v", err)
	}

	if err := writeJSON(outputPath, map[string]any{"analysis": features}); err != nil {
		return degraded("failed to persist features: %v", err)
	}
	return succeeded()
}

type persistInput struct {
	text       string
	videoFile  string
	audioFile  string
	audioOK    bool
	speechDone bool
	videoDone  bool
	dir        session.Dir
}

// persistAnswer writes the transcript file and the per-question record.
// Re-running for the same index overwrites prior artifacts.
func (o *Orchestrator) persistAnswer(ctx context.Context, sessionID string, questionIndex int, in persistInput) error {
	s, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	transcript := fmt.Sprintf("Question: %s\n\nTranscript:\n%s\n", s.Questions[questionIndex], in.text)
	if err := os.WriteFile(in.dir.TranscriptPath(questionIndex), []byte(transcript), 0o644); err != nil {
		log.Printf("[PIPELINE]: Failed to write transcript file: %v", err)
	}

	record := &session.AnswerRecord{
		Text:           in.text,
		VideoFile:      in.videoFile,
		SpeechAnalysis: in.speechDone,
		VideoAnalysis:  in.videoDone,
		Timestamp:      time.Now().UTC(),
	}
	if in.audioOK {
		record.AudioFile = in.audioFile
	}

	// SetAnswer serializes the session mutation; a Get/Put cycle here
	// would let concurrent pipelines for other indexes lose this record
	return o.store.SetAnswer(ctx, sessionID, questionIndex, record)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write analysis: %w", err)
	}
	return nil
}
