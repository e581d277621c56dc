// Package transcribe converts recorded answers into text with timing
// segments. Transcription is all-or-nothing per answer; callers fall back
// to a placeholder when the engine is unavailable or fails.
package transcribe

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Placeholder transcripts used when no engine result is available
const (
	PlaceholderUnavailable = "[Transcription unavailable - engine not loaded]"
	PlaceholderFailed      = "[Transcription unavailable - engine error]"
)

// Segment is one timed span of transcribed speech
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the transcript for one recorded answer
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Transcriber converts a media file into transcript text plus segments
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*Result, error)
}

// WhisperTranscriber transcribes audio through the Whisper API
type WhisperTranscriber struct {
	client *openai.Client
}

// NewWhisperTranscriber creates a transcriber using the given API key
func NewWhisperTranscriber(apiKey string) *WhisperTranscriber {
	return &WhisperTranscriber{
		client: openai.NewClient(apiKey),
	}
}

// Transcribe runs the audio file through Whisper and collects segments
func (w *WhisperTranscriber) Transcribe(ctx context.Context, path string) (*Result, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
		Language: "en",
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription: %w", err)
	}

	result := &Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
	}

	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			ID:    seg.ID,
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	return result, nil
}
