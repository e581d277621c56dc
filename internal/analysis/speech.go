// Package analysis defines the feature-extraction collaborators invoked by
// the orchestrator. The orchestrator treats the resulting bundles as
// opaque: it persists them and flips availability flags, nothing more.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/face2phrase/backend/internal/media"
)

// analyzeTimeout bounds one ffmpeg analysis pass
const analyzeTimeout = 60 * time.Second

// SpeechFeatures is the acoustic feature bundle for one answer
type SpeechFeatures struct {
	AudioInfo struct {
		Duration   float64 `json:"duration"`
		SampleRate int     `json:"sample_rate"`
	} `json:"audio_info"`
	Energy struct {
		MeanVolumeDB float64 `json:"mean_volume_db"`
		MaxVolumeDB  float64 `json:"max_volume_db"`
	} `json:"energy"`
	SpeechRate struct {
		TotalSpeechTime   float64 `json:"total_speech_time"`
		TotalDuration     float64 `json:"total_duration"`
		SpeakingTimeRatio float64 `json:"speaking_time_ratio"`
	} `json:"speech_rate"`
	AnalyzedAt time.Time `json:"analysis_timestamp"`
}

// SpeechAnalyzer computes acoustic features from an extracted audio track
type SpeechAnalyzer interface {
	AnalyzeAudio(ctx context.Context, audioPath string) (*SpeechFeatures, error)
}

// FfmpegSpeechAnalyzer derives a shallow acoustic bundle from ffmpeg's
// volumedetect and silencedetect filters
type FfmpegSpeechAnalyzer struct{}

// NewSpeechAnalyzer creates the default ffmpeg-backed speech analyzer
func NewSpeechAnalyzer() *FfmpegSpeechAnalyzer {
	return &FfmpegSpeechAnalyzer{}
}

var (
	meanVolumeRe      = regexp.MustCompile(`mean_volume:\s*(-?[0-9.]+)\s*dB`)
	maxVolumeRe       = regexp.MustCompile(`max_volume:\s*(-?[0-9.]+)\s*dB`)
	silenceDurationRe = regexp.MustCompile(`silence_duration:\s*([0-9.]+)`)
)

// AnalyzeAudio probes the audio file and runs the ffmpeg volume and
// silence filters to build the feature bundle
func (a *FfmpegSpeechAnalyzer) AnalyzeAudio(ctx context.Context, audioPath string) (*SpeechFeatures, error) {
	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	info, err := media.Probe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe audio: %w", err)
	}

	stderr, err := runFilter(ctx, audioPath, "volumedetect,silencedetect=noise=-30dB:d=0.5")
	if err != nil {
		return nil, fmt.Errorf("failed to run audio filters: %w", err)
	}

	features := &SpeechFeatures{AnalyzedAt: time.Now().UTC()}
	features.AudioInfo.Duration = info.Duration
	features.AudioInfo.SampleRate = info.SampleRate

	if m := meanVolumeRe.FindSubmatch(stderr); m != nil {
		features.Energy.MeanVolumeDB, _ = strconv.ParseFloat(string(m[1]), 64)
	}
	if m := maxVolumeRe.FindSubmatch(stderr); m != nil {
		features.Energy.MaxVolumeDB, _ = strconv.ParseFloat(string(m[1]), 64)
	}

	var silence float64
	for _, m := range silenceDurationRe.FindAllSubmatch(stderr, -1) {
		d, _ := strconv.ParseFloat(string(m[1]), 64)
		silence += d
	}

	speech := info.Duration - silence
	if speech < 0 {
		speech = 0
	}

	features.SpeechRate.TotalDuration = info.Duration
	features.SpeechRate.TotalSpeechTime = speech
	if info.Duration > 0 {
		features.SpeechRate.SpeakingTimeRatio = speech / info.Duration
	}

	return features, nil
}

// runFilter runs an ffmpeg audio filter chain and returns its stderr,
// where ffmpeg's analysis filters print their results
func runFilter(ctx context.Context, path, filter string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-af", filter,
		"-f", "null", "-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg filter run failed: %w", err)
	}
	return stderr.Bytes(), nil
}
