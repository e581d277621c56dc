package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/face2phrase/backend/internal/media"
)

// VideoFeatures is the facial/visual feature bundle for one answer.
// The shipping analyzer only reports shallow stream properties; a real
// facial-expression model can be plugged in behind the same interface.
type VideoFeatures struct {
	VideoInfo struct {
		Duration float64 `json:"duration"`
		HasVideo bool    `json:"has_video"`
	} `json:"video_info"`
	AnalyzedAt time.Time `json:"analysis_timestamp"`
}

// VideoAnalyzer computes visual features from a recorded answer
type VideoAnalyzer interface {
	AnalyzeVideo(ctx context.Context, videoPath string) (*VideoFeatures, error)
}

// FfprobeVideoAnalyzer derives the video bundle from ffprobe stream data
type FfprobeVideoAnalyzer struct{}

// NewVideoAnalyzer creates the default ffprobe-backed video analyzer
func NewVideoAnalyzer() *FfprobeVideoAnalyzer {
	return &FfprobeVideoAnalyzer{}
}

// AnalyzeVideo probes the recording and builds the feature bundle
func (a *FfprobeVideoAnalyzer) AnalyzeVideo(ctx context.Context, videoPath string) (*VideoFeatures, error) {
	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	info, err := media.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}

	if !info.HasVideo {
		return nil, fmt.Errorf("no video stream in %s", videoPath)
	}

	features := &VideoFeatures{AnalyzedAt: time.Now().UTC()}
	features.VideoInfo.Duration = info.Duration
	features.VideoInfo.HasVideo = info.HasVideo

	return features, nil
}
