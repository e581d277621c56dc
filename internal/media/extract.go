// Package media wraps the ffmpeg toolchain used to pull audio tracks out
// of recorded answers and to probe basic media properties.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ExtractTimeout bounds a single ffmpeg extraction run
const ExtractTimeout = 30 * time.Second

// CheckDependencies verifies that the ffmpeg toolchain is available
func CheckDependencies() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found - required for audio processing")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return fmt.Errorf("ffprobe not found - required for media analysis")
	}
	return nil
}

// ExtractAudio isolates the audio track from a recording as 16kHz mono PCM,
// the format Whisper transcribes best
func ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	ctx, cancel := context.WithTimeout(ctx, ExtractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		audioPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %w (%s)", err, stderr.String())
	}
	return nil
}

// Info holds the basic media properties reported by ffprobe
type Info struct {
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	HasVideo   bool    `json:"has_video"`
}

// ffprobe JSON output shapes
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe reports duration and stream layout for a media file
func Probe(ctx context.Context, path string) (*Info, error) {
	ctx, cancel := context.WithTimeout(ctx, ExtractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probed probeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{}
	info.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)

	for _, stream := range probed.Streams {
		switch stream.CodecType {
		case "audio":
			info.SampleRate, _ = strconv.Atoi(stream.SampleRate)
			info.Channels = stream.Channels
		case "video":
			info.HasVideo = true
		}
	}

	return info, nil
}
