// Package video extracts metadata and sampled frames from uploaded clips
// using the ffmpeg toolchain.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/monkedh/monkedh/pkg/models"
)

// probeOutput mirrors the subset of ffprobe's JSON document we consume.
type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NbFrames   string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads video metadata with ffprobe.
func Probe(ctx context.Context, path string) (*models.VideoInfo, error) {
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
	return parseProbeOutput(out)
}

func parseProbeOutput(data []byte) (*models.VideoInfo, error) {
	var probed probeOutput
	if err := json.Unmarshal(data, &probed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &models.VideoInfo{}
	for _, s := range probed.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width = s.Width
		info.Height = s.Height
		info.FPS = parseFrameRate(s.RFrameRate)
		if n, err := strconv.Atoi(s.NbFrames); err == nil {
			info.TotalFrames = n
		}
		break
	}
	if info.FPS <= 0 {
		return nil, fmt.Errorf("no video stream found")
	}

	if d, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
		info.DurationSeconds = d
	}
	if info.TotalFrames == 0 && info.DurationSeconds > 0 {
		info.TotalFrames = int(info.DurationSeconds * info.FPS)
	}
	info.DurationFormatted = formatDuration(info.DurationSeconds)
	return info, nil
}

// parseFrameRate evaluates ffprobe's "num/den" rate expression.
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// formatDuration renders seconds as H:MM:SS.
func formatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
