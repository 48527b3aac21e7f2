package pipeline

import (
	"context"

	"github.com/monkedh/monkedh/pkg/models"
	"github.com/monkedh/monkedh/pkg/video"
)

// VideoOpener is the production Opener: ffprobe for metadata, ffmpeg for the
// sampled frame stream.
func VideoOpener(ctx context.Context, path string, interval float64) (*models.VideoInfo, FrameSource, error) {
	info, err := video.Probe(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	extractor, err := video.NewExtractor(ctx, path, info.FPS, video.SampleInterval(info.FPS, interval))
	if err != nil {
		return nil, nil, err
	}
	return info, extractor, nil
}
