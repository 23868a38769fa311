package port

import "context"

type FrameSampleResult struct {
	FramePaths    []string
	FrameCount    int
	VideoDuration float64
}

// FrameSampler turns a video file into a sequence of still images on disk.
// Downstream components discover the frames by listing outputDir.
type FrameSampler interface {
	ExtractFrames(ctx context.Context, videoPath string, outputDir string) (*FrameSampleResult, error)
}
