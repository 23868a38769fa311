package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/halfblood/splatprep/internal/domain/entity"
	"github.com/halfblood/splatprep/internal/domain/port"
	"go.uber.org/zap"
)

// StageFrameSampling names the frame-extraction stage in failure reports.
const StageFrameSampling = "frame_sampling"

type Sampler struct {
	ffmpegBin  string
	ffprobeBin string
	fps        int
	format     string
	qscale     int
	logger     *zap.Logger
}

func NewSampler(ffmpegBin, ffprobeBin string, fps int, format string, qscale int, logger *zap.Logger) *Sampler {
	return &Sampler{
		ffmpegBin:  ffmpegBin,
		ffprobeBin: ffprobeBin,
		fps:        fps,
		format:     format,
		qscale:     qscale,
		logger:     logger,
	}
}

// ExtractFrames samples videoPath into outputDir as zero-padded sequential
// frames (frame_0001.jpg, ...). The directory is created if absent.
func (s *Sampler) ExtractFrames(ctx context.Context, videoPath string, outputDir string) (*port.FrameSampleResult, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}

	duration, err := s.videoDuration(ctx, videoPath)
	if err != nil {
		s.logger.Warn("could not get video duration", zap.Error(err))
	}

	framePattern := filepath.Join(outputDir, fmt.Sprintf("frame_%%04d.%s", s.format))
	cmd := exec.CommandContext(ctx, s.ffmpegBin,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%d", s.fps),
		"-qscale:v", strconv.Itoa(s.qscale),
		"-y",
		framePattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &entity.StageError{
			Stage:    StageFrameSampling,
			ExitCode: exitCode(cmd),
			Output:   string(output),
			Err:      err,
		}
	}

	globPattern := filepath.Join(outputDir, fmt.Sprintf("*.%s", s.format))
	frames, err := filepath.Glob(globPattern)
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", videoPath)
	}

	s.logger.Info("frames extracted",
		zap.Int("count", len(frames)),
		zap.Int("fps", s.fps),
		zap.Float64("video_duration", duration),
	)

	return &port.FrameSampleResult{
		FramePaths:    frames,
		FrameCount:    len(frames),
		VideoDuration: duration,
	}, nil
}

func (s *Sampler) videoDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

// CheckAvailable probes the ffmpeg binary so a missing install fails the run
// before any work starts.
func (s *Sampler) CheckAvailable(ctx context.Context) error {
	if err := exec.CommandContext(ctx, s.ffmpegBin, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found (install: sudo apt-get install ffmpeg): %w", err)
	}
	return nil
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}
