package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	FFmpegBin  string `env:"FFMPEG_BIN"  envDefault:"ffmpeg"`
	FFprobeBin string `env:"FFPROBE_BIN" envDefault:"ffprobe"`
	ColmapBin  string `env:"COLMAP_BIN"  envDefault:"colmap"`

	CameraModel string `env:"CAMERA_MODEL" envDefault:"OPENCV"`
	SiftUseGPU  bool   `env:"SIFT_USE_GPU" envDefault:"true"`

	FrameFormat  string `env:"FRAME_FORMAT"  envDefault:"jpg"`
	FFmpegQScale int    `env:"FFMPEG_QSCALE" envDefault:"2"`

	SplitSeed int64 `env:"SPLIT_SEED" envDefault:"42"`

	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
	MetricsPort  int    `env:"METRICS_PORT"  envDefault:"0"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:""`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
