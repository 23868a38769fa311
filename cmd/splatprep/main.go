package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/halfblood/splatprep/internal/domain/entity"
	"github.com/halfblood/splatprep/internal/infra/archive"
	"github.com/halfblood/splatprep/internal/infra/colmap"
	"github.com/halfblood/splatprep/internal/infra/config"
	"github.com/halfblood/splatprep/internal/infra/ffmpeg"
	"github.com/halfblood/splatprep/internal/infra/fsys"
	"github.com/halfblood/splatprep/internal/infra/metrics"
	"github.com/halfblood/splatprep/internal/infra/tracing"
	"github.com/halfblood/splatprep/internal/usecase"
	"github.com/halfblood/splatprep/pkg/logger"
	"go.uber.org/zap"
)

type cliArgs struct {
	input        string
	output       string
	inputType    string
	fps          int
	trainRatio   float64
	valRatio     float64
	skipColmap   bool
	skipDepCheck bool
	archiveOut   bool
}

func main() {
	args, err := parseFlags()
	fatalOnErr(err, "parse flags")

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting splatprep",
		zap.String("input", args.input),
		zap.String("output", args.output),
		zap.String("type", args.inputType),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(ctx)
		}
	}

	// Metrics server, useful while a long reconstruction run is in flight
	if cfg.MetricsPort > 0 {
		metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	// Infra adapters
	sampler := ffmpeg.NewSampler(cfg.FFmpegBin, cfg.FFprobeBin, args.fps, cfg.FrameFormat, cfg.FFmpegQScale, log)
	pipeline := colmap.NewPipeline(cfg.ColmapBin, cfg.CameraModel, cfg.SiftUseGPU, log)
	layoutBuilder := fsys.NewLayoutBuilder()
	collector := fsys.NewCollector(log)
	zipper := archive.NewZipCreator()

	// Upfront tool-presence checks
	if !args.skipDepCheck {
		if args.inputType == string(entity.InputTypeVideo) {
			fatalOnErr(sampler.CheckAvailable(ctx), "dependency check")
		}
		if !args.skipColmap {
			fatalOnErr(pipeline.CheckAvailable(ctx), "dependency check")
		}
	}

	uc := usecase.NewPrepareDatasetUseCase(
		layoutBuilder, sampler, collector, pipeline, zipper,
		log,
		usecase.PrepareDatasetConfig{SplitSeed: cfg.SplitSeed},
	)

	run, err := uc.Execute(ctx, usecase.Request{
		InputPath:          args.input,
		OutputPath:         args.output,
		InputType:          entity.InputType(args.inputType),
		TrainRatio:         args.trainRatio,
		ValRatio:           args.valRatio,
		SkipReconstruction: args.skipColmap,
		Archive:            args.archiveOut,
	})
	if err != nil {
		log.Error("preparation failed",
			zap.String("stage", run.Stage),
			zap.Error(err),
		)
		log.Sync()
		os.Exit(1)
	}

	log.Info("splatprep finished", zap.String("dataset", args.output))
}

func parseFlags() (cliArgs, error) {
	var args cliArgs

	flag.StringVar(&args.input, "input", "", "path to a video file or a directory of images")
	flag.StringVar(&args.output, "output", "", "output directory for the prepared dataset")
	flag.StringVar(&args.inputType, "type", "", "input type: video or photos")
	flag.IntVar(&args.fps, "fps", 2, "frames per second for video extraction")
	flag.Float64Var(&args.trainRatio, "train-ratio", 0.8, "training set ratio")
	flag.Float64Var(&args.valRatio, "val-ratio", 0.1, "validation set ratio")
	flag.BoolVar(&args.skipColmap, "skip-colmap", false, "skip the reconstruction stages")
	flag.BoolVar(&args.skipDepCheck, "skip-dependency-check", false, "skip upfront tool-presence checks")
	flag.BoolVar(&args.archiveOut, "archive", false, "pack split lists and the converted model into dataset.zip")
	flag.Parse()

	if args.input == "" {
		return args, fmt.Errorf("-input is required")
	}
	if args.output == "" {
		return args, fmt.Errorf("-output is required")
	}
	switch args.inputType {
	case string(entity.InputTypeVideo), string(entity.InputTypePhotos):
	default:
		return args, fmt.Errorf("-type must be %q or %q", entity.InputTypeVideo, entity.InputTypePhotos)
	}

	return args, nil
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
