package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/halfblood/splatprep/internal/domain/entity"
	"github.com/halfblood/splatprep/internal/domain/port"
	"github.com/halfblood/splatprep/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type PrepareDatasetUseCase struct {
	layout    port.LayoutBuilder
	sampler   port.FrameSampler
	collector port.ImageCollector
	recon     port.Reconstructor
	archiver  port.Archiver
	logger    *zap.Logger
	seed      int64
}

type PrepareDatasetConfig struct {
	SplitSeed int64
}

type Request struct {
	InputPath          string
	OutputPath         string
	InputType          entity.InputType
	TrainRatio         float64
	ValRatio           float64
	SkipReconstruction bool
	Archive            bool
}

func NewPrepareDatasetUseCase(
	layout port.LayoutBuilder,
	sampler port.FrameSampler,
	collector port.ImageCollector,
	recon port.Reconstructor,
	archiver port.Archiver,
	logger *zap.Logger,
	cfg PrepareDatasetConfig,
) *PrepareDatasetUseCase {
	return &PrepareDatasetUseCase{
		layout:    layout,
		sampler:   sampler,
		collector: collector,
		recon:     recon,
		archiver:  archiver,
		logger:    logger,
		seed:      cfg.SplitSeed,
	}
}

// Execute runs the full preparation pipeline: layout skeleton, frame
// sampling or photo collection into input/, deterministic train/val/test
// split, and the reconstruction stages. The returned PrepRun reflects the
// final state and is also persisted as the prep_run.json manifest.
func (uc *PrepareDatasetUseCase) Execute(ctx context.Context, req Request) (*entity.PrepRun, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "PrepareDatasetUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	run := entity.NewPrepRun(req.InputPath, req.OutputPath, req.InputType)

	ratios := entity.SplitRatios{Train: req.TrainRatio, Val: req.ValRatio}
	if err := ratios.Validate(); err != nil {
		return run, err
	}
	span.SetAttributes(
		attribute.String("run.id", run.ID.String()),
		attribute.String("run.input_type", string(req.InputType)),
	)

	log := uc.logger.With(
		zap.String("run_id", run.ID.String()),
		zap.String("input", req.InputPath),
		zap.String("output", req.OutputPath),
	)

	if err := validateInput(req.InputPath, req.InputType); err != nil {
		log.Error("input validation failed", zap.Error(err))
		return run, err
	}

	isVideo := req.InputType == entity.InputTypeVideo
	layout := entity.NewDatasetLayout(req.OutputPath, isVideo)

	run.MarkStage("layout")
	if err := uc.layout.Build(layout); err != nil {
		return uc.fail(run, layout, log, err)
	}

	// Frame sampling (video) or direct photo source.
	sourceDir := req.InputPath
	if isVideo {
		run.MarkStage("frame_sampling")
		exStart := time.Now()
		ctxEx, spanEx := tracer.Start(ctx, "extract_frames")
		result, err := uc.sampler.ExtractFrames(ctxEx, req.InputPath, layout.FramesDir)
		spanEx.End()
		if err != nil {
			log.Error("frame sampling failed", zap.Error(err))
			return uc.fail(run, layout, log, err)
		}
		metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
		metrics.FramesExtractedTotal.Add(float64(result.FrameCount))
		run.FrameCount = result.FrameCount
		run.VideoDuration = result.VideoDuration
		sourceDir = layout.FramesDir
	}

	// Normalize into input/.
	run.MarkStage("collect")
	colStart := time.Now()
	ctxCol, spanCol := tracer.Start(ctx, "collect_images")
	copied, err := uc.collector.Collect(ctxCol, sourceDir, layout.InputDir)
	spanCol.End()
	if err != nil {
		log.Error("image collection failed", zap.Error(err))
		return uc.fail(run, layout, log, err)
	}
	metrics.StageDuration.WithLabelValues("collect").Observe(time.Since(colStart).Seconds())
	metrics.ImagesCollectedTotal.Add(float64(copied))

	// Split the normalized set and persist the lists.
	run.MarkStage("split")
	images, err := listImages(layout.InputDir)
	if err != nil {
		return uc.fail(run, layout, log, err)
	}
	partition := entity.SplitImages(images, ratios, uc.seed)
	run.RecordPartition(partition)
	if err := uc.layout.WriteSplitLists(layout, partition); err != nil {
		return uc.fail(run, layout, log, err)
	}
	log.Info("dataset split written",
		zap.Int("train", len(partition.Train)),
		zap.Int("val", len(partition.Val)),
		zap.Int("test", len(partition.Test)),
	)

	// Reconstruction stages, unless skipped.
	if !req.SkipReconstruction {
		run.MarkStage("reconstruction")
		reconStart := time.Now()
		ctxRec, spanRec := tracer.Start(ctx, "run_reconstruction")
		result, err := uc.recon.Run(ctxRec, layout.InputDir, layout.DatabasePath, layout.SparseDir)
		spanRec.End()
		if err != nil {
			log.Error("reconstruction failed", zap.Error(err))
			return uc.fail(run, layout, log, err)
		}
		metrics.StageDuration.WithLabelValues("reconstruction").Observe(time.Since(reconStart).Seconds())
		run.ModelConverted = result.ModelConverted
	}

	run.MarkCompleted()
	if err := writeManifest(layout, run); err != nil {
		return uc.fail(run, layout, log, err)
	}

	if req.Archive {
		run.MarkStage("archive")
		ctxAr, spanAr := tracer.Start(ctx, "archive_dataset")
		err := uc.archiver.CreateArchive(ctxAr, []string{
			layout.TrainListPath,
			layout.ValListPath,
			layout.TestListPath,
			layout.ManifestPath,
			layout.FirstModelDir,
		}, layout.Root, layout.ArchivePath)
		spanAr.End()
		if err != nil {
			log.Error("archive failed", zap.Error(err))
			return uc.fail(run, layout, log, err)
		}
		run.MarkCompleted()
	}

	metrics.RunsTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	log.Info("dataset ready",
		zap.Int("images", run.ImageCount),
		zap.Int("train", run.TrainCount),
		zap.Int("val", run.ValCount),
		zap.Int("test", run.TestCount),
		zap.Bool("model_converted", run.ModelConverted),
	)

	return run, nil
}

func (uc *PrepareDatasetUseCase) fail(run *entity.PrepRun, layout entity.DatasetLayout, log *zap.Logger, err error) (*entity.PrepRun, error) {
	run.MarkFailed(err.Error())
	if werr := writeManifest(layout, run); werr != nil {
		log.Warn("could not write run manifest", zap.Error(werr))
	}
	metrics.RunsTotal.WithLabelValues("failed").Inc()
	return run, err
}

func validateInput(inputPath string, inputType entity.InputType) error {
	info, err := os.Stat(inputPath)
	switch inputType {
	case entity.InputTypeVideo:
		if err != nil || info.IsDir() {
			return &entity.InputNotFoundError{Path: inputPath, Kind: entity.InputKindFile}
		}
	case entity.InputTypePhotos:
		if err != nil || !info.IsDir() {
			return &entity.InputNotFoundError{Path: inputPath, Kind: entity.InputKindDirectory}
		}
	default:
		return fmt.Errorf("unknown input type %q", inputType)
	}
	return nil
}

// listImages enumerates the normalized input set in sorted filename order,
// which fixes the pre-shuffle ordering the split depends on.
func listImages(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || !entity.IsRecognizedImage(entry.Name()) {
			continue
		}
		images = append(images, entry.Name())
	}
	sort.Strings(images)
	return images, nil
}

func writeManifest(layout entity.DatasetLayout, run *entity.PrepRun) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(layout.ManifestPath, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
