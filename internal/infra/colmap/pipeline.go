package colmap

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/halfblood/splatprep/internal/domain/entity"
	"github.com/halfblood/splatprep/internal/domain/port"
	"go.uber.org/zap"
)

// Stage names reported in failure messages, traversal order.
const (
	StageFeatureExtraction = "feature_extraction"
	StageFeatureMatching   = "feature_matching"
	StageMapping           = "mapping"
	StageModelConversion   = "model_conversion"
)

// commandFunc runs one external invocation and returns its combined output.
// Swapped out in tests to record invocations without a colmap install.
type commandFunc func(ctx context.Context, bin string, args ...string) ([]byte, int, error)

func execCommand(ctx context.Context, bin string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	output, err := cmd.CombinedOutput()
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	return output, code, err
}

type Pipeline struct {
	bin         string
	cameraModel string
	useGPU      bool
	run         commandFunc
	logger      *zap.Logger
}

func NewPipeline(bin, cameraModel string, useGPU bool, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		bin:         bin,
		cameraModel: cameraModel,
		useGPU:      useGPU,
		run:         execCommand,
		logger:      logger,
	}
}

// Run sequences the four reconstruction stages over imageDir. Each stage
// consumes the previous stage's on-disk output; the first failure halts the
// pipeline with a StageError naming the stage. Model conversion only runs
// when the mapper produced a first component under sparseDir/0; its absence
// means reconstruction did not converge and is reported as success.
func (p *Pipeline) Run(ctx context.Context, imageDir, databasePath, sparseDir string) (*port.ReconstructionResult, error) {
	p.logger.Info("running feature extraction", zap.String("database", databasePath))
	err := p.invoke(ctx, StageFeatureExtraction, "feature_extractor",
		"--database_path", databasePath,
		"--image_path", imageDir,
		"--ImageReader.single_camera", "1",
		"--ImageReader.camera_model", p.cameraModel,
		"--SiftExtraction.use_gpu", gpuFlag(p.useGPU),
	)
	if err != nil {
		return nil, err
	}

	p.logger.Info("running feature matching")
	err = p.invoke(ctx, StageFeatureMatching, "exhaustive_matcher",
		"--database_path", databasePath,
		"--SiftMatching.use_gpu", gpuFlag(p.useGPU),
	)
	if err != nil {
		return nil, err
	}

	p.logger.Info("running sparse reconstruction", zap.String("output", sparseDir))
	err = p.invoke(ctx, StageMapping, "mapper",
		"--database_path", databasePath,
		"--image_path", imageDir,
		"--output_path", sparseDir,
	)
	if err != nil {
		return nil, err
	}

	modelDir := filepath.Join(sparseDir, "0")
	if _, statErr := os.Stat(modelDir); statErr != nil {
		p.logger.Warn("no reconstructed model produced, skipping conversion",
			zap.String("model_dir", modelDir))
		return &port.ReconstructionResult{ModelConverted: false}, nil
	}

	p.logger.Info("converting model to text format", zap.String("model_dir", modelDir))
	err = p.invoke(ctx, StageModelConversion, "model_converter",
		"--input_path", modelDir,
		"--output_path", modelDir,
		"--output_type", "TXT",
	)
	if err != nil {
		return nil, err
	}

	return &port.ReconstructionResult{ModelConverted: true}, nil
}

func (p *Pipeline) invoke(ctx context.Context, stage, subcommand string, args ...string) error {
	output, code, err := p.run(ctx, p.bin, append([]string{subcommand}, args...)...)
	if err != nil {
		return &entity.StageError{
			Stage:    stage,
			ExitCode: code,
			Output:   string(output),
			Err:      err,
		}
	}
	return nil
}

// CheckAvailable probes the colmap binary before any work starts.
func (p *Pipeline) CheckAvailable(ctx context.Context) error {
	if _, _, err := p.run(ctx, p.bin, "-h"); err != nil {
		return fmt.Errorf("colmap not found (install: sudo apt-get install colmap): %w", err)
	}
	return nil
}

func gpuFlag(useGPU bool) string {
	if useGPU {
		return "1"
	}
	return "0"
}
