package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/halfblood/splatprep/internal/domain/entity"
	"github.com/halfblood/splatprep/internal/domain/port"
	"github.com/halfblood/splatprep/internal/infra/fsys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSampler struct {
	frames int
	err    error

	calledWith string
}

func (s *stubSampler) ExtractFrames(ctx context.Context, videoPath string, outputDir string) (*port.FrameSampleResult, error) {
	s.calledWith = videoPath
	if s.err != nil {
		return nil, s.err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}
	var paths []string
	for i := 1; i <= s.frames; i++ {
		p := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.jpg", i))
		if err := os.WriteFile(p, []byte("frame"), 0644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return &port.FrameSampleResult{FramePaths: paths, FrameCount: s.frames, VideoDuration: 12.5}, nil
}

type stubRecon struct {
	converted bool
	err       error

	called   bool
	imageDir string
	database string
	sparse   string
}

func (r *stubRecon) Run(ctx context.Context, imageDir, databasePath, sparseDir string) (*port.ReconstructionResult, error) {
	r.called = true
	r.imageDir = imageDir
	r.database = databasePath
	r.sparse = sparseDir
	if r.err != nil {
		return nil, r.err
	}
	return &port.ReconstructionResult{ModelConverted: r.converted}, nil
}

type stubArchiver struct {
	called bool
	output string
	err    error
}

func (a *stubArchiver) CreateArchive(ctx context.Context, paths []string, root string, outputPath string) error {
	a.called = true
	a.output = outputPath
	return a.err
}

func photosDir(t *testing.T, count int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 1; i <= count; i++ {
		name := filepath.Join(dir, fmt.Sprintf("photo_%03d.jpg", i))
		require.NoError(t, os.WriteFile(name, []byte("img"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	return dir
}

func newTestUseCase(sampler port.FrameSampler, recon port.Reconstructor, archiver port.Archiver) *PrepareDatasetUseCase {
	log := zap.NewNop()
	return NewPrepareDatasetUseCase(
		fsys.NewLayoutBuilder(),
		sampler,
		fsys.NewCollector(log),
		recon,
		archiver,
		log,
		PrepareDatasetConfig{SplitSeed: 42},
	)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	return strings.Split(string(data), "\n")
}

func TestExecutePhotosMode(t *testing.T) {
	input := photosDir(t, 10)
	output := filepath.Join(t.TempDir(), "dataset")
	recon := &stubRecon{converted: true}
	uc := newTestUseCase(&stubSampler{}, recon, &stubArchiver{})

	run, err := uc.Execute(context.Background(), Request{
		InputPath:  input,
		OutputPath: output,
		InputType:  entity.InputTypePhotos,
		TrainRatio: 0.8,
		ValRatio:   0.1,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.RunStatusCompleted, run.Status)
	assert.Equal(t, 10, run.ImageCount)
	assert.Equal(t, 8, run.TrainCount)
	assert.Equal(t, 1, run.ValCount)
	assert.Equal(t, 1, run.TestCount)
	assert.True(t, run.ModelConverted)

	layout := entity.NewDatasetLayout(output, false)

	// The .txt file must not have been collected.
	entries, err := os.ReadDir(layout.InputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)

	// Lists are disjoint and cover the full set.
	all := map[string]int{}
	for _, path := range []string{layout.TrainListPath, layout.ValListPath, layout.TestListPath} {
		for _, name := range readLines(t, path) {
			all[name]++
		}
	}
	assert.Len(t, all, 10)
	for name, n := range all {
		assert.Equal(t, 1, n, "%s assigned %d times", name, n)
		assert.True(t, entity.IsRecognizedImage(name))
	}

	// Reconstruction consumed the layout paths.
	assert.True(t, recon.called)
	assert.Equal(t, layout.InputDir, recon.imageDir)
	assert.Equal(t, layout.DatabasePath, recon.database)
	assert.Equal(t, layout.SparseDir, recon.sparse)

	// Manifest reflects the completed run.
	var manifest entity.PrepRun
	data, err := os.ReadFile(layout.ManifestPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, entity.RunStatusCompleted, manifest.Status)
	assert.Equal(t, run.ID, manifest.ID)
}

func TestExecuteVideoMode(t *testing.T) {
	video := filepath.Join(t.TempDir(), "scene.mp4")
	require.NoError(t, os.WriteFile(video, []byte("mp4"), 0644))
	output := filepath.Join(t.TempDir(), "dataset")

	sampler := &stubSampler{frames: 6}
	recon := &stubRecon{converted: true}
	uc := newTestUseCase(sampler, recon, &stubArchiver{})

	run, err := uc.Execute(context.Background(), Request{
		InputPath:  video,
		OutputPath: output,
		InputType:  entity.InputTypeVideo,
		TrainRatio: 0.8,
		ValRatio:   0.1,
	})
	require.NoError(t, err)

	assert.Equal(t, video, sampler.calledWith)
	assert.Equal(t, 6, run.FrameCount)
	assert.Equal(t, 6, run.ImageCount)

	layout := entity.NewDatasetLayout(output, true)
	entries, err := os.ReadDir(layout.InputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 6, "sampled frames normalized into input/")
}

func TestExecuteSkipReconstruction(t *testing.T) {
	input := photosDir(t, 4)
	recon := &stubRecon{}
	uc := newTestUseCase(&stubSampler{}, recon, &stubArchiver{})

	run, err := uc.Execute(context.Background(), Request{
		InputPath:          input,
		OutputPath:         filepath.Join(t.TempDir(), "dataset"),
		InputType:          entity.InputTypePhotos,
		TrainRatio:         0.8,
		ValRatio:           0.1,
		SkipReconstruction: true,
	})
	require.NoError(t, err)

	assert.False(t, recon.called)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
}

func TestExecuteInputNotFound(t *testing.T) {
	uc := newTestUseCase(&stubSampler{}, &stubRecon{}, &stubArchiver{})

	t.Run("missing photos dir", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), Request{
			InputPath:  filepath.Join(t.TempDir(), "nope"),
			OutputPath: filepath.Join(t.TempDir(), "out"),
			InputType:  entity.InputTypePhotos,
			TrainRatio: 0.8,
			ValRatio:   0.1,
		})
		var nfErr *entity.InputNotFoundError
		require.True(t, errors.As(err, &nfErr))
		assert.Equal(t, entity.InputKindDirectory, nfErr.Kind)
	})

	t.Run("video path is a directory", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), Request{
			InputPath:  t.TempDir(),
			OutputPath: filepath.Join(t.TempDir(), "out"),
			InputType:  entity.InputTypeVideo,
			TrainRatio: 0.8,
			ValRatio:   0.1,
		})
		var nfErr *entity.InputNotFoundError
		require.True(t, errors.As(err, &nfErr))
		assert.Equal(t, entity.InputKindFile, nfErr.Kind)
	})
}

func TestExecuteInvalidRatios(t *testing.T) {
	uc := newTestUseCase(&stubSampler{}, &stubRecon{}, &stubArchiver{})

	_, err := uc.Execute(context.Background(), Request{
		InputPath:  t.TempDir(),
		OutputPath: filepath.Join(t.TempDir(), "out"),
		InputType:  entity.InputTypePhotos,
		TrainRatio: 0.8,
		ValRatio:   0.5,
	})
	assert.Error(t, err)
}

func TestExecuteReconstructionFailure(t *testing.T) {
	input := photosDir(t, 3)
	output := filepath.Join(t.TempDir(), "dataset")
	stageErr := &entity.StageError{Stage: "feature_extraction", ExitCode: 1, Err: errors.New("exit status 1")}
	uc := newTestUseCase(&stubSampler{}, &stubRecon{err: stageErr}, &stubArchiver{})

	run, err := uc.Execute(context.Background(), Request{
		InputPath:  input,
		OutputPath: output,
		InputType:  entity.InputTypePhotos,
		TrainRatio: 0.8,
		ValRatio:   0.1,
	})
	require.Error(t, err)

	var got *entity.StageError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "feature_extraction", got.Stage)

	assert.Equal(t, entity.RunStatusFailed, run.Status)
	assert.Equal(t, "reconstruction", run.Stage)

	// Manifest records the failure; split lists from the earlier stage stay.
	layout := entity.NewDatasetLayout(output, false)
	var manifest entity.PrepRun
	data, readErr := os.ReadFile(layout.ManifestPath)
	require.NoError(t, readErr)
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, entity.RunStatusFailed, manifest.Status)
	assert.NotEmpty(t, manifest.ErrorMessage)

	_, statErr := os.Stat(layout.TrainListPath)
	assert.NoError(t, statErr)
}

func TestExecuteArchive(t *testing.T) {
	input := photosDir(t, 3)
	output := filepath.Join(t.TempDir(), "dataset")
	archiver := &stubArchiver{}
	uc := newTestUseCase(&stubSampler{}, &stubRecon{converted: true}, archiver)

	_, err := uc.Execute(context.Background(), Request{
		InputPath:  input,
		OutputPath: output,
		InputType:  entity.InputTypePhotos,
		TrainRatio: 0.8,
		ValRatio:   0.1,
		Archive:    true,
	})
	require.NoError(t, err)

	layout := entity.NewDatasetLayout(output, false)
	assert.True(t, archiver.called)
	assert.Equal(t, layout.ArchivePath, archiver.output)
}

func TestExecuteEmptyPhotoSet(t *testing.T) {
	input := t.TempDir()
	uc := newTestUseCase(&stubSampler{}, &stubRecon{}, &stubArchiver{})

	run, err := uc.Execute(context.Background(), Request{
		InputPath:          input,
		OutputPath:         filepath.Join(t.TempDir(), "dataset"),
		InputType:          entity.InputTypePhotos,
		TrainRatio:         0.8,
		ValRatio:           0.1,
		SkipReconstruction: true,
	})
	require.NoError(t, err)

	assert.Zero(t, run.ImageCount)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
}
