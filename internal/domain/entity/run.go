package entity

import (
	"time"

	"github.com/google/uuid"
)

type InputType string

const (
	InputTypeVideo  InputType = "video"
	InputTypePhotos InputType = "photos"
)

type RunStatus string

const (
	RunStatusPending    RunStatus = "PENDING"
	RunStatusProcessing RunStatus = "PROCESSING"
	RunStatusCompleted  RunStatus = "COMPLETED"
	RunStatusFailed     RunStatus = "FAILED"
)

// PrepRun records one dataset-preparation run. It is serialized as the
// prep_run.json manifest at the layout root.
type PrepRun struct {
	ID             uuid.UUID  `json:"id"`
	InputPath      string     `json:"input_path"`
	OutputPath     string     `json:"output_path"`
	InputType      InputType  `json:"input_type"`
	Status         RunStatus  `json:"status"`
	Stage          string     `json:"stage,omitempty"`
	FrameCount     int        `json:"frame_count,omitempty"`
	VideoDuration  float64    `json:"video_duration_seconds,omitempty"`
	ImageCount     int        `json:"image_count"`
	TrainCount     int        `json:"train_count"`
	ValCount       int        `json:"val_count"`
	TestCount      int        `json:"test_count"`
	ModelConverted bool       `json:"model_converted"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func NewPrepRun(inputPath, outputPath string, inputType InputType) *PrepRun {
	now := time.Now().UTC()
	return &PrepRun{
		ID:         uuid.New(),
		InputPath:  inputPath,
		OutputPath: outputPath,
		InputType:  inputType,
		Status:     RunStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *PrepRun) MarkStage(stage string) {
	r.Status = RunStatusProcessing
	r.Stage = stage
	r.UpdatedAt = time.Now().UTC()
}

func (r *PrepRun) MarkCompleted() {
	now := time.Now().UTC()
	r.Status = RunStatusCompleted
	r.Stage = ""
	r.UpdatedAt = now
	r.CompletedAt = &now
}

func (r *PrepRun) MarkFailed(errMsg string) {
	r.Status = RunStatusFailed
	r.ErrorMessage = errMsg
	r.UpdatedAt = time.Now().UTC()
}

// RecordPartition stores the subset sizes of a computed partition.
func (r *PrepRun) RecordPartition(p Partition) {
	r.ImageCount = p.Total()
	r.TrainCount = len(p.Train)
	r.ValCount = len(p.Val)
	r.TestCount = len(p.Test)
	r.UpdatedAt = time.Now().UTC()
}
