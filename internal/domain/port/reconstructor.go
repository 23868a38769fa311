package port

import "context"

type ReconstructionResult struct {
	// ModelConverted is false when no reconstructed component was produced,
	// which is success-with-partial-output, not an error.
	ModelConverted bool
}

// Reconstructor runs the structure-from-motion pipeline over imageDir,
// populating databasePath and writing model components under sparseDir.
type Reconstructor interface {
	Run(ctx context.Context, imageDir, databasePath, sparseDir string) (*ReconstructionResult, error)
}
