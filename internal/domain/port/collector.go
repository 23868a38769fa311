package port

import "context"

// ImageCollector copies recognized images from sourceDir's direct entries
// into destDir, preserving filenames. It never descends into subdirectories.
type ImageCollector interface {
	Collect(ctx context.Context, sourceDir string, destDir string) (int, error)
}
