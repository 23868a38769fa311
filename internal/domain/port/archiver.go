package port

import "context"

// Archiver packs the prepared dataset artifacts into a single archive file
// for shipping to a training host.
type Archiver interface {
	CreateArchive(ctx context.Context, paths []string, root string, outputPath string) error
}
