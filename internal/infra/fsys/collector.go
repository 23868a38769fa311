package fsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/halfblood/splatprep/internal/domain/entity"
	"go.uber.org/zap"
)

// Collector copies recognized images from a source directory into the
// normalized input directory. Copies are best-effort: a failure aborts the
// collection but already-copied files stay in place.
type Collector struct {
	logger *zap.Logger
}

func NewCollector(logger *zap.Logger) *Collector {
	return &Collector{logger: logger}
}

func (c *Collector) Collect(ctx context.Context, sourceDir string, destDir string) (int, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return 0, fmt.Errorf("read source dir: %w", err)
	}

	copied := 0
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return copied, ctx.Err()
		default:
		}

		if entry.IsDir() || !entity.IsRecognizedImage(entry.Name()) {
			continue
		}

		src := filepath.Join(sourceDir, entry.Name())
		dst := filepath.Join(destDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return copied, fmt.Errorf("copy %s: %w", entry.Name(), err)
		}
		copied++
	}

	c.logger.Info("images collected",
		zap.Int("count", copied),
		zap.String("source", sourceDir),
	)
	return copied, nil
}

// copyFile copies contents and preserves mode and modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
