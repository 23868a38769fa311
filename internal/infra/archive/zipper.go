package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ZipCreator packs dataset artifacts into a zip. Entry names are kept
// relative to the dataset root so the archive unpacks into the same shape.
type ZipCreator struct{}

func NewZipCreator() *ZipCreator {
	return &ZipCreator{}
}

// CreateArchive zips the given files and directory trees. Paths that do not
// exist (a list file for a skipped stage, a model dir that never converged)
// are skipped rather than failing the archive.
func (z *ZipCreator) CreateArchive(ctx context.Context, paths []string, root string, outputPath string) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	for _, p := range paths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}

		if info.IsDir() {
			err = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
				if err != nil || fi.IsDir() {
					return err
				}
				return addFileToZip(zipWriter, path, root)
			})
		} else {
			err = addFileToZip(zipWriter, p, root)
		}
		if err != nil {
			return fmt.Errorf("add %s to archive: %w", p, err)
		}
	}

	return nil
}

func addFileToZip(zw *zip.Writer, filename, root string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(root, filename)
	if err != nil {
		rel = filepath.Base(filename)
	}
	header.Name = filepath.ToSlash(rel)
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}
