package entity

import "path/filepath"

// DatasetLayout is the fixed on-disk shape of a prepared dataset. Every
// component resolves paths through it; nothing else hardcodes the shape,
// which downstream reconstruction and training tooling depends on.
type DatasetLayout struct {
	Root          string
	InputDir      string // normalized images
	FramesDir     string // video-derived frames, empty in photos mode
	DistortedDir  string
	DatabasePath  string // COLMAP feature database
	SparseDir     string
	FirstModelDir string // first reconstructed component, if any
	TrainListPath string
	ValListPath   string
	TestListPath  string
	ManifestPath  string
	ArchivePath   string
	IsVideo       bool
}

// NewDatasetLayout resolves all subpaths under root. FramesDir is only set
// in video mode; it is not part of the photos-mode skeleton.
func NewDatasetLayout(root string, isVideo bool) DatasetLayout {
	distorted := filepath.Join(root, "distorted")
	sparse := filepath.Join(distorted, "sparse")

	l := DatasetLayout{
		Root:          root,
		InputDir:      filepath.Join(root, "input"),
		DistortedDir:  distorted,
		DatabasePath:  filepath.Join(distorted, "database.db"),
		SparseDir:     sparse,
		FirstModelDir: filepath.Join(sparse, "0"),
		TrainListPath: filepath.Join(root, "train_list.txt"),
		ValListPath:   filepath.Join(root, "val_list.txt"),
		TestListPath:  filepath.Join(root, "test_list.txt"),
		ManifestPath:  filepath.Join(root, "prep_run.json"),
		ArchivePath:   filepath.Join(root, "dataset.zip"),
		IsVideo:       isVideo,
	}
	if isVideo {
		l.FramesDir = filepath.Join(root, "extracted_frames")
	}
	return l
}

// Dirs lists the directories the skeleton consists of, creation order.
func (l DatasetLayout) Dirs() []string {
	dirs := []string{l.Root, l.InputDir, l.DistortedDir, l.SparseDir}
	if l.IsVideo {
		dirs = append(dirs, l.FramesDir)
	}
	return dirs
}

// ListPath returns the split-list file path for a subset name.
func (l DatasetLayout) ListPath(subset string) string {
	switch subset {
	case "train":
		return l.TrainListPath
	case "val":
		return l.ValListPath
	default:
		return l.TestListPath
	}
}
