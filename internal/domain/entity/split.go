package entity

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
)

// RecognizedImageExt is the fixed set of image extensions the pipeline
// accepts, matched case-insensitively.
var RecognizedImageExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsRecognizedImage reports whether name has a recognized image extension.
func IsRecognizedImage(name string) bool {
	return RecognizedImageExt[strings.ToLower(filepath.Ext(name))]
}

// SplitRatios holds the train and validation fractions of a dataset split.
// The test fraction is the remainder.
type SplitRatios struct {
	Train float64
	Val   float64
}

func (r SplitRatios) Validate() error {
	if r.Train < 0 || r.Val < 0 {
		return fmt.Errorf("split ratios must be non-negative (train=%v val=%v)", r.Train, r.Val)
	}
	if r.Train+r.Val > 1 {
		return fmt.Errorf("train+val ratios exceed 1.0 (train=%v val=%v)", r.Train, r.Val)
	}
	return nil
}

// Partition is the train/val/test assignment of an image set, in
// post-shuffle order within each subset.
type Partition struct {
	Train []string
	Val   []string
	Test  []string
}

// Total is the number of images across all three subsets.
func (p Partition) Total() int {
	return len(p.Train) + len(p.Val) + len(p.Test)
}

// SplitImages partitions images into train/val/test subsets. The generator
// is seeded locally so the result depends only on seed and the input order;
// cut points are truncated independently, so rounding slack lands in test.
func SplitImages(images []string, ratios SplitRatios, seed int64) Partition {
	rng := rand.New(rand.NewSource(seed))

	shuffled := make([]string, len(images))
	copy(shuffled, images)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainEnd := int(float64(n) * ratios.Train)
	valEnd := trainEnd + int(float64(n)*ratios.Val)

	return Partition{
		Train: shuffled[:trainEnd],
		Val:   shuffled[trainEnd:valEnd],
		Test:  shuffled[valEnd:],
	}
}
