package fsys

import (
	"fmt"
	"os"
	"strings"

	"github.com/halfblood/splatprep/internal/domain/entity"
)

// LayoutBuilder materializes the dataset skeleton on disk. Creation is
// idempotent: re-running against an existing output directory neither fails
// nor clears existing contents.
type LayoutBuilder struct{}

func NewLayoutBuilder() *LayoutBuilder {
	return &LayoutBuilder{}
}

func (b *LayoutBuilder) Build(layout entity.DatasetLayout) error {
	for _, dir := range layout.Dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSplitLists persists the partition as one filename per line. The join
// leaves no trailing newline, so an empty subset yields an empty file.
func (b *LayoutBuilder) WriteSplitLists(layout entity.DatasetLayout, partition entity.Partition) error {
	lists := map[string][]string{
		"train": partition.Train,
		"val":   partition.Val,
		"test":  partition.Test,
	}
	for subset, names := range lists {
		path := layout.ListPath(subset)
		if err := os.WriteFile(path, []byte(strings.Join(names, "\n")), 0644); err != nil {
			return fmt.Errorf("write %s list: %w", subset, err)
		}
	}
	return nil
}
