package port

import "github.com/halfblood/splatprep/internal/domain/entity"

// LayoutBuilder owns creation of the dataset directory skeleton and is the
// sole writer of the split-list files.
type LayoutBuilder interface {
	Build(layout entity.DatasetLayout) error
	WriteSplitLists(layout entity.DatasetLayout, partition entity.Partition) error
}
