// Package importer reads the TBZ Flensburg tree register CSV export and
// plans how its trees are applied to the trees the host already knows.
//
// A Converter validates the file (extension, exact header row), parses each
// row into a Tree and converts the coordinates from the register's projected
// system into the target system:
//
//	conv, err := importer.NewConverter(cfg.Import)
//	trees, err := conv.ConvertFile(ctx, "baumkataster.csv")
//
// NewPlan then splits the trees into three queues by matching coordinates
// against the existing set: trees at unknown positions are created, trees
// at a known position with the same planting year update the existing tree,
// and trees at a known position with a different planting year replace it
// (the old tree is deleted, the new one created).
package importer
