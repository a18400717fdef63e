package engine

import (
	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/seqlock"
)

type (
	// TableState is the live cell grid, guarded by its own seqlock version.
	// The field order mirrors the storage layout: version first, then the
	// scalar prefix, then the canonical arrays. Arrays are owned contiguous
	// storage addressed by integer index; readers copy them inside a seqlock
	// read cycle and must not keep references across frames.
	TableState struct {
		Version       seqlock.Version
		SectionsCount int
		Cells         [fortuned.MaxSteps][fortuned.MaxCols]fortuned.Cell
		Sections      [fortuned.MaxSections]fortuned.Section
		Layers        [fortuned.MaxSections][fortuned.MaxLayersPerSection]fortuned.Layer
	}

	// PlaybackState is the live transport state. SectionLoops is indexed by
	// section; entries beyond the table's section count are defaults.
	PlaybackState struct {
		Version            seqlock.Version
		Playing            bool
		CurrentStep        int
		BPM                int
		RegionStart        int
		RegionEnd          int // exclusive
		SongMode           bool
		SectionLoops       [fortuned.MaxSections]int
		CurrentSection     int
		CurrentSectionLoop int // 0-based loop within the current section
	}

	// SampleBankState is the live sample bank.
	SampleBankState struct {
		Version     seqlock.Version
		MaxSlots    int
		LoadedCount int
		Samples     [fortuned.MaxSampleSlots]fortuned.Sample
	}

	// UndoRedoState is the consumer-visible summary of the undo history. The
	// history itself is producer-owned; consumers only mirror these fields.
	UndoRedoState struct {
		Version seqlock.Version
		Count   int
		Cursor  int
		CanUndo bool
		CanRedo bool
	}
)

// TotalSteps returns the exclusive end of the last section.
func (t *TableState) TotalSteps() int {
	if t.SectionsCount == 0 {
		return 0
	}
	return t.Sections[t.SectionsCount-1].End()
}

func (t *TableState) sectionAt(step int) int {
	return fortuned.SectionAtStep(t.Sections[:t.SectionsCount], step)
}

func emptyRow() (row [fortuned.MaxCols]fortuned.Cell) {
	for i := range row {
		row[i] = fortuned.EmptyCell()
	}
	return row
}

func defaultLayers() (layers [fortuned.MaxLayersPerSection]fortuned.Layer) {
	for i := range layers {
		layers[i] = fortuned.Layer{Len: fortuned.MaxColsPerLayer}
	}
	return layers
}
