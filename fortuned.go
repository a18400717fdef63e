// Package fortuned contains the data model for the fortuned step sequencer:
// the cell grid with its section/layer partitioning, the sample bank slots,
// and the project file format. The types here are pure values with no
// concurrency concerns; the engine package owns the live, versioned copies of
// this data and the model package owns the per-frame mirrors.
package fortuned

// Grid dimensions. The table is a fixed-capacity grid; sections partition its
// rows and layers partition the columns within a section.
const (
	MaxSteps            = 2048
	MaxCols             = 16
	MaxSections         = 64
	DefaultSectionSteps = 16
	MaxLayersPerSection = 4
	MaxColsPerLayer     = 4
)

// Sample bank dimensions. Slots are addressed 0..25 and displayed as letters
// A-Z.
const (
	MaxSampleSlots = 26
	MaxSampleID    = 128
	MaxSamplePath  = 512
	MaxSampleName  = 128
)

// Playback ranges. StepsPerBeat fixes the grid resolution to sixteenth notes.
const (
	MinBPM              = 1
	MaxBPM              = 300
	StepsPerBeat        = 4
	MinSectionLoops     = 1
	MaxSectionLoops     = 1024
	DefaultSectionLoops = 4
)

// Valid ranges for the two pitch owners: cells store a wide range at the
// storage layer, sample slot settings a narrower musical one (two octaves
// down/up).
const (
	MinCellPitch   = 0.03125
	MaxCellPitch   = 32.0
	MinSamplePitch = 0.25
	MaxSamplePitch = 4.0
)

func clampFloat(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
