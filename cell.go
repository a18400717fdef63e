package fortuned

import "github.com/luddite478/fortuned-sub008/types"

type (
	// Cell is one slot of the sequencer grid. SampleSlot refers to a sample
	// bank slot (-1 = empty cell). Volume and Pitch override the slot's own
	// settings when present; empty optionals inherit the slot settings at
	// trigger time.
	Cell struct {
		SampleSlot int
		Volume     types.OptionalFloat
		Pitch      types.OptionalFloat
	}
)

// EmptyCell returns the zero state of a grid cell.
func EmptyCell() Cell {
	return Cell{SampleSlot: -1}
}

func (c Cell) Empty() bool {
	return c.SampleSlot < 0
}

// Clamped normalizes a cell to its storage invariants: any negative slot
// becomes -1, volume is clamped to [0,1] and pitch to the storage range. An
// empty cell loses its overrides, as there is no slot to override.
func (c Cell) Clamped() Cell {
	if c.SampleSlot < 0 {
		return EmptyCell()
	}
	c.Volume = c.Volume.Map(func(v float32) float32 { return clampFloat(v, 0, 1) })
	c.Pitch = c.Pitch.Map(func(v float32) float32 { return clampFloat(v, MinCellPitch, MaxCellPitch) })
	return c
}

// CellIndex flattens a (step, column) address into a single table index.
func CellIndex(step, col int) int {
	return step*MaxCols + col
}

// CellCoords is the inverse of CellIndex.
func CellCoords(index int) (step, col int) {
	return index / MaxCols, index % MaxCols
}
