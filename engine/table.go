package engine

import (
	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/types"
)

// SetCell writes a full cell. Out-of-range arguments fail with
// StatusInvalidArg and change nothing. commitUndo appends one undo snapshot;
// bulk callers pass false for all but the last write of a batch.
func (e *Engine) SetCell(step, col int, cell fortuned.Cell, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if step < 0 || step >= fortuned.MaxSteps || col < 0 || col >= fortuned.MaxCols {
		return StatusInvalidArg
	}
	if cell.SampleSlot >= fortuned.MaxSampleSlots {
		return StatusInvalidArg
	}
	e.table.Version.Write(func() {
		e.table.Cells[step][col] = cell.Clamped()
	})
	e.recordLocked(commitUndo)
	return StatusOK
}

// SetCellSettings overrides only the volume/pitch of a cell, keeping its
// sample slot.
func (e *Engine) SetCellSettings(step, col int, volume, pitch types.OptionalFloat, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if step < 0 || step >= fortuned.MaxSteps || col < 0 || col >= fortuned.MaxCols {
		return StatusInvalidArg
	}
	e.table.Version.Write(func() {
		c := e.table.Cells[step][col]
		c.Volume = volume
		c.Pitch = pitch
		e.table.Cells[step][col] = c.Clamped()
	})
	e.recordLocked(commitUndo)
	return StatusOK
}

// SetCellSampleSlot rewires only the sample slot of a cell, keeping its
// settings.
func (e *Engine) SetCellSampleSlot(step, col, slot int, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if step < 0 || step >= fortuned.MaxSteps || col < 0 || col >= fortuned.MaxCols {
		return StatusInvalidArg
	}
	if slot >= fortuned.MaxSampleSlots {
		return StatusInvalidArg
	}
	e.table.Version.Write(func() {
		c := e.table.Cells[step][col]
		c.SampleSlot = slot
		e.table.Cells[step][col] = c.Clamped()
	})
	e.recordLocked(commitUndo)
	return StatusOK
}

// ClearCell empties a cell; equivalent to SetCell with an empty cell.
func (e *Engine) ClearCell(step, col int, commitUndo bool) int {
	return e.SetCell(step, col, fortuned.EmptyCell(), commitUndo)
}

// InsertStep inserts an empty row at atStep within the section, shifting all
// rows at or after it down by one. The section grows by one step and later
// sections shift accordingly.
func (e *Engine) InsertStep(section, atStep int, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if section < 0 || section >= e.table.SectionsCount {
		return StatusInvalidArg
	}
	sec := e.table.Sections[section]
	if atStep < 0 || atStep > sec.NumSteps {
		return StatusInvalidArg
	}
	total := e.table.TotalSteps()
	if total >= fortuned.MaxSteps {
		return StatusTableFull
	}
	abs := sec.StartStep + atStep
	e.table.Version.Write(func() {
		for i := total; i > abs; i-- {
			e.table.Cells[i] = e.table.Cells[i-1]
		}
		e.table.Cells[abs] = emptyRow()
		e.table.Sections[section].NumSteps++
		for i := section + 1; i < e.table.SectionsCount; i++ {
			e.table.Sections[i].StartStep++
		}
	})
	e.clampTransportLocked()
	e.recordLocked(commitUndo)
	return StatusOK
}

// DeleteStep removes the row at atStep within the section, shifting the rows
// after it up by one. A section is never shrunk below one step.
func (e *Engine) DeleteStep(section, atStep int, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if section < 0 || section >= e.table.SectionsCount {
		return StatusInvalidArg
	}
	sec := e.table.Sections[section]
	if atStep < 0 || atStep >= sec.NumSteps || sec.NumSteps <= 1 {
		return StatusInvalidArg
	}
	total := e.table.TotalSteps()
	abs := sec.StartStep + atStep
	e.table.Version.Write(func() {
		for i := abs; i < total-1; i++ {
			e.table.Cells[i] = e.table.Cells[i+1]
		}
		e.table.Cells[total-1] = emptyRow()
		e.table.Sections[section].NumSteps--
		for i := section + 1; i < e.table.SectionsCount; i++ {
			e.table.Sections[i].StartStep--
		}
	})
	e.clampTransportLocked()
	e.recordLocked(commitUndo)
	return StatusOK
}

// SetSection is the raw single setter used by batch imports and state
// restores. It does not re-establish the partition invariant on its own; a
// batch is expected to leave the table consistent by its last call. index may
// equal the current section count, which appends a section.
func (e *Engine) SetSection(index, startStep, numSteps int, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if index < 0 || index > e.table.SectionsCount || index >= fortuned.MaxSections {
		return StatusInvalidArg
	}
	if numSteps <= 0 || startStep < 0 || startStep+numSteps > fortuned.MaxSteps {
		return StatusInvalidArg
	}
	e.table.Version.Write(func() {
		if index == e.table.SectionsCount {
			e.table.SectionsCount++
			e.table.Layers[index] = defaultLayers()
		}
		e.table.Sections[index] = fortuned.Section{StartStep: startStep, NumSteps: numSteps}
	})
	e.recordLocked(commitUndo)
	return StatusOK
}

// SetSectionStepCount resizes a section in place: rows of the following
// sections move by the delta, rows revealed by growth are empty, rows cut by
// shrinking are dropped.
func (e *Engine) SetSectionStepCount(section, steps int, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if section < 0 || section >= e.table.SectionsCount || steps <= 0 {
		return StatusInvalidArg
	}
	sec := e.table.Sections[section]
	delta := steps - sec.NumSteps
	if delta == 0 {
		return StatusOK
	}
	total := e.table.TotalSteps()
	if total+delta > fortuned.MaxSteps {
		return StatusTableFull
	}
	secEnd := sec.End()
	e.table.Version.Write(func() {
		if delta > 0 {
			for i := total - 1; i >= secEnd; i-- {
				e.table.Cells[i+delta] = e.table.Cells[i]
			}
			for i := secEnd; i < secEnd+delta; i++ {
				e.table.Cells[i] = emptyRow()
			}
		} else {
			for i := secEnd; i < total; i++ {
				e.table.Cells[i+delta] = e.table.Cells[i]
			}
			for i := total + delta; i < total; i++ {
				e.table.Cells[i] = emptyRow()
			}
		}
		e.table.Sections[section].NumSteps = steps
		for i := section + 1; i < e.table.SectionsCount; i++ {
			e.table.Sections[i].StartStep += delta
		}
	})
	e.clampTransportLocked()
	e.recordLocked(commitUndo)
	return StatusOK
}

// AppendSection appends a section after the last one. copyFrom < 0 appends an
// empty section of DefaultSectionSteps steps with default layers; otherwise
// the new section copies the source section's length, layers and cells. The
// new section starts with the default loop count.
func (e *Engine) AppendSection(copyFrom int, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if e.table.SectionsCount >= fortuned.MaxSections {
		return StatusTableFull
	}
	if copyFrom >= e.table.SectionsCount {
		return StatusInvalidArg
	}
	steps := fortuned.DefaultSectionSteps
	if copyFrom >= 0 {
		steps = e.table.Sections[copyFrom].NumSteps
	}
	total := e.table.TotalSteps()
	if total+steps > fortuned.MaxSteps {
		return StatusTableFull
	}
	index := e.table.SectionsCount
	e.table.Version.Write(func() {
		e.table.Sections[index] = fortuned.Section{StartStep: total, NumSteps: steps}
		if copyFrom >= 0 {
			src := e.table.Sections[copyFrom]
			e.table.Layers[index] = e.table.Layers[copyFrom]
			for i := 0; i < steps; i++ {
				e.table.Cells[total+i] = e.table.Cells[src.StartStep+i]
			}
		} else {
			e.table.Layers[index] = defaultLayers()
			for i := 0; i < steps; i++ {
				e.table.Cells[total+i] = emptyRow()
			}
		}
		e.table.SectionsCount++
	})
	e.playback.Version.Write(func() {
		e.playback.SectionLoops[index] = fortuned.DefaultSectionLoops
	})
	e.recordLocked(commitUndo)
	return StatusOK
}

// DeleteSection removes a section and its rows, closing the gap. The last
// remaining section cannot be deleted.
func (e *Engine) DeleteSection(index int, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if index < 0 || index >= e.table.SectionsCount || e.table.SectionsCount <= 1 {
		return StatusInvalidArg
	}
	sec := e.table.Sections[index]
	total := e.table.TotalSteps()
	e.table.Version.Write(func() {
		for i := sec.StartStep; i < total-sec.NumSteps; i++ {
			e.table.Cells[i] = e.table.Cells[i+sec.NumSteps]
		}
		for i := total - sec.NumSteps; i < total; i++ {
			e.table.Cells[i] = emptyRow()
		}
		for i := index; i < e.table.SectionsCount-1; i++ {
			e.table.Sections[i] = e.table.Sections[i+1]
			e.table.Sections[i].StartStep -= sec.NumSteps
			e.table.Layers[i] = e.table.Layers[i+1]
		}
		e.table.SectionsCount--
		e.table.Sections[e.table.SectionsCount] = fortuned.Section{}
		e.table.Layers[e.table.SectionsCount] = defaultLayers()
	})
	e.playback.Version.Write(func() {
		for i := index; i < fortuned.MaxSections-1; i++ {
			e.playback.SectionLoops[i] = e.playback.SectionLoops[i+1]
		}
		e.playback.SectionLoops[fortuned.MaxSections-1] = fortuned.DefaultSectionLoops
	})
	e.clampTransportLocked()
	e.recordLocked(commitUndo)
	return StatusOK
}

// SetLayerLen resizes one layer of a section. The lengths of a section's
// layers may never sum past the table width.
func (e *Engine) SetLayerLen(section, layer, length int, commitUndo bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if section < 0 || section >= e.table.SectionsCount {
		return StatusInvalidArg
	}
	if layer < 0 || layer >= fortuned.MaxLayersPerSection || length < 0 {
		return StatusInvalidArg
	}
	sum := 0
	for i, l := range e.table.Layers[section] {
		if i == layer {
			sum += length
		} else {
			sum += l.Len
		}
	}
	if sum > fortuned.MaxCols {
		return StatusInvalidArg
	}
	e.table.Version.Write(func() {
		e.table.Layers[section][layer].Len = length
	})
	e.recordLocked(commitUndo)
	return StatusOK
}

// clampTransportLocked keeps the playback position and region inside the
// table after structural edits.
func (e *Engine) clampTransportLocked() {
	total := e.table.TotalSteps()
	if total == 0 {
		return
	}
	e.playback.Version.Write(func() {
		if e.playback.CurrentStep >= total {
			e.playback.CurrentStep = total - 1
		}
		if e.playback.RegionEnd > total {
			e.playback.RegionEnd = total
		}
		if e.playback.RegionStart >= e.playback.RegionEnd {
			e.playback.RegionStart = 0
			e.playback.RegionEnd = total
		}
		if s := e.table.sectionAt(e.playback.CurrentStep); s >= 0 {
			e.playback.CurrentSection = s
		}
	})
}
