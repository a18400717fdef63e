package model

import (
	"log/slog"

	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/engine"
	"github.com/luddite478/fortuned-sub008/seqlock"
)

type (
	// TableModel mirrors the engine's table snapshot and forwards validated
	// cell/section/layer edits. Out-of-range arguments are rejected locally
	// (logged, no engine call), so UI-driven edits can never corrupt the
	// producer.
	TableModel struct {
		engine *engine.Engine
		reader seqlock.Reader
		log    *slog.Logger

		sectionsCount int
		sections      [fortuned.MaxSections]fortuned.Section
		layers        [fortuned.MaxSections][fortuned.MaxLayersPerSection]fortuned.Layer
		cells         *[fortuned.MaxSteps][fortuned.MaxCols]fortuned.Cell
	}

	// CellUpdate is one entry of a bulk cell write.
	CellUpdate struct {
		Step, Col int
		Cell      fortuned.Cell
	}

	// SectionUpdate is one entry of a bulk section write.
	SectionUpdate struct {
		Index     int
		StartStep int
		NumSteps  int
	}

	// LayerUpdate is one entry of a bulk layer write.
	LayerUpdate struct {
		Section, Layer, Len int
	}
)

func newTableModel(e *engine.Engine, c config) *TableModel {
	return &TableModel{
		engine: e,
		reader: seqlock.Reader{Budget: c.budget},
		log:    c.log,
		cells:  &[fortuned.MaxSteps][fortuned.MaxCols]fortuned.Cell{},
	}
}

// Tick attempts one seqlock read of the table snapshot.
func (t *TableModel) Tick() bool {
	st := t.engine.TableState()
	return t.reader.Read(&st.Version, func() {
		t.sectionsCount = st.SectionsCount
		t.sections = st.Sections
		t.layers = st.Layers
		*t.cells = st.Cells
	})
}

// Mirror accessors

// GetCell returns the mirrored cell, or an empty cell for out-of-range
// addresses.
func (t *TableModel) GetCell(step, col int) fortuned.Cell {
	if step < 0 || step >= t.TotalSteps() || col < 0 || col >= fortuned.MaxCols {
		return fortuned.EmptyCell()
	}
	return t.cells[step][col]
}

func (t *TableModel) SectionsCount() int {
	return t.sectionsCount
}

func (t *TableModel) Section(index int) (fortuned.Section, bool) {
	if index < 0 || index >= t.sectionsCount {
		return fortuned.Section{}, false
	}
	return t.sections[index], true
}

func (t *TableModel) TotalSteps() int {
	return fortuned.TotalSteps(t.sections[:t.sectionsCount])
}

// SectionAtStep returns the mirrored section containing the absolute step,
// or -1.
func (t *TableModel) SectionAtStep(step int) int {
	return fortuned.SectionAtStep(t.sections[:t.sectionsCount], step)
}

// LayerSpan returns the mirrored column range [start, end) of a layer.
func (t *TableModel) LayerSpan(section, layer int) (start, end int) {
	if section < 0 || section >= t.sectionsCount {
		return 0, 0
	}
	return fortuned.LayerSpan(t.layers[section][:], layer)
}

func (t *TableModel) LayerLen(section, layer int) int {
	if section < 0 || section >= t.sectionsCount || layer < 0 || layer >= fortuned.MaxLayersPerSection {
		return 0
	}
	return t.layers[section][layer].Len
}

// Mutations

func (t *TableModel) validCell(step, col int) bool {
	if step < 0 || step >= t.TotalSteps() || col < 0 || col >= fortuned.MaxCols {
		t.log.Debug("rejected cell address", "step", step, "col", col)
		return false
	}
	return true
}

func (t *TableModel) forward(op string, status int) {
	if status != engine.StatusOK {
		t.log.Warn("engine rejected table op", "op", op, "status", status)
	}
}

// SetCell writes one cell. The slot must be a valid sample slot or -1.
func (t *TableModel) SetCell(step, col int, cell fortuned.Cell, commitUndo bool) {
	if !t.validCell(step, col) {
		return
	}
	if cell.SampleSlot >= fortuned.MaxSampleSlots {
		t.log.Debug("rejected cell slot", "slot", cell.SampleSlot)
		return
	}
	t.forward("setCell", t.engine.SetCell(step, col, cell, commitUndo))
}

// ClearCell empties one cell.
func (t *TableModel) ClearCell(step, col int, commitUndo bool) {
	if !t.validCell(step, col) {
		return
	}
	t.forward("clearCell", t.engine.ClearCell(step, col, commitUndo))
}

// InsertStep inserts an empty row at atStep within the section.
func (t *TableModel) InsertStep(section, atStep int, commitUndo bool) {
	sec, ok := t.Section(section)
	if !ok || atStep < 0 || atStep > sec.NumSteps {
		t.log.Debug("rejected insertStep", "section", section, "atStep", atStep)
		return
	}
	t.forward("insertStep", t.engine.InsertStep(section, atStep, commitUndo))
}

// DeleteStep removes the row at atStep within the section.
func (t *TableModel) DeleteStep(section, atStep int, commitUndo bool) {
	sec, ok := t.Section(section)
	if !ok || atStep < 0 || atStep >= sec.NumSteps {
		t.log.Debug("rejected deleteStep", "section", section, "atStep", atStep)
		return
	}
	t.forward("deleteStep", t.engine.DeleteStep(section, atStep, commitUndo))
}

// AppendSection appends a section, copying layout and cells from copyFrom
// when it is a valid mirrored section index (pass -1 for an empty section).
func (t *TableModel) AppendSection(copyFrom int, commitUndo bool) {
	if copyFrom >= t.sectionsCount {
		t.log.Debug("rejected appendSection", "copyFrom", copyFrom)
		return
	}
	t.forward("appendSection", t.engine.AppendSection(copyFrom, commitUndo))
}

// DeleteSection removes a section; the last one cannot be removed.
func (t *TableModel) DeleteSection(index int, commitUndo bool) {
	if index < 0 || index >= t.sectionsCount || t.sectionsCount <= 1 {
		t.log.Debug("rejected deleteSection", "index", index)
		return
	}
	t.forward("deleteSection", t.engine.DeleteSection(index, commitUndo))
}

// SetSectionStepCount resizes a section.
func (t *TableModel) SetSectionStepCount(section, steps int, commitUndo bool) {
	if _, ok := t.Section(section); !ok || steps <= 0 {
		t.log.Debug("rejected setSectionStepCount", "section", section, "steps", steps)
		return
	}
	t.forward("setSectionStepCount", t.engine.SetSectionStepCount(section, steps, commitUndo))
}

// SetLayerLength resizes one layer of a section, keeping the section's
// layers within the table width.
func (t *TableModel) SetLayerLength(section, layer, length int, commitUndo bool) {
	if section < 0 || section >= t.sectionsCount ||
		layer < 0 || layer >= fortuned.MaxLayersPerSection || length < 0 {
		t.log.Debug("rejected setLayerLength", "section", section, "layer", layer, "len", length)
		return
	}
	sum := length
	for i := 0; i < fortuned.MaxLayersPerSection; i++ {
		if i != layer {
			sum += t.layers[section][i].Len
		}
	}
	if sum > fortuned.MaxCols {
		t.log.Debug("rejected setLayerLength", "section", section, "layer", layer, "len", length)
		return
	}
	t.forward("setLayerLength", t.engine.SetLayerLen(section, layer, length, commitUndo))
}

// Bulk variants. Each filters out invalid entries, then forwards the rest
// with commitUndo=false on all but the last call, collapsing the batch into
// one undoable unit.

func (t *TableModel) UpdateManyCells(updates []CellUpdate) (applied int) {
	valid := updates[:0:0]
	for _, u := range updates {
		if u.Step >= 0 && u.Step < t.TotalSteps() && u.Col >= 0 && u.Col < fortuned.MaxCols &&
			u.Cell.SampleSlot < fortuned.MaxSampleSlots {
			valid = append(valid, u)
		} else {
			t.log.Debug("skipped bulk cell", "step", u.Step, "col", u.Col)
		}
	}
	for i, u := range valid {
		t.forward("updateManyCells", t.engine.SetCell(u.Step, u.Col, u.Cell, i == len(valid)-1))
	}
	return len(valid)
}

func (t *TableModel) UpdateManySections(updates []SectionUpdate) (applied int) {
	valid := updates[:0:0]
	count := t.sectionsCount
	for _, u := range updates {
		// an index one past the end appends, so a batch may grow the table
		if u.Index >= 0 && u.Index <= count && u.Index < fortuned.MaxSections && u.NumSteps > 0 {
			valid = append(valid, u)
			if u.Index == count {
				count++
			}
		} else {
			t.log.Debug("skipped bulk section", "index", u.Index)
		}
	}
	for i, u := range valid {
		t.forward("updateManySections", t.engine.SetSection(u.Index, u.StartStep, u.NumSteps, i == len(valid)-1))
	}
	return len(valid)
}

func (t *TableModel) UpdateManyLayers(updates []LayerUpdate) (applied int) {
	valid := updates[:0:0]
	for _, u := range updates {
		if u.Section >= 0 && u.Section < fortuned.MaxSections &&
			u.Layer >= 0 && u.Layer < fortuned.MaxLayersPerSection &&
			u.Len >= 0 && u.Len <= fortuned.MaxCols {
			valid = append(valid, u)
		} else {
			t.log.Debug("skipped bulk layer", "section", u.Section, "layer", u.Layer)
		}
	}
	for i, u := range valid {
		t.forward("updateManyLayers", t.engine.SetLayerLen(u.Section, u.Layer, u.Len, i == len(valid)-1))
	}
	return len(valid)
}
