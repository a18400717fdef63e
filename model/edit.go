package model

import (
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/types"
)

// Step-insert jump bounds.
const (
	MinStepInsert = 1
	MaxStepInsert = 16
)

type (
	// EditEngine holds the selection and clipboard over the visible window:
	// the active section's rows crossed with the active layer's columns.
	// Selection indices are flattened row*width+col positions inside that
	// window; the grid width is captured when the anchor is set, so a
	// rectangle keeps its shape even if the layer is resized mid-drag.
	EditEngine struct {
		table *TableModel
		log   *slog.Logger

		section int
		layer   int

		selection map[int]struct{}
		anchor    int
		gridWidth int

		clipboard []ClipboardEntry

		stepInsert      bool
		stepInsertSteps int
	}

	// ClipboardEntry is one copied cell, addressed relative to the copied
	// block's top-left corner. Nil Volume/Pitch mean the cell inherits the
	// slot settings.
	ClipboardEntry struct {
		Row    int      `yaml:"row"`
		Col    int      `yaml:"col"`
		Slot   int      `yaml:"slot"`
		Volume *float32 `yaml:"volume,omitempty"`
		Pitch  *float32 `yaml:"pitch,omitempty"`
	}

	clipboardDoc struct {
		Cells []ClipboardEntry `yaml:"cells"`
	}
)

func newEditEngine(t *TableModel, log *slog.Logger) *EditEngine {
	return &EditEngine{
		table:           t,
		log:             log,
		selection:       make(map[int]struct{}),
		anchor:          -1,
		stepInsertSteps: MinStepInsert,
	}
}

// SetActive switches the visible window and drops the selection.
func (ed *EditEngine) SetActive(section, layer int) {
	ed.section = section
	ed.layer = layer
	ed.ClearSelection()
}

func (ed *EditEngine) ActiveSection() int { return ed.section }
func (ed *EditEngine) ActiveLayer() int   { return ed.layer }

// width returns the current visible grid width.
func (ed *EditEngine) width() int {
	start, end := ed.table.LayerSpan(ed.section, ed.layer)
	return end - start
}

// rows returns the current visible row count.
func (ed *EditEngine) rows() int {
	sec, ok := ed.table.Section(ed.section)
	if !ok {
		return 0
	}
	return sec.NumSteps
}

// SelectCell drives the selection state machine. A plain click selects one
// cell and sets the anchor; an extend click spans the rectangle between the
// anchor and the clicked cell.
func (ed *EditEngine) SelectCell(index int, extend bool) {
	w := ed.width()
	if w <= 0 || index < 0 || index >= ed.rows()*w {
		ed.log.Debug("rejected selection index", "index", index)
		return
	}
	if !extend || ed.anchor < 0 {
		ed.selection = map[int]struct{}{index: {}}
		ed.anchor = index
		ed.gridWidth = w
		return
	}
	aRow, aCol := ed.anchor/ed.gridWidth, ed.anchor%ed.gridWidth
	cRow, cCol := index/ed.gridWidth, index%ed.gridWidth
	r0, r1 := minMax(aRow, cRow)
	c0, c1 := minMax(aCol, cCol)
	ed.selection = make(map[int]struct{})
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			ed.selection[r*ed.gridWidth+c] = struct{}{}
		}
	}
}

func (ed *EditEngine) ClearSelection() {
	ed.selection = make(map[int]struct{})
	ed.anchor = -1
}

func (ed *EditEngine) SelectionSize() int {
	return len(ed.selection)
}

func (ed *EditEngine) IsSelected(index int) bool {
	_, ok := ed.selection[index]
	return ok
}

// absolute converts a flattened visible index to an absolute table address.
func (ed *EditEngine) absolute(index int) (step, col int, ok bool) {
	if ed.gridWidth <= 0 {
		return 0, 0, false
	}
	sec, secOK := ed.table.Section(ed.section)
	if !secOK {
		return 0, 0, false
	}
	layerStart, _ := ed.table.LayerSpan(ed.section, ed.layer)
	row, c := index/ed.gridWidth, index%ed.gridWidth
	return sec.StartStep + row, layerStart + c, true
}

// selectionTopLeft returns the smallest (row, col) across the selection.
func (ed *EditEngine) selectionTopLeft() (row, col int, ok bool) {
	if len(ed.selection) == 0 || ed.gridWidth <= 0 {
		return 0, 0, false
	}
	first := true
	for index := range ed.selection {
		r, c := index/ed.gridWidth, index%ed.gridWidth
		if first || r < row {
			row = r
		}
		if first || c < col {
			col = c
		}
		first = false
	}
	return row, col, true
}

// Copy snapshots the selected cells into the clipboard, addressed relative
// to the selection's top-left corner.
func (ed *EditEngine) Copy() {
	tlRow, tlCol, ok := ed.selectionTopLeft()
	if !ok {
		ed.log.Debug("copy with empty selection")
		return
	}
	indices := make([]int, 0, len(ed.selection))
	for index := range ed.selection {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	entries := make([]ClipboardEntry, 0, len(indices))
	for _, index := range indices {
		step, col, ok := ed.absolute(index)
		if !ok {
			continue
		}
		cell := ed.table.GetCell(step, col)
		entry := ClipboardEntry{
			Row:  index/ed.gridWidth - tlRow,
			Col:  index%ed.gridWidth - tlCol,
			Slot: cell.SampleSlot,
		}
		if v, exists := cell.Volume.Unpack(); exists {
			vv := v
			entry.Volume = &vv
		}
		if p, exists := cell.Pitch.Unpack(); exists {
			pp := p
			entry.Pitch = &pp
		}
		entries = append(entries, entry)
	}
	ed.clipboard = entries
}

func (ed *EditEngine) ClipboardSize() int {
	return len(ed.clipboard)
}

// Paste writes the clipboard at the current target: the anchor cell for a
// 1-cell clipboard, otherwise the selection's top-left. Writes are grouped
// by absolute row; every touched row is read back from the mirror and the
// pasted columns are overlaid onto it, so cells of the row outside the paste
// keep their values. The whole paste commits as one undoable unit.
func (ed *EditEngine) Paste() {
	if len(ed.clipboard) == 0 || ed.gridWidth <= 0 {
		ed.log.Debug("paste with empty clipboard or no anchor")
		return
	}
	var tlRow, tlCol int
	if len(ed.clipboard) == 1 && ed.anchor >= 0 {
		tlRow, tlCol = ed.anchor/ed.gridWidth, ed.anchor%ed.gridWidth
	} else {
		var ok bool
		tlRow, tlCol, ok = ed.selectionTopLeft()
		if !ok {
			ed.log.Debug("paste with no selection")
			return
		}
	}
	sec, ok := ed.table.Section(ed.section)
	if !ok {
		return
	}
	layerStart, layerEnd := ed.table.LayerSpan(ed.section, ed.layer)

	// absolute column of each pasted cell, keyed by absolute step
	rowCells := make(map[int]map[int]fortuned.Cell)
	for _, entry := range ed.clipboard {
		row := tlRow + entry.Row
		col := tlCol + entry.Col
		if row < 0 || row >= sec.NumSteps || layerStart+col >= layerEnd {
			continue
		}
		step := sec.StartStep + row
		if rowCells[step] == nil {
			rowCells[step] = make(map[int]fortuned.Cell)
		}
		cell := fortuned.Cell{
			SampleSlot: entry.Slot,
			Volume:     optionalFromPtr(entry.Volume),
			Pitch:      optionalFromPtr(entry.Pitch),
		}
		rowCells[step][layerStart+col] = cell
	}
	if len(rowCells) == 0 {
		return
	}
	steps := make([]int, 0, len(rowCells))
	for step := range rowCells {
		steps = append(steps, step)
	}
	sort.Ints(steps)
	var updates []CellUpdate
	for _, step := range steps {
		pasted := rowCells[step]
		for col := layerStart; col < layerEnd; col++ {
			cell, ok := pasted[col]
			if !ok {
				cell = ed.table.GetCell(step, col)
			}
			updates = append(updates, CellUpdate{Step: step, Col: col, Cell: cell})
		}
	}
	ed.table.UpdateManyCells(updates)
	if ed.stepInsert {
		ed.advanceSelection(ed.stepInsertSteps)
	}
}

// Delete clears every selected cell as one undoable unit.
func (ed *EditEngine) Delete() {
	if len(ed.selection) == 0 {
		return
	}
	indices := make([]int, 0, len(ed.selection))
	for index := range ed.selection {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	var updates []CellUpdate
	for _, index := range indices {
		step, col, ok := ed.absolute(index)
		if !ok {
			continue
		}
		updates = append(updates, CellUpdate{Step: step, Col: col, Cell: fortuned.EmptyCell()})
	}
	ed.table.UpdateManyCells(updates)
}

// SetStepInsert enables the post-paste jump; steps is clamped to [1, 16].
func (ed *EditEngine) SetStepInsert(enabled bool, steps int) {
	if steps < MinStepInsert {
		steps = MinStepInsert
	}
	if steps > MaxStepInsert {
		steps = MaxStepInsert
	}
	ed.stepInsert = enabled
	ed.stepInsertSteps = steps
}

func (ed *EditEngine) StepInsert() (enabled bool, steps int) {
	return ed.stepInsert, ed.stepInsertSteps
}

// advanceSelection moves the selection down by rows, stopping at the last
// visible row.
func (ed *EditEngine) advanceSelection(rows int) {
	if ed.anchor < 0 || ed.gridWidth <= 0 {
		return
	}
	total := ed.rows()
	moved := make(map[int]struct{}, len(ed.selection))
	for index := range ed.selection {
		r := index/ed.gridWidth + rows
		if r >= total {
			r = total - 1
		}
		moved[r*ed.gridWidth+index%ed.gridWidth] = struct{}{}
	}
	ed.selection = moved
	aRow := ed.anchor/ed.gridWidth + rows
	if aRow >= total {
		aRow = total - 1
	}
	ed.anchor = aRow*ed.gridWidth + ed.anchor%ed.gridWidth
}

// MarshalClipboard serializes the clipboard for an external clipboard.
func (ed *EditEngine) MarshalClipboard() ([]byte, error) {
	return yaml.Marshal(clipboardDoc{Cells: ed.clipboard})
}

// UnmarshalClipboard replaces the clipboard from serialized form.
func (ed *EditEngine) UnmarshalClipboard(data []byte) error {
	var doc clipboardDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	ed.clipboard = doc.Cells
	return nil
}

func optionalFromPtr(p *float32) types.OptionalFloat {
	if p == nil {
		return types.OptionalFloat{}
	}
	return types.NewOptionalFloatOf(*p)
}

func minMax(a, b int) (lo, hi int) {
	if a < b {
		return a, b
	}
	return b, a
}
