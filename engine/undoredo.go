package engine

import (
	fortuned "github.com/luddite478/fortuned-sub008"
)

// maxHistory caps the undo history; the oldest snapshot is dropped when a
// new one would exceed it.
const maxHistory = 100

// historyEntry is one composite snapshot of the durable state: the full
// table, the durable playback settings and the sample bank. Transient fields
// (transport position, processing flags) are not undoable and are excluded.
type historyEntry struct {
	cells         [fortuned.MaxSteps][fortuned.MaxCols]fortuned.Cell
	sections      [fortuned.MaxSections]fortuned.Section
	layers        [fortuned.MaxSections][fortuned.MaxLayersPerSection]fortuned.Layer
	sectionsCount int

	bpm          int
	regionStart  int
	regionEnd    int
	songMode     bool
	sectionLoops [fortuned.MaxSections]int

	samples     [fortuned.MaxSampleSlots]fortuned.Sample
	loadedCount int
}

// recordLocked appends a post-mutation snapshot when commit is set. Every
// mutation of a bulk batch except the last passes commit=false, so the batch
// collapses into one undoable unit. Recording is suppressed while a snapshot
// is being applied.
func (e *Engine) recordLocked(commit bool) {
	if !commit || e.applying {
		return
	}
	e.history = e.history[:e.cursor+1]
	e.history = append(e.history, e.captureLocked())
	if len(e.history) > maxHistory {
		e.history = e.history[1:]
	}
	e.cursor = len(e.history) - 1
	e.publishUndoLocked()
}

// resetHistoryLocked drops all history and records the current state as the
// baseline snapshot.
func (e *Engine) resetHistoryLocked() {
	e.history = []*historyEntry{e.captureLocked()}
	e.cursor = 0
	e.publishUndoLocked()
}

func (e *Engine) captureLocked() *historyEntry {
	h := &historyEntry{
		cells:         e.table.Cells,
		sections:      e.table.Sections,
		layers:        e.table.Layers,
		sectionsCount: e.table.SectionsCount,
		bpm:           e.playback.BPM,
		regionStart:   e.playback.RegionStart,
		regionEnd:     e.playback.RegionEnd,
		songMode:      e.playback.SongMode,
		sectionLoops:  e.playback.SectionLoops,
		samples:       e.bank.Samples,
		loadedCount:   e.bank.LoadedCount,
	}
	// a resurrected processing flag could never be cleared, so snapshots
	// store the slots as settled
	for i := range h.samples {
		h.samples[i].Processing = false
	}
	return h
}

func (e *Engine) applyLocked(h *historyEntry) {
	e.applying = true
	defer func() { e.applying = false }()
	e.table.Version.Write(func() {
		e.table.Cells = h.cells
		e.table.Sections = h.sections
		e.table.Layers = h.layers
		e.table.SectionsCount = h.sectionsCount
	})
	e.playback.Version.Write(func() {
		e.playback.BPM = h.bpm
		e.playback.RegionStart = h.regionStart
		e.playback.RegionEnd = h.regionEnd
		e.playback.SongMode = h.songMode
		e.playback.SectionLoops = h.sectionLoops
	})
	e.bank.Version.Write(func() {
		e.bank.Samples = h.samples
		e.bank.LoadedCount = h.loadedCount
	})
	e.clampTransportLocked()
}

// publishUndoLocked refreshes the consumer-visible undo summary.
func (e *Engine) publishUndoLocked() {
	e.undo.Version.Write(func() {
		e.undo.Count = len(e.history)
		e.undo.Cursor = e.cursor
		e.undo.CanUndo = e.cursor > 0
		e.undo.CanRedo = e.cursor < len(e.history)-1
	})
}

// Undo steps the history cursor back and applies that snapshot. A no-op when
// there is nothing to undo.
func (e *Engine) Undo() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if e.cursor <= 0 {
		return StatusInvalidArg
	}
	e.cursor--
	e.applyLocked(e.history[e.cursor])
	e.publishUndoLocked()
	return StatusOK
}

// Redo steps the history cursor forward and applies that snapshot.
func (e *Engine) Redo() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if e.cursor >= len(e.history)-1 {
		return StatusInvalidArg
	}
	e.cursor++
	e.applyLocked(e.history[e.cursor])
	e.publishUndoLocked()
	return StatusOK
}

// ClearHistory resets the history to the current state.
func (e *Engine) ClearHistory() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	e.resetHistoryLocked()
	return StatusOK
}

// CanUndo reports the producer-side capability; consumers normally mirror
// UndoRedoState instead.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor > 0
}

// CanRedo reports the producer-side capability.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor < len(e.history)-1
}
