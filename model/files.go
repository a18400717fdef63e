package model

import (
	"fmt"
	"io"

	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/engine"
)

// WriteProject captures the current mirrors as a project document. Call
// Tick first when engine-side changes may not have been observed yet.
func (m *Model) WriteProject(w io.Writer) error {
	p := fortuned.Project{
		BPM:      m.Playback.BPM(),
		SongMode: m.Playback.SongMode(),
	}
	count := m.Table.SectionsCount()
	for i := 0; i < count; i++ {
		sec, _ := m.Table.Section(i)
		ps := fortuned.ProjectSection{
			Steps: sec.NumSteps,
			Loops: m.Playback.SectionLoops(i),
		}
		for l := 0; l < fortuned.MaxLayersPerSection; l++ {
			ps.Layers = append(ps.Layers, m.Table.LayerLen(i, l))
		}
		p.Sections = append(p.Sections, ps)
	}
	total := m.Table.TotalSteps()
	for step := 0; step < total; step++ {
		for col := 0; col < fortuned.MaxCols; col++ {
			cell := m.Table.GetCell(step, col)
			if cell.Empty() {
				continue
			}
			pc := fortuned.ProjectCell{Step: step, Col: col, Slot: cell.SampleSlot}
			if v, ok := cell.Volume.Unpack(); ok {
				vv := v
				pc.Volume = &vv
			}
			if pt, ok := cell.Pitch.Unpack(); ok {
				pp := pt
				pc.Pitch = &pp
			}
			p.Cells = append(p.Cells, pc)
		}
	}
	for slot := 0; slot < fortuned.MaxSampleSlots; slot++ {
		s := m.SampleBank.Sample(slot)
		if !s.Loaded {
			continue
		}
		p.Samples = append(p.Samples, fortuned.ProjectSample{
			Slot:     slot,
			ID:       s.ID,
			Name:     s.Name,
			Path:     s.Path,
			Settings: s.Settings,
		})
	}
	return p.Write(w)
}

// ReadProject parses and applies a project: the section layout and cells go
// in as bulk batches, then the sample slots and playback settings. The
// mirrors are ticked between phases so each batch validates against the
// layout the previous one produced.
func (m *Model) ReadProject(r io.Reader) error {
	p, err := fortuned.ReadProject(r)
	if err != nil {
		return err
	}
	m.Tick()

	sections := make([]SectionUpdate, len(p.Sections))
	start := 0
	for i, s := range p.Sections {
		sections[i] = SectionUpdate{Index: i, StartStep: start, NumSteps: s.Steps}
		start += s.Steps
	}
	m.Table.UpdateManySections(sections)
	m.Tick()
	for m.Table.SectionsCount() > len(p.Sections) {
		m.Table.DeleteSection(m.Table.SectionsCount()-1, true)
		m.Tick()
	}

	var layers []LayerUpdate
	for i, s := range p.Sections {
		for l, length := range s.Layers {
			layers = append(layers, LayerUpdate{Section: i, Layer: l, Len: length})
		}
	}
	if len(layers) > 0 {
		m.Table.UpdateManyLayers(layers)
		m.Tick()
	}

	// one batch covering the whole grid, so stale cells are cleared and the
	// whole load is a single undo unit
	want := make(map[int]fortuned.Cell, len(p.Cells))
	for _, c := range p.Cells {
		want[fortuned.CellIndex(c.Step, c.Col)] = fortuned.Cell{
			SampleSlot: c.Slot,
			Volume:     optionalFromPtr(c.Volume),
			Pitch:      optionalFromPtr(c.Pitch),
		}
	}
	total := m.Table.TotalSteps()
	updates := make([]CellUpdate, 0, total*fortuned.MaxCols)
	for step := 0; step < total; step++ {
		for col := 0; col < fortuned.MaxCols; col++ {
			cell, ok := want[fortuned.CellIndex(step, col)]
			if !ok {
				cell = fortuned.EmptyCell()
			}
			updates = append(updates, CellUpdate{Step: step, Col: col, Cell: cell})
		}
	}
	m.Table.UpdateManyCells(updates)

	for _, s := range p.Samples {
		var loadErr error
		switch {
		case s.Path != "":
			if st := m.engine.SampleBankLoadWithID(s.Slot, s.Path, s.ID); st != engine.StatusOK {
				loadErr = fmt.Errorf("engine status %d", st)
			}
		default:
			loadErr = m.SampleBank.LoadSample(s.Slot, s.ID)
		}
		if loadErr != nil {
			return fmt.Errorf("load project sample slot %s: %w", fortuned.SlotLetter(s.Slot), loadErr)
		}
		if st := m.engine.SetSampleSettings(s.Slot, s.Settings.Volume, s.Settings.Pitch); st != engine.StatusOK {
			return fmt.Errorf("apply settings for slot %s: engine status %d", fortuned.SlotLetter(s.Slot), st)
		}
	}

	if st := m.engine.SetBPM(p.BPM); st != engine.StatusOK {
		return fmt.Errorf("apply bpm %d: engine status %d", p.BPM, st)
	}
	if st := m.engine.SetMode(p.SongMode); st != engine.StatusOK {
		return fmt.Errorf("apply song mode: engine status %d", st)
	}
	for i, s := range p.Sections {
		if s.Loops == 0 {
			continue
		}
		if st := m.engine.SetSectionLoops(i, s.Loops); st != engine.StatusOK {
			return fmt.Errorf("apply loops for section %d: engine status %d", i, st)
		}
	}
	m.Tick()
	return nil
}
