package engine

import (
	"time"

	fortuned "github.com/luddite478/fortuned-sub008"
)

type (
	// TriggerNote is one resolved note of a step: the cell's overrides have
	// already been merged with the sample slot settings, so consumers (MIDI
	// bridge, mixer) need no further lookups.
	TriggerNote struct {
		Column int
		Slot   int
		Volume float32
		Pitch  float32
	}

	// StepTrigger is published for every clock advance. It is a fixed-size
	// value so the clock never heap-allocates when emitting it.
	StepTrigger struct {
		Step    int
		Section int
		Count   int
		Notes   [fortuned.MaxCols]TriggerNote
	}
)

func stepDuration(bpm int) time.Duration {
	return time.Minute / time.Duration(bpm*fortuned.StepsPerBeat)
}

// PlaybackStart starts the transport at startStep with the given BPM and
// spins up the step clock. An already running clock is restarted.
func (e *Engine) PlaybackStart(bpm, startStep int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if bpm < fortuned.MinBPM || bpm > fortuned.MaxBPM {
		return StatusInvalidArg
	}
	total := e.table.TotalSteps()
	if startStep < 0 || startStep >= total {
		return StatusInvalidArg
	}
	e.stopClockLocked()
	e.playback.Version.Write(func() {
		e.playback.Playing = true
		e.playback.BPM = bpm
		e.playback.CurrentStep = startStep
		if s := e.table.sectionAt(startStep); s >= 0 {
			e.playback.CurrentSection = s
		}
		e.playback.CurrentSectionLoop = 0
		if e.playback.RegionEnd <= e.playback.RegionStart || e.playback.RegionEnd > total {
			e.playback.RegionStart = 0
			e.playback.RegionEnd = total
		}
	})
	e.emitStepLocked()
	stop := make(chan struct{})
	done := make(chan struct{})
	e.clockStop = stop
	e.clockDone = done
	go e.runClock(stop, done)
	return StatusOK
}

// PlaybackStop stops the transport and waits for the clock goroutine to
// drain.
func (e *Engine) PlaybackStop() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	e.stopClockLocked()
	return StatusOK
}

// stopClockLocked is called with e.mu held. The clock goroutine takes e.mu
// in its advance path, so the mutex is dropped while waiting for it to
// drain; the caller gets it back before returning.
func (e *Engine) stopClockLocked() {
	if e.clockStop == nil {
		if e.playback.Playing {
			e.playback.Version.Write(func() { e.playback.Playing = false })
		}
		return
	}
	e.playback.Version.Write(func() { e.playback.Playing = false })
	stop := e.clockStop
	done := e.clockDone
	e.clockStop = nil
	e.clockDone = nil
	close(stop)
	e.mu.Unlock()
	<-done
	e.mu.Lock()
}

func (e *Engine) runClock(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		e.mu.Lock()
		if !e.initialized || !e.playback.Playing {
			e.mu.Unlock()
			return
		}
		d := stepDuration(e.playback.BPM)
		e.mu.Unlock()
		select {
		case <-stop:
			return
		case <-time.After(d):
		}
		e.mu.Lock()
		if !e.playback.Playing {
			e.mu.Unlock()
			return
		}
		e.advanceStepLocked()
		e.emitStepLocked()
		e.mu.Unlock()
	}
}

// advanceStepLocked moves the transport one step forward. Loop mode wraps
// inside [RegionStart, RegionEnd); song mode walks the sections, repeating
// each one per its loop count and wrapping the song at the end.
func (e *Engine) advanceStepLocked() {
	e.playback.Version.Write(func() {
		p := &e.playback
		if e.table.SectionsCount == 0 {
			return
		}
		if !p.SongMode {
			next := p.CurrentStep + 1
			if next >= p.RegionEnd || next >= e.table.TotalSteps() {
				next = p.RegionStart
			}
			p.CurrentStep = next
			if s := e.table.sectionAt(next); s >= 0 {
				p.CurrentSection = s
			}
			return
		}
		sec := e.table.Sections[p.CurrentSection]
		next := p.CurrentStep + 1
		if next < sec.End() {
			p.CurrentStep = next
			return
		}
		loops := p.SectionLoops[p.CurrentSection]
		if loops < fortuned.MinSectionLoops {
			loops = fortuned.MinSectionLoops
		}
		if p.CurrentSectionLoop+1 < loops {
			p.CurrentSectionLoop++
			p.CurrentStep = sec.StartStep
			return
		}
		p.CurrentSectionLoop = 0
		p.CurrentSection++
		if p.CurrentSection >= e.table.SectionsCount {
			p.CurrentSection = 0
		}
		p.CurrentStep = e.table.Sections[p.CurrentSection].StartStep
	})
}

// emitStepLocked publishes the resolved notes of the current step. Inherited
// cell settings are resolved against the sample slot here, at trigger time.
func (e *Engine) emitStepLocked() {
	var trig StepTrigger
	trig.Step = e.playback.CurrentStep
	trig.Section = e.playback.CurrentSection
	for col := 0; col < fortuned.MaxCols; col++ {
		cell := e.table.Cells[trig.Step][col]
		if cell.Empty() {
			continue
		}
		sample := e.bank.Samples[cell.SampleSlot]
		if !sample.Loaded {
			continue
		}
		trig.Notes[trig.Count] = TriggerNote{
			Column: col,
			Slot:   cell.SampleSlot,
			Volume: cell.Volume.Or(sample.Settings.Volume),
			Pitch:  cell.Pitch.Or(sample.Settings.Pitch),
		}
		trig.Count++
	}
	trySend(e.triggers, trig)
}

// SetBPM changes the clock tempo; the running clock picks it up on the next
// step.
func (e *Engine) SetBPM(bpm int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if bpm < fortuned.MinBPM || bpm > fortuned.MaxBPM {
		return StatusInvalidArg
	}
	e.playback.Version.Write(func() { e.playback.BPM = bpm })
	return StatusOK
}

// SetRegion sets the loop region [start, end).
func (e *Engine) SetRegion(start, end int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if start < 0 || end <= start || end > e.table.TotalSteps() {
		return StatusInvalidArg
	}
	e.playback.Version.Write(func() {
		e.playback.RegionStart = start
		e.playback.RegionEnd = end
	})
	return StatusOK
}

// SetMode switches between loop mode (false) and song mode (true).
func (e *Engine) SetMode(songMode bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	e.playback.Version.Write(func() { e.playback.SongMode = songMode })
	return StatusOK
}

// SetSectionLoops sets how many times song mode repeats a section.
func (e *Engine) SetSectionLoops(section, loops int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if section < 0 || section >= e.table.SectionsCount {
		return StatusInvalidArg
	}
	if loops < fortuned.MinSectionLoops || loops > fortuned.MaxSectionLoops {
		return StatusInvalidArg
	}
	e.playback.Version.Write(func() { e.playback.SectionLoops[section] = loops })
	return StatusOK
}

// SwitchToSection jumps the transport to the start of a section and resets
// its loop counter.
func (e *Engine) SwitchToSection(index int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if index < 0 || index >= e.table.SectionsCount {
		return StatusInvalidArg
	}
	e.playback.Version.Write(func() {
		e.playback.CurrentSection = index
		e.playback.CurrentStep = e.table.Sections[index].StartStep
		e.playback.CurrentSectionLoop = 0
	})
	return StatusOK
}
