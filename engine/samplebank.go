package engine

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	fortuned "github.com/luddite478/fortuned-sub008"
)

// SampleBankLoad loads a sample file into a slot without a stable id.
func (e *Engine) SampleBankLoad(slot int, path string) int {
	return e.SampleBankLoadWithID(slot, path, "")
}

// SampleBankLoadWithID loads a sample file into a slot, carrying the stable
// id used for reload and caching checks. The slot flips to Processing until
// the preparation goroutine finishes; a newer load of the same slot cancels
// the older job's completion.
func (e *Engine) SampleBankLoadWithID(slot int, path, id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if slot < 0 || slot >= fortuned.MaxSampleSlots || path == "" {
		return StatusInvalidArg
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sample := fortuned.Sample{
		Loaded:     true,
		Settings:   fortuned.DefaultSampleSettings(),
		Processing: true,
		ID:         fortuned.BoundString(id, fortuned.MaxSampleID),
		Path:       fortuned.BoundString(path, fortuned.MaxSamplePath),
		Name:       fortuned.BoundString(name, fortuned.MaxSampleName),
	}
	e.bank.Version.Write(func() {
		e.bank.Samples[slot] = sample
		e.bank.LoadedCount = e.countLoaded()
	})
	e.recordLocked(true)
	job := uuid.New()
	e.loadJobs[slot] = job
	go e.runPrepare(slot, job, sample)
	return StatusOK
}

func (e *Engine) runPrepare(slot int, job uuid.UUID, sample fortuned.Sample) {
	err := e.prepare(sample)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.log.Warn("sample preparation failed", "slot", fortuned.SlotLetter(slot), "path", sample.Path, "err", err)
	}
	if e.loadJobs[slot] != job {
		return // a newer load or an unload superseded this job
	}
	delete(e.loadJobs, slot)
	if !e.initialized || !e.bank.Samples[slot].Loaded {
		return
	}
	e.bank.Version.Write(func() {
		e.bank.Samples[slot].Processing = false
	})
}

// SampleBankUnload clears a slot.
func (e *Engine) SampleBankUnload(slot int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return StatusNotInitialized
	}
	if slot < 0 || slot >= fortuned.MaxSampleSlots {
		return StatusInvalidArg
	}
	delete(e.loadJobs, slot)
	e.bank.Version.Write(func() {
		e.bank.Samples[slot] = fortuned.Sample{Settings: fortuned.DefaultSampleSettings()}
		e.bank.LoadedCount = e.countLoaded()
	})
	e.recordLocked(true)
	return StatusOK
}

// SetSampleVolume sets only the slot volume, keeping the pitch.
func (e *Engine) SetSampleVolume(slot int, volume float32) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st := e.checkSlotLocked(slot); st != StatusOK {
		return st
	}
	e.bank.Version.Write(func() {
		s := e.bank.Samples[slot].Settings
		s.Volume = volume
		e.bank.Samples[slot].Settings = s.Clamped()
	})
	return StatusOK
}

// SetSamplePitch sets only the slot pitch, keeping the volume.
func (e *Engine) SetSamplePitch(slot int, pitch float32) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st := e.checkSlotLocked(slot); st != StatusOK {
		return st
	}
	e.bank.Version.Write(func() {
		s := e.bank.Samples[slot].Settings
		s.Pitch = pitch
		e.bank.Samples[slot].Settings = s.Clamped()
	})
	return StatusOK
}

// SetSampleSettings writes both settings fields atomically, in one seqlock
// window. Callers that only want to change one field read the current value
// of the other first (the model does this against its mirror).
func (e *Engine) SetSampleSettings(slot int, volume, pitch float32) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st := e.checkSlotLocked(slot); st != StatusOK {
		return st
	}
	e.bank.Version.Write(func() {
		e.bank.Samples[slot].Settings = fortuned.SampleSettings{Volume: volume, Pitch: pitch}.Clamped()
	})
	return StatusOK
}

func (e *Engine) checkSlotLocked(slot int) int {
	if !e.initialized {
		return StatusNotInitialized
	}
	if slot < 0 || slot >= fortuned.MaxSampleSlots {
		return StatusInvalidArg
	}
	return StatusOK
}

func (e *Engine) countLoaded() (n int) {
	for i := range e.bank.Samples {
		if e.bank.Samples[i].Loaded {
			n++
		}
	}
	return n
}
