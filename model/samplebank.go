package model

import (
	"fmt"
	"log/slog"

	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/engine"
	"github.com/luddite478/fortuned-sub008/seqlock"
	"github.com/luddite478/fortuned-sub008/types"
)

// SampleResolver maps a stable sample id to its file reference. The manifest
// loaded from a project directory is the usual implementation.
type SampleResolver interface {
	Resolve(id string) (fortuned.SampleRef, error)
}

// SampleBankModel mirrors the sample bank snapshot and forwards slot edits.
type SampleBankModel struct {
	engine   *engine.Engine
	reader   seqlock.Reader
	log      *slog.Logger
	resolver SampleResolver

	loadedCount int
	samples     [fortuned.MaxSampleSlots]fortuned.Sample
}

func newSampleBankModel(e *engine.Engine, c config) *SampleBankModel {
	return &SampleBankModel{
		engine:   e,
		reader:   seqlock.Reader{Budget: c.budget},
		log:      c.log,
		resolver: c.resolver,
	}
}

// Tick attempts one seqlock read of the sample bank snapshot.
func (b *SampleBankModel) Tick() bool {
	st := b.engine.SampleBankState()
	return b.reader.Read(&st.Version, func() {
		b.loadedCount = st.LoadedCount
		b.samples = st.Samples
	})
}

// Sample returns the mirrored slot, or a zero sample for an invalid slot.
func (b *SampleBankModel) Sample(slot int) fortuned.Sample {
	if slot < 0 || slot >= fortuned.MaxSampleSlots {
		return fortuned.Sample{}
	}
	return b.samples[slot]
}

// IsProcessing reports whether the slot's preparation is still in flight.
func (b *SampleBankModel) IsProcessing(slot int) bool {
	return b.Sample(slot).Processing
}

func (b *SampleBankModel) LoadedCount() int {
	return b.loadedCount
}

// LoadSample resolves a stable sample id through the configured resolver and
// loads it into the slot.
func (b *SampleBankModel) LoadSample(slot int, id string) error {
	if b.resolver == nil {
		return fmt.Errorf("load sample %q: no resolver configured", id)
	}
	ref, err := b.resolver.Resolve(id)
	if err != nil {
		return fmt.Errorf("load sample %q: %w", id, err)
	}
	if st := b.engine.SampleBankLoadWithID(slot, ref.Path, ref.ID); st != engine.StatusOK {
		return fmt.Errorf("load sample %q into slot %s: engine status %d", id, fortuned.SlotLetter(slot), st)
	}
	return nil
}

// LoadSampleFile loads a file directly, without a stable id.
func (b *SampleBankModel) LoadSampleFile(slot int, path string) error {
	if st := b.engine.SampleBankLoad(slot, path); st != engine.StatusOK {
		return fmt.Errorf("load sample file %q into slot %s: engine status %d", path, fortuned.SlotLetter(slot), st)
	}
	return nil
}

func (b *SampleBankModel) UnloadSample(slot int) {
	if st := b.engine.SampleBankUnload(slot); st != engine.StatusOK {
		b.log.Warn("engine rejected sample unload", "slot", slot, "status", st)
	}
}

// SetSampleSettings updates the slot settings. Omitted fields keep their
// mirrored value; both fields reach the engine in one write.
func (b *SampleBankModel) SetSampleSettings(slot int, volume, pitch types.OptionalFloat) {
	if slot < 0 || slot >= fortuned.MaxSampleSlots {
		b.log.Debug("rejected sample settings", "slot", slot)
		return
	}
	cur := b.samples[slot].Settings
	st := b.engine.SetSampleSettings(slot, volume.Or(cur.Volume), pitch.Or(cur.Pitch))
	if st != engine.StatusOK {
		b.log.Warn("engine rejected sample settings", "slot", slot, "status", st)
	}
}
