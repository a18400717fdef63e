package fortuned

type (
	// SampleSettings are the per-slot defaults that cells inherit unless they
	// carry their own overrides.
	SampleSettings struct {
		Volume float32 `yaml:"volume"`
		Pitch  float32 `yaml:"pitch"`
	}

	// Sample is one sample bank slot. Processing is true while the engine is
	// still preparing the sample off-thread after a load; consumers must not
	// assume it is false right after the load call returns.
	Sample struct {
		Loaded     bool
		Settings   SampleSettings
		Processing bool
		ID         string
		Path       string
		Name       string
	}
)

// DefaultSampleSettings returns unity volume and pitch.
func DefaultSampleSettings() SampleSettings {
	return SampleSettings{Volume: 1, Pitch: 1}
}

// Clamped restricts the settings to their valid ranges: volume [0,1], pitch
// [MinSamplePitch, MaxSamplePitch].
func (s SampleSettings) Clamped() SampleSettings {
	s.Volume = clampFloat(s.Volume, 0, 1)
	s.Pitch = clampFloat(s.Pitch, MinSamplePitch, MaxSamplePitch)
	return s
}

// SlotLetter returns the display letter for a slot index (0 = "A"). Out of
// range slots yield "?".
func SlotLetter(slot int) string {
	if slot < 0 || slot >= MaxSampleSlots {
		return "?"
	}
	return string(rune('A' + slot))
}

// BoundString truncates s to at most max bytes, mirroring the fixed-size
// string fields of the storage layout.
func BoundString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
