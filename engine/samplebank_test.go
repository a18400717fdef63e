package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fortuned "github.com/luddite478/fortuned-sub008"
)

// waitSettled polls until the slot's Processing flag clears.
func waitSettled(t *testing.T, e *Engine, slot int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !e.SampleBankState().Samples[slot].Processing {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("slot %d never settled", slot)
}

func TestLoadProcessingClears(t *testing.T) {
	release := make(chan struct{})
	e := newTestEngine(t, WithPrepare(func(fortuned.Sample) error {
		<-release
		return nil
	}))
	require.Equal(t, StatusOK, e.SampleBankLoad(0, "/samples/kick.wav"))
	s := e.SampleBankState().Samples[0]
	assert.True(t, s.Loaded)
	assert.True(t, s.Processing, "processing stays set until preparation finishes")
	assert.Equal(t, "kick", s.Name)
	assert.Equal(t, fortuned.DefaultSampleSettings(), s.Settings)
	assert.Equal(t, 1, e.SampleBankState().LoadedCount)

	close(release)
	waitSettled(t, e, 0)
	assert.True(t, e.SampleBankState().Samples[0].Loaded)
}

func TestLoadFailureStillSettles(t *testing.T) {
	e := newTestEngine(t, WithPrepare(func(fortuned.Sample) error {
		return errors.New("decode failed")
	}))
	require.Equal(t, StatusOK, e.SampleBankLoad(1, "/samples/broken.wav"))
	waitSettled(t, e, 1)
}

// A newer load of the same slot supersedes the older preparation job; the
// old job finishing afterwards must not touch the slot.
func TestLoadSuperseded(t *testing.T) {
	first := make(chan struct{})
	second := make(chan struct{})
	e := newTestEngine(t, WithPrepare(func(s fortuned.Sample) error {
		if s.Name == "old" {
			<-first
		} else {
			<-second
		}
		return nil
	}))
	require.Equal(t, StatusOK, e.SampleBankLoad(0, "/samples/old.wav"))
	require.Equal(t, StatusOK, e.SampleBankLoadWithID(0, "/samples/new.wav", "id-new"))

	close(second)
	waitSettled(t, e, 0)
	s := e.SampleBankState().Samples[0]
	assert.Equal(t, "new", s.Name)
	assert.Equal(t, "id-new", s.ID)

	close(first) // stale job returns; the slot must stay settled and intact
	time.Sleep(10 * time.Millisecond)
	s = e.SampleBankState().Samples[0]
	assert.False(t, s.Processing)
	assert.Equal(t, "new", s.Name)
}

func TestUnloadClearsSlot(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, StatusOK, e.SampleBankLoad(3, "/samples/hat.wav"))
	waitSettled(t, e, 3)
	require.Equal(t, StatusOK, e.SampleBankUnload(3))
	s := e.SampleBankState().Samples[3]
	assert.False(t, s.Loaded)
	assert.Equal(t, fortuned.DefaultSampleSettings(), s.Settings)
	assert.Equal(t, 0, e.SampleBankState().LoadedCount)
}

func TestLoadValidation(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, StatusInvalidArg, e.SampleBankLoad(-1, "x.wav"))
	assert.Equal(t, StatusInvalidArg, e.SampleBankLoad(fortuned.MaxSampleSlots, "x.wav"))
	assert.Equal(t, StatusInvalidArg, e.SampleBankLoad(0, ""))
}

func TestSampleSettingsClamped(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, StatusOK, e.SetSampleVolume(0, 1.5))
	assert.Equal(t, float32(1), e.SampleBankState().Samples[0].Settings.Volume)
	require.Equal(t, StatusOK, e.SetSamplePitch(0, 0.01))
	assert.Equal(t, float32(fortuned.MinSamplePitch), e.SampleBankState().Samples[0].Settings.Pitch)
	require.Equal(t, StatusOK, e.SetSampleSettings(0, 0.5, 8))
	s := e.SampleBankState().Samples[0].Settings
	assert.Equal(t, float32(0.5), s.Volume)
	assert.Equal(t, float32(fortuned.MaxSamplePitch), s.Pitch)
}

func TestSingleFieldSettersKeepOtherField(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, StatusOK, e.SetSampleSettings(0, 0.25, 2))
	require.Equal(t, StatusOK, e.SetSampleVolume(0, 0.75))
	s := e.SampleBankState().Samples[0].Settings
	assert.Equal(t, float32(0.75), s.Volume)
	assert.Equal(t, float32(2), s.Pitch)
}

func TestLongFieldsBounded(t *testing.T) {
	e := newTestEngine(t)
	longPath := "/samples/"
	for len(longPath) < 2*fortuned.MaxSamplePath {
		longPath += "abcdefgh/"
	}
	longPath += "kick.wav"
	require.Equal(t, StatusOK, e.SampleBankLoad(0, longPath))
	s := e.SampleBankState().Samples[0]
	assert.LessOrEqual(t, len(s.Path), fortuned.MaxSamplePath)
	assert.LessOrEqual(t, len(s.Name), fortuned.MaxSampleName)
}
