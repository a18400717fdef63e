package model

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/types"
)

func TestProjectRoundTrip(t *testing.T) {
	m, _ := newTestModel(t)
	m.Table.UpdateManySections([]SectionUpdate{
		{Index: 0, StartStep: 0, NumSteps: 8},
		{Index: 1, StartStep: 8, NumSteps: 4},
	})
	m.Tick()
	m.Table.SetLayerLength(1, 3, 0, true)
	m.Table.SetCell(0, 0, cellOf(0, 0.8, 1.0), true)
	m.Table.SetCell(9, 2, fortuned.Cell{SampleSlot: 1}, true)
	m.Playback.SetBPM(140)
	m.Playback.SetSongMode(true)
	m.Tick()
	m.Playback.SetSectionLoops(1, 8)
	require.NoError(t, m.SampleBank.LoadSampleFile(0, "/samples/kick.wav"))
	require.NoError(t, m.SampleBank.LoadSampleFile(1, "/samples/snare.wav"))
	m.Tick()
	m.SampleBank.SetSampleSettings(1, types.NewOptionalFloatOf(0.6), types.OptionalFloat{})
	m.Tick()

	var buf bytes.Buffer
	require.NoError(t, m.WriteProject(&buf))

	m2, _ := newTestModel(t)
	require.NoError(t, m2.ReadProject(&buf))

	assert.Equal(t, 2, m2.Table.SectionsCount())
	assert.Equal(t, 12, m2.Table.TotalSteps())
	sec1, _ := m2.Table.Section(1)
	assert.Equal(t, 4, sec1.NumSteps)
	assert.Equal(t, 0, m2.Table.LayerLen(1, 3))

	got := m2.Table.GetCell(0, 0)
	assert.Equal(t, 0, got.SampleSlot)
	assert.Equal(t, float32(0.8), got.Volume.Value())
	cell := m2.Table.GetCell(9, 2)
	assert.Equal(t, 1, cell.SampleSlot)
	assert.True(t, cell.Volume.Empty(), "inherited settings stay inherited")

	assert.Equal(t, 140, m2.Playback.BPM())
	assert.True(t, m2.Playback.SongMode())
	assert.Equal(t, 8, m2.Playback.SectionLoops(1))

	snare := m2.SampleBank.Sample(1)
	assert.True(t, snare.Loaded)
	assert.Equal(t, "/samples/snare.wav", snare.Path)
	assert.Equal(t, float32(0.6), snare.Settings.Volume)
}

func TestReadProjectReplacesState(t *testing.T) {
	m, _ := newTestModel(t)
	m.Table.SetCell(3, 3, cellOf(5, 1, 1), true)
	m.Tick()

	doc := `
bpm: 100
sections:
  - steps: 8
`
	require.NoError(t, m.ReadProject(strings.NewReader(doc)))
	assert.Equal(t, 1, m.Table.SectionsCount())
	assert.Equal(t, 8, m.Table.TotalSteps())
	assert.True(t, m.Table.GetCell(3, 3).Empty(), "stale cells are cleared")
	assert.Equal(t, 100, m.Playback.BPM())
}

func TestReadProjectRejectsInvalid(t *testing.T) {
	m, _ := newTestModel(t)
	for _, doc := range []string{
		"bpm: 0\nsections:\n  - steps: 8\n",
		"bpm: 120\nsections: []\n",
		"bpm: 120\nsections:\n  - steps: 8\ncells:\n  - {step: 8, col: 0, slot: 0}\n",
		"bpm: 120\nsections:\n  - steps: 8\ncells:\n  - {step: 0, col: 0, slot: 26}\n",
		"not yaml: [",
	} {
		err := m.ReadProject(strings.NewReader(doc))
		assert.Error(t, err, "doc: %q", doc)
	}
}

func TestManifestResolution(t *testing.T) {
	manifest := `
samples:
  - id: kick-01
    path: /samples/kick.wav
    name: Kick
  - id: snare-01
    path: /samples/snare.wav
`
	resolver, err := fortuned.ReadSampleManifest(strings.NewReader(manifest))
	require.NoError(t, err)

	m, _ := newTestModel(t, WithResolver(resolver))
	require.NoError(t, m.SampleBank.LoadSample(2, "kick-01"))
	m.Tick()
	s := m.SampleBank.Sample(2)
	assert.True(t, s.Loaded)
	assert.Equal(t, "kick-01", s.ID)
	assert.Equal(t, "/samples/kick.wav", s.Path)

	err = m.SampleBank.LoadSample(3, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, fortuned.ErrUnknownSample)
}

func TestProjectSamplesById(t *testing.T) {
	manifest := `
samples:
  - id: kick-01
    path: /samples/kick.wav
`
	resolver, err := fortuned.ReadSampleManifest(strings.NewReader(manifest))
	require.NoError(t, err)
	m, _ := newTestModel(t, WithResolver(resolver))

	doc := `
bpm: 120
sections:
  - steps: 8
samples:
  - id: kick-01
    slot: 0
    path: ""
    settings: {volume: 1, pitch: 1}
`
	require.NoError(t, m.ReadProject(strings.NewReader(doc)))
	assert.Equal(t, "/samples/kick.wav", m.SampleBank.Sample(0).Path)
}
