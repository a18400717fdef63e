package fortuned

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luddite478/fortuned-sub008/types"
)

func TestCellClamped(t *testing.T) {
	c := Cell{SampleSlot: -7, Volume: types.NewOptionalFloatOf(0.5)}
	assert.Equal(t, EmptyCell(), c.Clamped(), "negative slots normalize to the empty cell")

	c = Cell{
		SampleSlot: 3,
		Volume:     types.NewOptionalFloatOf(2),
		Pitch:      types.NewOptionalFloatOf(0.001),
	}
	got := c.Clamped()
	assert.Equal(t, float32(1), got.Volume.Value())
	assert.Equal(t, float32(MinCellPitch), got.Pitch.Value())

	c = Cell{SampleSlot: 3}
	got = c.Clamped()
	assert.True(t, got.Volume.Empty(), "inherited settings stay empty through clamping")
}

func TestCellIndexCoords(t *testing.T) {
	assert.Equal(t, 0, CellIndex(0, 0))
	assert.Equal(t, MaxCols+5, CellIndex(1, 5))
	step, col := CellCoords(CellIndex(37, 11))
	assert.Equal(t, 37, step)
	assert.Equal(t, 11, col)
}

func TestSectionAtStep(t *testing.T) {
	sections := []Section{{0, 8}, {8, 16}, {24, 4}}
	assert.Equal(t, 0, SectionAtStep(sections, 0))
	assert.Equal(t, 0, SectionAtStep(sections, 7))
	assert.Equal(t, 1, SectionAtStep(sections, 8))
	assert.Equal(t, 2, SectionAtStep(sections, 27))
	assert.Equal(t, -1, SectionAtStep(sections, 28))
	assert.Equal(t, -1, SectionAtStep(sections, -1))
	assert.Equal(t, 28, TotalSteps(sections))
	assert.Equal(t, 0, TotalSteps(nil))
}

func TestLayerSpan(t *testing.T) {
	layers := []Layer{{4}, {4}, {2}, {0}}
	start, end := LayerSpan(layers, 0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 4, end)
	start, end = LayerSpan(layers, 2)
	assert.Equal(t, 8, start)
	assert.Equal(t, 10, end)
	start, end = LayerSpan(layers, 3)
	assert.Equal(t, 10, start)
	assert.Equal(t, 10, end)
	start, end = LayerSpan(layers, 7)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
	assert.Equal(t, 10, LayerLenSum(layers))
}

func TestSampleSettingsClamped(t *testing.T) {
	s := SampleSettings{Volume: -1, Pitch: 100}.Clamped()
	assert.Equal(t, float32(0), s.Volume)
	assert.Equal(t, float32(MaxSamplePitch), s.Pitch)
}

func TestSlotLetter(t *testing.T) {
	assert.Equal(t, "A", SlotLetter(0))
	assert.Equal(t, "Z", SlotLetter(25))
	assert.Equal(t, "?", SlotLetter(-1))
	assert.Equal(t, "?", SlotLetter(26))
}

func TestBoundString(t *testing.T) {
	assert.Equal(t, "abc", BoundString("abc", 5))
	assert.Equal(t, "ab", BoundString("abcdef", 2))
}

func TestProjectValidate(t *testing.T) {
	valid := Project{
		BPM:      120,
		Sections: []ProjectSection{{Steps: 16, Loops: 4, Layers: []int{4, 4, 4, 4}}},
		Cells:    []ProjectCell{{Step: 0, Col: 0, Slot: 0}},
		Samples:  []ProjectSample{{Slot: 0, Path: "kick.wav"}},
	}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Project){
		"bpm low":       func(p *Project) { p.BPM = 0 },
		"no sections":   func(p *Project) { p.Sections = nil },
		"zero steps":    func(p *Project) { p.Sections[0].Steps = 0 },
		"loops high":    func(p *Project) { p.Sections[0].Loops = MaxSectionLoops + 1 },
		"wide layers":   func(p *Project) { p.Sections[0].Layers = []int{8, 8, 8, 8} },
		"cell past end": func(p *Project) { p.Cells[0].Step = 16 },
		"cell bad slot": func(p *Project) { p.Cells[0].Slot = MaxSampleSlots },
		"sample no ref": func(p *Project) { p.Samples[0].Path = "" },
		"sample slot":   func(p *Project) { p.Samples[0].Slot = MaxSampleSlots },
	} {
		p := valid
		p.Sections = append([]ProjectSection(nil), valid.Sections...)
		p.Cells = append([]ProjectCell(nil), valid.Cells...)
		p.Samples = append([]ProjectSample(nil), valid.Samples...)
		mutate(&p)
		assert.Error(t, p.Validate(), name)
	}
}

func TestProjectYAMLRoundTrip(t *testing.T) {
	vol := float32(0.8)
	p := Project{
		BPM:      140,
		SongMode: true,
		Sections: []ProjectSection{{Steps: 8, Loops: 2, Layers: []int{4, 4}}},
		Cells:    []ProjectCell{{Step: 1, Col: 2, Slot: 3, Volume: &vol}},
		Samples:  []ProjectSample{{Slot: 3, ID: "kick-01", Path: "kick.wav", Settings: DefaultSampleSettings()}},
	}
	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))
	got, err := ReadProject(&buf)
	require.NoError(t, err)
	assert.Equal(t, p.BPM, got.BPM)
	assert.Equal(t, p.Sections, got.Sections)
	require.Len(t, got.Cells, 1)
	require.NotNil(t, got.Cells[0].Volume)
	assert.Equal(t, vol, *got.Cells[0].Volume)
	assert.Nil(t, got.Cells[0].Pitch)
	assert.Equal(t, p.Samples, got.Samples)
}

func TestManifestErrors(t *testing.T) {
	_, err := ReadSampleManifest(strings.NewReader("samples:\n  - path: a.wav\n"))
	assert.Error(t, err, "entries need an id")

	_, err = ReadSampleManifest(strings.NewReader("samples:\n  - {id: x, path: a.wav}\n  - {id: x, path: b.wav}\n"))
	assert.Error(t, err, "duplicate ids are rejected")

	m, err := ReadSampleManifest(strings.NewReader("samples:\n  - {id: x, path: a.wav}\n"))
	require.NoError(t, err)
	ref, err := m.Resolve("x")
	require.NoError(t, err)
	assert.Equal(t, "a.wav", ref.Path)
	_, err = m.Resolve("y")
	assert.ErrorIs(t, err, ErrUnknownSample)
}
