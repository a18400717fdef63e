package model

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/engine"
	"github.com/luddite478/fortuned-sub008/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestModel(t *testing.T, opts ...Option) (*Model, *engine.Engine) {
	t.Helper()
	e := engine.New(engine.WithLogger(testLogger()))
	require.Equal(t, engine.StatusOK, e.Init())
	t.Cleanup(e.Cleanup)
	m := New(e, append([]Option{WithLogger(testLogger())}, opts...)...)
	return m, e
}

func cellOf(slot int, volume, pitch float32) fortuned.Cell {
	return fortuned.Cell{
		SampleSlot: slot,
		Volume:     types.NewOptionalFloatOf(volume),
		Pitch:      types.NewOptionalFloatOf(pitch),
	}
}

func TestInitialTickMirrorsDefaults(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, 1, m.Table.SectionsCount())
	assert.Equal(t, fortuned.DefaultSectionSteps, m.Table.TotalSteps())
	assert.Equal(t, 120, m.Playback.BPM())
	assert.Equal(t, fortuned.DefaultSectionLoops, m.Playback.SectionLoops(0))
	assert.Equal(t, 0, m.SampleBank.LoadedCount())
	assert.False(t, m.Undo.CanUndo())
}

// Mutations never update the mirror optimistically; the effect appears only
// after the next tick.
func TestMirrorUpdatesOnTickOnly(t *testing.T) {
	m, _ := newTestModel(t)
	m.Table.SetCell(0, 0, cellOf(5, 0.8, 1.0), true)
	assert.True(t, m.Table.GetCell(0, 0).Empty(), "mirror must be stale before the tick")

	fresh := m.Tick()
	assert.Equal(t, 4, fresh)
	got := m.Table.GetCell(0, 0)
	assert.Equal(t, 5, got.SampleSlot)
	assert.Equal(t, float32(0.8), got.Volume.Value())
	assert.Equal(t, float32(1.0), got.Pitch.Value())
}

func TestShiftScenario(t *testing.T) {
	m, _ := newTestModel(t)
	m.Table.SetCell(0, 0, cellOf(5, 0.8, 1.0), true)
	m.Tick()
	require.Equal(t, 5, m.Table.GetCell(0, 0).SampleSlot)

	m.Table.InsertStep(0, 0, true)
	m.Tick()
	assert.True(t, m.Table.GetCell(0, 0).Empty())
	got := m.Table.GetCell(1, 0)
	assert.Equal(t, 5, got.SampleSlot)
	assert.Equal(t, float32(0.8), got.Volume.Value())
}

// Out-of-range arguments are dropped before any engine call: the engine
// state, and therefore the next tick's mirror, stays unchanged.
func TestLocalValidationRejects(t *testing.T) {
	m, e := newTestModel(t)
	m.Playback.SetBPM(400)
	m.Playback.SetSectionLoops(0, 2000)
	m.Playback.SetSectionLoops(3, 2)
	m.Table.SetCell(-1, 0, cellOf(0, 1, 1), true)
	m.Table.SetCell(0, fortuned.MaxCols, cellOf(0, 1, 1), true)
	m.Table.SetCell(m.Table.TotalSteps(), 0, cellOf(0, 1, 1), true)
	m.Table.DeleteSection(0, true)

	assert.Equal(t, 120, e.PlaybackState().BPM)
	assert.Equal(t, fortuned.DefaultSectionLoops, e.PlaybackState().SectionLoops[0])
	assert.Equal(t, 1, e.UndoRedoState().Count, "no edit should have reached the engine")

	m.Tick()
	assert.Equal(t, 120, m.Playback.BPM())
	assert.Equal(t, fortuned.DefaultSectionLoops, m.Playback.SectionLoops(0))
}

func TestBulkCellsCommitOnce(t *testing.T) {
	m, e := newTestModel(t)
	updates := []CellUpdate{
		{Step: 0, Col: 0, Cell: cellOf(1, 1, 1)},
		{Step: -5, Col: 0, Cell: cellOf(1, 1, 1)}, // dropped locally
		{Step: 1, Col: 1, Cell: cellOf(2, 1, 1)},
		{Step: 2, Col: 2, Cell: cellOf(3, 1, 1)},
	}
	applied := m.Table.UpdateManyCells(updates)
	assert.Equal(t, 3, applied)
	assert.Equal(t, 2, e.UndoRedoState().Count, "the batch is one undoable unit")

	m.Tick()
	assert.Equal(t, 1, m.Table.GetCell(0, 0).SampleSlot)
	assert.Equal(t, 2, m.Table.GetCell(1, 1).SampleSlot)
	assert.Equal(t, 3, m.Table.GetCell(2, 2).SampleSlot)
}

func TestBulkSectionsCanAppend(t *testing.T) {
	m, _ := newTestModel(t)
	applied := m.Table.UpdateManySections([]SectionUpdate{
		{Index: 0, StartStep: 0, NumSteps: 8},
		{Index: 1, StartStep: 8, NumSteps: 4},
	})
	assert.Equal(t, 2, applied)
	m.Tick()
	assert.Equal(t, 2, m.Table.SectionsCount())
	assert.Equal(t, 12, m.Table.TotalSteps())
}

func TestUndoModelRoundTrip(t *testing.T) {
	m, _ := newTestModel(t)
	m.Table.SetCell(0, 0, cellOf(4, 1, 1), true)
	m.Tick()
	require.True(t, m.Undo.CanUndo())

	m.Undo.Undo()
	m.Tick()
	assert.True(t, m.Table.GetCell(0, 0).Empty())
	assert.True(t, m.Undo.CanRedo())

	m.Undo.Redo()
	m.Tick()
	assert.Equal(t, 4, m.Table.GetCell(0, 0).SampleSlot)
}

func TestSampleBankModel(t *testing.T) {
	m, _ := newTestModel(t)
	require.NoError(t, m.SampleBank.LoadSampleFile(0, "/samples/kick.wav"))
	m.Tick()
	s := m.SampleBank.Sample(0)
	assert.True(t, s.Loaded)
	assert.Equal(t, "kick", s.Name)
	assert.Equal(t, 1, m.SampleBank.LoadedCount())

	m.SampleBank.SetSampleSettings(0, types.NewOptionalFloatOf(0.5), types.OptionalFloat{})
	m.Tick()
	got := m.SampleBank.Sample(0).Settings
	assert.Equal(t, float32(0.5), got.Volume)
	assert.Equal(t, float32(1), got.Pitch, "omitted field keeps the mirrored value")

	m.SampleBank.UnloadSample(0)
	m.Tick()
	assert.False(t, m.SampleBank.Sample(0).Loaded)
}

func TestLoadSampleWithoutResolver(t *testing.T) {
	m, _ := newTestModel(t)
	err := m.SampleBank.LoadSample(0, "kick-01")
	assert.Error(t, err)
}

func TestLayerSpanMirror(t *testing.T) {
	m, _ := newTestModel(t)
	start, end := m.Table.LayerSpan(0, 1)
	assert.Equal(t, fortuned.MaxColsPerLayer, start)
	assert.Equal(t, 2*fortuned.MaxColsPerLayer, end)

	m.Table.SetLayerLength(0, 3, 0, true)
	m.Tick() // the freed width must be mirrored before it can be reassigned
	m.Table.SetLayerLength(0, 0, 8, true)
	m.Tick()
	start, end = m.Table.LayerSpan(0, 0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 8, end)
	assert.Equal(t, 8, m.Table.LayerLen(0, 0))
}
